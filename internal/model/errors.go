package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrOutOfTexts         = errors.New("OUT_OF_TEXTS")
	ErrNoActiveCampaign   = errors.New("no active campaign found")
	ErrCampaignNotFound   = errors.New("campaign not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrLinkNotFound       = errors.New("assignment text not found")
	ErrInvalidInput       = errors.New("invalid input")

	// ErrAssignmentContended means a concurrent attempt for the same email
	// won the insert and then rolled back. Retrying is safe.
	ErrAssignmentContended = errors.New("assignment is being created concurrently")
)

// OutOfTextsError reports that a product has no unassigned text left
type OutOfTextsError struct {
	ProductID uuid.UUID
}

func (e *OutOfTextsError) Error() string {
	return fmt.Sprintf("%s: product %s has no unassigned texts", ErrOutOfTexts, e.ProductID)
}

// Is makes errors.Is(err, ErrOutOfTexts) hold for any OutOfTextsError
func (e *OutOfTextsError) Is(target error) bool {
	return target == ErrOutOfTexts
}
