package transport

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kkkkikiki/textclaim/internal/model"
)

var errNotAllCopied = errors.New("every text must be copied before completing")

// toConnectError maps domain errors onto connect codes
func toConnectError(err error) error {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, model.ErrOutOfTexts):
		return connect.NewError(connect.CodeResourceExhausted, err)
	case errors.Is(err, model.ErrNoActiveCampaign), errors.Is(err, errNotAllCopied):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, model.ErrCampaignNotFound),
		errors.Is(err, model.ErrProductNotFound),
		errors.Is(err, model.ErrAssignmentNotFound),
		errors.Is(err, model.ErrLinkNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, model.ErrAssignmentContended):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, model.ErrInvalidInput), errors.As(err, &validationErrs):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// validateRequest runs struct validation and maps failures to invalid_argument
func validateRequest(v *validator.Validate, req any) error {
	if err := v.Struct(req); err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return nil
}

// parseID parses an id that already passed uuid validation
func parseID(s string) uuid.UUID {
	return uuid.MustParse(s)
}
