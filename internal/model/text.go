package model

import (
	"time"

	"github.com/google/uuid"
)

// Text is one candidate copy string for a product. IsAssigned is the
// contended flag: it only ever flips to true through claim_text.
type Text struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	ProductID    uuid.UUID  `db:"product_id" json:"product_id"`
	Content      string     `db:"content" json:"content"`
	OptionNumber int        `db:"option_number" json:"option_number"`
	IsAssigned   bool       `db:"is_assigned" json:"is_assigned"`
	ClaimedAt    *time.Time `db:"claimed_at" json:"claimed_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
