package model

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentStatus is the progress state of a user assignment
type AssignmentStatus string

const (
	AssignmentAssigned  AssignmentStatus = "assigned"
	AssignmentViewed    AssignmentStatus = "viewed"
	AssignmentCompleted AssignmentStatus = "completed"
)

// Assignment binds one email to one claimed text per product of a campaign.
// CompletedAt is set if and only if Status is completed.
type Assignment struct {
	ID          uuid.UUID        `db:"id" json:"id"`
	CampaignID  uuid.UUID        `db:"campaign_id" json:"campaign_id"`
	Email       string           `db:"email" json:"email"`
	Status      AssignmentStatus `db:"status" json:"status"`
	AssignedAt  time.Time        `db:"assigned_at" json:"assigned_at"`
	CompletedAt *time.Time       `db:"completed_at" json:"completed_at,omitempty"`
}

// AssignmentText links an assignment to the text claimed for one product
type AssignmentText struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	AssignmentID uuid.UUID  `db:"assignment_id" json:"assignment_id"`
	ProductID    uuid.UUID  `db:"product_id" json:"product_id"`
	TextID       uuid.UUID  `db:"text_id" json:"text_id"`
	CopiedAt     *time.Time `db:"copied_at" json:"copied_at,omitempty"`
	UploadURL    *string    `db:"upload_url" json:"upload_url,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// AssignmentTextDetail is a link joined with its product and text
type AssignmentTextDetail struct {
	AssignmentText
	ProductName     string `db:"product_name" json:"product_name"`
	ProductPosition int    `db:"product_position" json:"product_position"`
	Content         string `db:"content" json:"content"`
	OptionNumber    int    `db:"option_number" json:"option_number"`
}
