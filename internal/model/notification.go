package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationAssignmentCompleted is the type tag written on completion
const NotificationAssignmentCompleted = "assignment_completed"

// Notification records an event that should reach the administrator
type Notification struct {
	ID           uuid.UUID `db:"id" json:"id"`
	AssignmentID uuid.UUID `db:"assignment_id" json:"assignment_id"`
	Message      string    `db:"message" json:"message"`
	Type         string    `db:"type" json:"type"`
	Sent         bool      `db:"sent" json:"sent"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PendingNotification is an unsent notification of a completed assignment,
// with what is needed to dispatch it again
type PendingNotification struct {
	AssignmentID uuid.UUID `db:"assignment_id"`
	Email        string    `db:"email"`
	CampaignName string    `db:"campaign_name"`
	CreatedAt    time.Time `db:"created_at"`
}

// NotificationCursor positions a scan over pending notifications, which are
// ordered oldest first. The zero value starts at the beginning.
type NotificationCursor struct {
	CreatedAt    time.Time
	AssignmentID uuid.UUID
}

// Cursor returns the position just after p
func (p PendingNotification) Cursor() NotificationCursor {
	return NotificationCursor{CreatedAt: p.CreatedAt, AssignmentID: p.AssignmentID}
}
