package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kkkkikiki/textclaim/internal/model"
)

// NotificationRepository handles notification data operations
type NotificationRepository struct{}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

// CreateNotification inserts an unsent notification
func (r *NotificationRepository) CreateNotification(ctx context.Context, db DBExecutor, n *model.Notification) error {
	query := `
		INSERT INTO notifications (id, assignment_id, message, type, sent, created_at)
		VALUES ($1, $2, $3, $4, false, $5)
	`

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.Sent = false
	n.CreatedAt = time.Now()

	if _, err := db.ExecContext(ctx, query, n.ID, n.AssignmentID, n.Message, n.Type, n.CreatedAt); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// MarkNotificationsSent flags every notification of an assignment as sent
func (r *NotificationRepository) MarkNotificationsSent(ctx context.Context, db DBExecutor, assignmentID uuid.UUID) (int64, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE notifications SET sent = true WHERE assignment_id = $1 AND sent = false`, assignmentID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications sent: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// ListPendingNotifications returns completed assignments that still have an
// unsent notification, oldest first, starting after the cursor
func (r *NotificationRepository) ListPendingNotifications(ctx context.Context, db DBExecutor, after model.NotificationCursor, limit int) ([]model.PendingNotification, error) {
	query := `
		SELECT n.assignment_id, a.email, c.name AS campaign_name, MIN(n.created_at) AS created_at
		FROM notifications n
		JOIN user_assignments a ON a.id = n.assignment_id
		JOIN campaigns c ON c.id = a.campaign_id
		WHERE n.sent = false AND a.status = 'completed'
		GROUP BY n.assignment_id, a.email, c.name
		HAVING (MIN(n.created_at), n.assignment_id) > ($1, $2)
		ORDER BY MIN(n.created_at), n.assignment_id
		LIMIT $3
	`

	var pending []model.PendingNotification
	if err := db.SelectContext(ctx, &pending, query, after.CreatedAt, after.AssignmentID, limit); err != nil {
		return nil, fmt.Errorf("failed to list pending notifications: %w", err)
	}

	return pending, nil
}
