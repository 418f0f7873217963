package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kkkkikiki/textclaim/internal/model"
)

// AssignmentRepository handles user assignment data operations
type AssignmentRepository struct{}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository() *AssignmentRepository {
	return &AssignmentRepository{}
}

const assignmentColumns = `id, campaign_id, email, status, assigned_at, completed_at`

// FindAssignment looks up the assignment of an email within a campaign
func (r *AssignmentRepository) FindAssignment(ctx context.Context, db DBExecutor, campaignID uuid.UUID, email string) (*model.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM user_assignments
		WHERE campaign_id = $1 AND email = $2
	`

	var assignment model.Assignment
	if err := db.GetContext(ctx, &assignment, query, campaignID, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to find assignment: %w", err)
	}

	return &assignment, nil
}

// GetAssignment retrieves an assignment by ID
func (r *AssignmentRepository) GetAssignment(ctx context.Context, db DBExecutor, id uuid.UUID) (*model.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM user_assignments WHERE id = $1`

	var assignment model.Assignment
	if err := db.GetContext(ctx, &assignment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	return &assignment, nil
}

// CreateAssignment inserts a new assignment in assigned status. It reports
// false without error when the (campaign, email) pair already has one.
func (r *AssignmentRepository) CreateAssignment(ctx context.Context, db DBExecutor, assignment *model.Assignment) (bool, error) {
	query := `
		INSERT INTO user_assignments (id, campaign_id, email, status, assigned_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT user_assignments_campaign_email_key DO NOTHING
		RETURNING id
	`

	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	assignment.Status = model.AssignmentAssigned
	assignment.AssignedAt = time.Now()
	assignment.CompletedAt = nil

	var id uuid.UUID
	err := db.GetContext(ctx, &id, query,
		assignment.ID, assignment.CampaignID, assignment.Email, assignment.Status, assignment.AssignedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if pqCode(err) == pqForeignKeyViolation {
			return false, model.ErrCampaignNotFound
		}
		return false, fmt.Errorf("failed to create assignment: %w", err)
	}

	return true, nil
}

// DeleteAssignment removes an assignment row
func (r *AssignmentRepository) DeleteAssignment(ctx context.Context, db DBExecutor, id uuid.UUID) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM user_assignments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	return nil
}

// MarkViewed moves an assignment from assigned to viewed. Other states are
// left alone.
func (r *AssignmentRepository) MarkViewed(ctx context.Context, db DBExecutor, id uuid.UUID) (bool, error) {
	query := `
		UPDATE user_assignments
		SET status = 'viewed'
		WHERE id = $1 AND status = 'assigned'
	`

	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark assignment viewed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// CompleteAssignment sets status completed and completed_at together. It
// returns false with the stored row when the assignment was already complete.
func (r *AssignmentRepository) CompleteAssignment(ctx context.Context, db DBExecutor, id uuid.UUID, completedAt time.Time) (*model.Assignment, bool, error) {
	query := `
		UPDATE user_assignments
		SET status = 'completed', completed_at = $2
		WHERE id = $1 AND status <> 'completed'
		RETURNING ` + assignmentColumns

	var assignment model.Assignment
	err := db.GetContext(ctx, &assignment, query, id, completedAt)
	if err == nil {
		return &assignment, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to complete assignment: %w", err)
	}

	existing, err := r.GetAssignment(ctx, db, id)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}
