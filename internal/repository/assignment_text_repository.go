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

// AssignmentTextRepository handles the links between assignments and claimed texts
type AssignmentTextRepository struct{}

// NewAssignmentTextRepository creates a new assignment text repository
func NewAssignmentTextRepository() *AssignmentTextRepository {
	return &AssignmentTextRepository{}
}

const linkColumns = `id, assignment_id, product_id, text_id, copied_at, upload_url, created_at`

// CreateAssignmentText links a claimed text to an assignment
func (r *AssignmentTextRepository) CreateAssignmentText(ctx context.Context, db DBExecutor, link *model.AssignmentText) error {
	query := `
		INSERT INTO assignment_texts (id, assignment_id, product_id, text_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	link.CreatedAt = time.Now()

	_, err := db.ExecContext(ctx, query, link.ID, link.AssignmentID, link.ProductID, link.TextID, link.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create assignment text: %w", err)
	}

	return nil
}

// DeleteAssignmentTexts removes every link of an assignment
func (r *AssignmentTextRepository) DeleteAssignmentTexts(ctx context.Context, db DBExecutor, assignmentID uuid.UUID) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM assignment_texts WHERE assignment_id = $1`, assignmentID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete assignment texts: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// ListAssignmentTexts returns the links of an assignment with product and
// text details, ordered by product position
func (r *AssignmentTextRepository) ListAssignmentTexts(ctx context.Context, db DBExecutor, assignmentID uuid.UUID) ([]model.AssignmentTextDetail, error) {
	query := `
		SELECT
			a.id, a.assignment_id, a.product_id, a.text_id, a.copied_at, a.upload_url, a.created_at,
			p.name AS product_name,
			p.position AS product_position,
			t.content,
			t.option_number
		FROM assignment_texts a
		JOIN products p ON p.id = a.product_id
		JOIN texts t ON t.id = a.text_id
		WHERE a.assignment_id = $1
		ORDER BY p.position ASC
	`

	var links []model.AssignmentTextDetail
	if err := db.SelectContext(ctx, &links, query, assignmentID); err != nil {
		return nil, fmt.Errorf("failed to list assignment texts: %w", err)
	}

	return links, nil
}

// RecordCopy overwrites copied_at of a link
func (r *AssignmentTextRepository) RecordCopy(ctx context.Context, db DBExecutor, linkID uuid.UUID, copiedAt time.Time) (*model.AssignmentText, error) {
	query := `
		UPDATE assignment_texts
		SET copied_at = $2
		WHERE id = $1
		RETURNING ` + linkColumns

	return r.updateLink(ctx, db, query, linkID, copiedAt)
}

// RecordUpload overwrites upload_url of a link. The URL is stored as given.
func (r *AssignmentTextRepository) RecordUpload(ctx context.Context, db DBExecutor, linkID uuid.UUID, uploadURL string) (*model.AssignmentText, error) {
	query := `
		UPDATE assignment_texts
		SET upload_url = $2
		WHERE id = $1
		RETURNING ` + linkColumns

	return r.updateLink(ctx, db, query, linkID, uploadURL)
}

func (r *AssignmentTextRepository) updateLink(ctx context.Context, db DBExecutor, query string, linkID uuid.UUID, value interface{}) (*model.AssignmentText, error) {
	var link model.AssignmentText
	if err := db.GetContext(ctx, &link, query, linkID, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to update assignment text: %w", err)
	}

	return &link, nil
}
