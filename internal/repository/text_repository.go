package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/kkkkikiki/textclaim/internal/database"
	"github.com/kkkkikiki/textclaim/internal/model"
)

// TextRepository handles text variant data operations
type TextRepository struct {
	batchSize int
}

// NewTextRepository creates a new text repository
func NewTextRepository() *TextRepository {
	// 5 parameters per row keeps a batch well under PostgreSQL's 65535 limit
	return &TextRepository{batchSize: 1000}
}

const textColumns = `id, product_id, content, option_number, is_assigned, claimed_at, created_at`

// ClaimText atomically reserves one unassigned text of the product through
// the claim_text routine. The check and the flag flip happen in a single
// statement, so two concurrent callers never receive the same row.
func (r *TextRepository) ClaimText(ctx context.Context, db DBExecutor, assignmentID, productID uuid.UUID) (*model.Text, error) {
	query := `SELECT ` + textColumns + ` FROM claim_text($1, $2)`

	var text model.Text
	err := db.GetContext(ctx, &text, query, assignmentID, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isExhausted(err) {
			return nil, &model.OutOfTextsError{ProductID: productID}
		}
		return nil, fmt.Errorf("failed to claim text for product %s: %w", productID, err)
	}

	return &text, nil
}

func isExhausted(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqNoDataFound && pqErr.Message == database.ClaimTextExhausted
}

// ReleaseTexts returns claimed texts to the pool
func (r *TextRepository) ReleaseTexts(ctx context.Context, db DBExecutor, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `
		UPDATE texts
		SET is_assigned = false, claimed_at = NULL
		WHERE id = ANY($1::uuid[]) AND is_assigned = true
	`

	result, err := db.ExecContext(ctx, query, pq.Array(uuidStrings(ids)))
	if err != nil {
		return 0, fmt.Errorf("failed to release texts: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// ReleaseOrphanedTexts releases texts claimed before the cutoff that no
// assignment link references
func (r *TextRepository) ReleaseOrphanedTexts(ctx context.Context, db DBExecutor, claimedBefore time.Time) (int64, error) {
	query := `
		UPDATE texts t
		SET is_assigned = false, claimed_at = NULL
		WHERE t.is_assigned = true
		  AND t.claimed_at < $1
		  AND NOT EXISTS (SELECT 1 FROM assignment_texts a WHERE a.text_id = t.id)
	`

	result, err := db.ExecContext(ctx, query, claimedBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to release orphaned texts: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// CreateTexts inserts the variants of a product in batches, numbering them
// from 1 in the given order
func (r *TextRepository) CreateTexts(ctx context.Context, db DBExecutor, productID uuid.UUID, contents []string) ([]model.Text, error) {
	now := time.Now()

	texts := make([]model.Text, len(contents))
	for i, content := range contents {
		texts[i] = model.Text{
			ID:           uuid.New(),
			ProductID:    productID,
			Content:      content,
			OptionNumber: i + 1,
			CreatedAt:    now,
		}
	}

	for i := 0; i < len(texts); i += r.batchSize {
		end := i + r.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		if err := r.insertTextBatch(ctx, db, texts[i:end]); err != nil {
			return nil, fmt.Errorf("failed to insert text batch: %w", err)
		}
	}

	return texts, nil
}

// insertTextBatch inserts a batch of texts using a single query
func (r *TextRepository) insertTextBatch(ctx context.Context, db DBExecutor, texts []model.Text) error {
	if len(texts) == 0 {
		return nil
	}

	valuesClause := make([]string, len(texts))
	args := make([]interface{}, 0, len(texts)*5)

	for i, t := range texts {
		valuesClause[i] = fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)",
			i*5+1, i*5+2, i*5+3, i*5+4, i*5+5)
		args = append(args, t.ID, t.ProductID, t.Content, t.OptionNumber, t.CreatedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO texts (id, product_id, content, option_number, created_at)
		VALUES %s
	`, strings.Join(valuesClause, ", "))

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to execute batch insert: %w", err)
	}

	return nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
