package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kkkkikiki/textclaim/internal/metrics"
)

// rollbackTimeout bounds compensation when the request context is already gone
const rollbackTimeout = 10 * time.Second

// rollback records what an assignment attempt has done so far so that it can
// be undone: links first, then claimed texts, then the assignment row.
type rollback struct {
	assignmentID uuid.UUID
	claimed      []uuid.UUID
	linked       int
}

func (r *rollback) claimedText(id uuid.UUID) { r.claimed = append(r.claimed, id) }

func (r *rollback) linkedText() { r.linked++ }

// run executes every compensation step even if an earlier one fails. The
// returned error is only for logging; callers surface the original failure.
func (r *rollback) run(ctx context.Context, store Store) error {
	// compensation must outlive a cancelled request
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	var errs []error

	if _, err := store.DeleteAssignmentTexts(ctx, r.assignmentID); err != nil {
		errs = append(errs, fmt.Errorf("delete %d links: %w", r.linked, err))
	}

	if len(r.claimed) > 0 {
		if _, err := store.ReleaseTexts(ctx, r.claimed); err != nil {
			errs = append(errs, fmt.Errorf("release %d texts: %w", len(r.claimed), err))
		}
	}

	if err := store.DeleteAssignment(ctx, r.assignmentID); err != nil {
		errs = append(errs, fmt.Errorf("delete assignment: %w", err))
	}

	return errors.Join(errs...)
}

// compensate runs the rollback and logs the outcome next to the failure that
// triggered it
func (r *rollback) compensate(ctx context.Context, store Store, logger *zap.Logger, cause error) {
	err := r.run(ctx, store)
	metrics.RecordRollback(err == nil)

	fields := []zap.Field{
		zap.Stringer("assignment_id", r.assignmentID),
		zap.Int("claimed_texts", len(r.claimed)),
		zap.Int("links", r.linked),
		zap.NamedError("cause", cause),
	}
	if err != nil {
		logger.Error("assignment rollback incomplete", append(fields, zap.Error(err))...)
		return
	}
	logger.Info("assignment rolled back", fields...)
}
