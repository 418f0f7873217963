package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kkkkikiki/textclaim/internal/metrics"
	"github.com/kkkkikiki/textclaim/internal/model"
	"github.com/kkkkikiki/textclaim/internal/notification"
)

const pendingNotificationBatch = 100

// Report summarizes one reconciliation pass
type Report struct {
	ReleasedTexts        int64
	NotificationsSent    int
	NotificationsFailed  int
	NotificationsSkipped bool
}

// Reconciler repairs what an interrupted assignment attempt or a failed
// notification leaves behind. Every pass is idempotent.
type Reconciler struct {
	store    Store
	notifier Notifier
	grace    time.Duration
	resend   bool
	batch    int
	logger   *zap.Logger
	now      func() time.Time
}

// NewReconciler creates a new Reconciler. Texts claimed less than grace ago
// are left alone since their assignment may still be in progress.
func NewReconciler(store Store, notifier Notifier, grace time.Duration, resend bool, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.L()
	}
	return &Reconciler{
		store:    store,
		notifier: notifier,
		grace:    grace,
		resend:   resend,
		batch:    pendingNotificationBatch,
		logger:   logger.Named("reconciler"),
		now:      time.Now,
	}
}

// Run releases orphaned claimed texts and, when enabled, retries unsent
// completion notifications
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	var report Report

	released, err := r.store.ReleaseOrphanedTexts(ctx, r.now().Add(-r.grace))
	if err != nil {
		return report, fmt.Errorf("release orphaned texts: %w", err)
	}
	report.ReleasedTexts = released
	metrics.RecordReleasedTexts(released)
	if released > 0 {
		r.logger.Warn("released orphaned texts", zap.Int64("count", released))
	}

	if !r.resend || r.notifier == nil {
		report.NotificationsSkipped = true
		return report, nil
	}

	// keyset pages, every pending row is tried once per pass
	var cursor model.NotificationCursor
pages:
	for {
		pending, err := r.store.ListPendingNotifications(ctx, cursor, r.batch)
		if err != nil {
			return report, fmt.Errorf("list pending notifications: %w", err)
		}

		for _, p := range pending {
			result, err := r.notifier.Dispatch(ctx, notification.Request{
				AssignmentID: p.AssignmentID,
				CampaignName: p.CampaignName,
				UserEmail:    p.Email,
			})
			if errors.Is(err, notification.ErrNotConfigured) {
				r.logger.Warn("skipping notification retry", zap.Error(err))
				report.NotificationsSkipped = true
				break pages
			}
			if err != nil || !result.Success {
				report.NotificationsFailed++
				continue
			}
			report.NotificationsSent++
		}

		if len(pending) < r.batch {
			break
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		cursor = pending[len(pending)-1].Cursor()
	}

	r.logger.Info("reconciliation finished",
		zap.Int64("released_texts", report.ReleasedTexts),
		zap.Int("notifications_sent", report.NotificationsSent),
		zap.Int("notifications_failed", report.NotificationsFailed))
	return report, nil
}
