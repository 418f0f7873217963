package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kkkkikiki/textclaim/internal/config"
	"github.com/kkkkikiki/textclaim/internal/metrics"
	"github.com/kkkkikiki/textclaim/internal/model"
)

// ErrNotConfigured is returned when no provider API key is set. No request
// is made in that case.
var ErrNotConfigured = errors.New("RESEND_API_KEY not set, cannot send notification email")

// Request identifies the assignment to report on
type Request struct {
	AssignmentID uuid.UUID
	CampaignName string
	UserEmail    string
}

// Store is what the dispatcher reads and updates
type Store interface {
	ListAssignmentTexts(ctx context.Context, assignmentID uuid.UUID) ([]model.AssignmentTextDetail, error)
	MarkNotificationsSent(ctx context.Context, assignmentID uuid.UUID) (int64, error)
}

// Dispatcher sends the completion summary of an assignment to the administrator
type Dispatcher struct {
	store  Store
	client *EmailClient
	cfg    config.EmailConfig
	logger *zap.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(store Store, client *EmailClient, cfg config.EmailConfig, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		store:  store,
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Dispatch formats and sends the summary. Provider rejections and transport
// failures come back as an unsuccessful Result with a nil error; the error is
// reserved for missing configuration and storage failures. The assignment's
// notifications are flagged sent only after a successful delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Result, error) {
	log := d.logger.With(zap.Stringer("assignment_id", req.AssignmentID))

	if d.cfg.APIKey == "" {
		metrics.RecordNotification("not_configured")
		log.Error("notification not sent", zap.Error(ErrNotConfigured))
		return nil, ErrNotConfigured
	}

	links, err := d.store.ListAssignmentTexts(ctx, req.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment texts: %w", err)
	}

	html, err := FormatSummary(req, links)
	if err != nil {
		return nil, err
	}

	to := d.cfg.Recipient()
	log.Info("sending notification email", zap.String("to", to), zap.Int("texts", len(links)))

	result := d.client.Send(ctx, d.cfg.APIKey, Email{
		From:    d.cfg.FromEmail,
		To:      to,
		Subject: Subject(req.CampaignName),
		HTML:    html,
	})
	if !result.Success {
		outcome := "rejected"
		if result.Message != providerRejectedMessage {
			outcome = "transport_error"
		}
		metrics.RecordNotification(outcome)
		log.Error("failed to send notification email",
			zap.Int("status", result.Status),
			zap.String("message", result.Message),
			zap.String("body", result.Body))
		return &result, nil
	}
	metrics.RecordNotification("sent")

	if _, err := d.store.MarkNotificationsSent(ctx, req.AssignmentID); err != nil {
		// delivered; the row stays unsent and the sweep may send it again
		log.Warn("failed to mark notifications sent", zap.Error(err))
	}

	return &result, nil
}
