package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kkkkikiki/textclaim/internal/metrics"
	"github.com/kkkkikiki/textclaim/internal/model"
	"github.com/kkkkikiki/textclaim/internal/notification"
)

// Notifier delivers completion summaries
type Notifier interface {
	Dispatch(ctx context.Context, req notification.Request) (*notification.Result, error)
}

// AssignmentDetail is an assignment with its links ordered by product position
type AssignmentDetail struct {
	Assignment *model.Assignment            `json:"assignment"`
	Texts      []model.AssignmentTextDetail `json:"texts"`
}

// CompletionResult reports a completion and the outcome of its notification.
// NotificationError is set when the summary could not be handed to the
// provider at all; Notification is set when it was.
type CompletionResult struct {
	Assignment        *model.Assignment
	Notification      *notification.Result
	NotificationError error
}

// AssignmentService hands out one text per product to each email and tracks
// progress through completion
type AssignmentService struct {
	store    Store
	notifier Notifier
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(store Store, notifier Notifier, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.L()
	}
	return &AssignmentService{
		store:    store,
		notifier: notifier,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.Named("assignment"),
		now:      time.Now,
	}
}

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAssignment assigns texts for email in the first active campaign
func (s *AssignmentService) CreateAssignment(ctx context.Context, email string) (*AssignmentDetail, error) {
	campaign, err := s.store.GetActiveCampaign(ctx)
	if err != nil {
		return nil, err
	}
	return s.CreateAssignmentForCampaign(ctx, email, campaign.ID)
}

// CreateAssignmentForCampaign returns the existing assignment of email in the
// campaign or creates one, claiming one text per product in position order.
// New assignments are only created while the campaign is active. If any claim
// or link fails, everything done so far is compensated and the original error
// is returned.
func (s *AssignmentService) CreateAssignmentForCampaign(ctx context.Context, email string, campaignID uuid.UUID) (*AssignmentDetail, error) {
	start := time.Now()
	result := metrics.ResultFailed
	defer func() {
		metrics.RecordCreateAssignmentDuration(result, time.Since(start).Seconds())
	}()

	email = NormalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: email must be a valid address", model.ErrInvalidInput)
	}

	return s.assign(ctx, email, campaignID, true, &result)
}

// assign runs one attempt of CreateAssignmentForCampaign. When the insert
// loses to a concurrent request whose row is gone again by the time it is
// read back, the attempt is repeated once if retry is set.
func (s *AssignmentService) assign(ctx context.Context, email string, campaignID uuid.UUID, retry bool, result *string) (*AssignmentDetail, error) {
	existing, err := s.store.FindAssignment(ctx, campaignID, email)
	switch {
	case err == nil:
		*result = metrics.ResultExisting
		return s.detail(ctx, existing)
	case !errors.Is(err, model.ErrAssignmentNotFound):
		return nil, err
	}

	campaign, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != model.CampaignActive {
		return nil, fmt.Errorf("%w: campaign %s is %s", model.ErrNoActiveCampaign, campaignID, campaign.Status)
	}

	assignment := &model.Assignment{
		ID:         uuid.New(),
		CampaignID: campaignID,
		Email:      email,
	}
	created, err := s.store.CreateAssignment(ctx, assignment)
	if err != nil {
		return nil, err
	}
	if !created {
		// a concurrent request for the same email won the insert
		winner, err := s.store.FindAssignment(ctx, campaignID, email)
		switch {
		case errors.Is(err, model.ErrAssignmentNotFound):
			// the winner rolled back in between
			if retry {
				return s.assign(ctx, email, campaignID, false, result)
			}
			return nil, fmt.Errorf("%w: %s in campaign %s", model.ErrAssignmentContended, email, campaignID)
		case err != nil:
			return nil, err
		}
		*result = metrics.ResultExisting
		return s.detail(ctx, winner)
	}

	log := s.logger.With(
		zap.Stringer("assignment_id", assignment.ID),
		zap.Stringer("campaign_id", campaignID),
		zap.String("email", email))

	rb := &rollback{assignmentID: assignment.ID}
	if err := s.claimAll(ctx, assignment, rb); err != nil {
		rb.compensate(ctx, s.store, log, err)
		if errors.Is(err, model.ErrOutOfTexts) {
			*result = metrics.ResultOutOfTexts
		}
		return nil, err
	}

	log.Info("assignment created", zap.Int("texts", rb.linked))
	*result = metrics.ResultSuccess
	return s.detail(ctx, assignment)
}

// claimAll claims and links one text per product, stopping at the first error
func (s *AssignmentService) claimAll(ctx context.Context, assignment *model.Assignment, rb *rollback) error {
	products, err := s.store.ListProducts(ctx, assignment.CampaignID)
	if err != nil {
		return err
	}

	for _, product := range products {
		text, err := s.store.ClaimText(ctx, assignment.ID, product.ID)
		if err != nil {
			if errors.Is(err, model.ErrOutOfTexts) {
				metrics.RecordClaim(metrics.ResultOutOfTexts)
			} else {
				metrics.RecordClaim(metrics.ResultFailed)
			}
			return err
		}
		rb.claimedText(text.ID)
		metrics.RecordClaim(metrics.ResultSuccess)

		link := &model.AssignmentText{
			ID:           uuid.New(),
			AssignmentID: assignment.ID,
			ProductID:    product.ID,
			TextID:       text.ID,
		}
		if err := s.store.CreateAssignmentText(ctx, link); err != nil {
			return err
		}
		rb.linkedText()
	}

	return nil
}

func (s *AssignmentService) detail(ctx context.Context, assignment *model.Assignment) (*AssignmentDetail, error) {
	texts, err := s.store.ListAssignmentTexts(ctx, assignment.ID)
	if err != nil {
		return nil, err
	}
	return &AssignmentDetail{Assignment: assignment, Texts: texts}, nil
}

// GetAssignment returns an assignment with its texts. The first fetch moves
// it from assigned to viewed.
func (s *AssignmentService) GetAssignment(ctx context.Context, id uuid.UUID) (*AssignmentDetail, error) {
	assignment, err := s.store.GetAssignment(ctx, id)
	if err != nil {
		return nil, err
	}

	if assignment.Status == model.AssignmentAssigned {
		viewed, err := s.store.MarkViewed(ctx, id)
		if err != nil {
			return nil, err
		}
		if viewed {
			assignment.Status = model.AssignmentViewed
		}
	}

	return s.detail(ctx, assignment)
}

// Progress returns the links of an assignment without touching its status
func (s *AssignmentService) Progress(ctx context.Context, id uuid.UUID) ([]model.AssignmentTextDetail, error) {
	if _, err := s.store.GetAssignment(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListAssignmentTexts(ctx, id)
}

// RecordCopy stamps the link with the current time, overwriting any earlier copy
func (s *AssignmentService) RecordCopy(ctx context.Context, linkID uuid.UUID) (*model.AssignmentText, error) {
	return s.store.RecordCopy(ctx, linkID, s.now())
}

// RecordUpload stores the user supplied reference for the link
func (s *AssignmentService) RecordUpload(ctx context.Context, linkID uuid.UUID, uploadURL string) (*model.AssignmentText, error) {
	return s.store.RecordUpload(ctx, linkID, uploadURL)
}

// AllCopied reports whether there is at least one link and every link has
// been copied
func AllCopied(links []model.AssignmentTextDetail) bool {
	if len(links) == 0 {
		return false
	}
	for _, link := range links {
		if link.CopiedAt == nil {
			return false
		}
	}
	return true
}

// CompleteAssignment marks the assignment completed, records a notification
// and dispatches the summary. Dispatch problems are reported in the result
// and never undo the completion. Completing twice returns the stored row
// without a second notification.
func (s *AssignmentService) CompleteAssignment(ctx context.Context, id uuid.UUID) (*CompletionResult, error) {
	assignment, transitioned, err := s.store.CompleteAssignment(ctx, id, s.now())
	if err != nil {
		return nil, err
	}

	res := &CompletionResult{Assignment: assignment}
	if !transitioned {
		return res, nil
	}

	log := s.logger.With(zap.Stringer("assignment_id", id))
	log.Info("assignment completed", zap.String("email", assignment.Email))

	n := &model.Notification{
		AssignmentID: id,
		Message:      "Assignment completed by " + assignment.Email,
		Type:         model.NotificationAssignmentCompleted,
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		log.Error("failed to record notification", zap.Error(err))
		res.NotificationError = err
		return res, nil
	}

	res.Notification, res.NotificationError = s.notify(ctx, assignment)
	return res, nil
}

func (s *AssignmentService) notify(ctx context.Context, assignment *model.Assignment) (*notification.Result, error) {
	if s.notifier == nil {
		return nil, notification.ErrNotConfigured
	}

	campaign, err := s.store.GetCampaign(ctx, assignment.CampaignID)
	if err != nil {
		s.logger.Error("failed to load campaign for notification", zap.Error(err))
		return nil, err
	}

	result, err := s.notifier.Dispatch(ctx, notification.Request{
		AssignmentID: assignment.ID,
		CampaignName: campaign.Name,
		UserEmail:    assignment.Email,
	})
	if err != nil {
		s.logger.Warn("notification not dispatched",
			zap.Stringer("assignment_id", assignment.ID), zap.Error(err))
	}
	return result, err
}
