package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kkkkikiki/textclaim/internal/model"
)

// Store exposes the repositories over a PostgreSQL connection pool. Every
// call runs as its own statement; only product seeding uses a transaction.
type Store struct {
	db            *sqlx.DB
	campaigns     *CampaignRepository
	texts         *TextRepository
	assignments   *AssignmentRepository
	links         *AssignmentTextRepository
	notifications *NotificationRepository
}

// NewStore creates a new Store
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:            db,
		campaigns:     NewCampaignRepository(),
		texts:         NewTextRepository(),
		assignments:   NewAssignmentRepository(),
		links:         NewAssignmentTextRepository(),
		notifications: NewNotificationRepository(),
	}
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) CreateCampaign(ctx context.Context, campaign *model.Campaign) error {
	return s.campaigns.CreateCampaign(ctx, s.db, campaign)
}

func (s *Store) GetCampaign(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	return s.campaigns.GetCampaign(ctx, s.db, id)
}

func (s *Store) GetActiveCampaign(ctx context.Context) (*model.Campaign, error) {
	return s.campaigns.GetActiveCampaign(ctx, s.db)
}

func (s *Store) UpdateCampaignStatus(ctx context.Context, id uuid.UUID, status model.CampaignStatus) (*model.Campaign, error) {
	return s.campaigns.UpdateCampaignStatus(ctx, s.db, id, status)
}

func (s *Store) ListProducts(ctx context.Context, campaignID uuid.UUID) ([]model.Product, error) {
	return s.campaigns.ListProducts(ctx, s.db, campaignID)
}

func (s *Store) GetInventory(ctx context.Context, campaignID uuid.UUID) ([]model.ProductInventory, error) {
	return s.campaigns.GetInventory(ctx, s.db, campaignID)
}

// CreateProduct inserts a product together with its text variants
func (s *Store) CreateProduct(ctx context.Context, product *model.Product, contents []string) ([]model.Text, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.campaigns.CreateProduct(ctx, tx, product); err != nil {
		return nil, err
	}

	texts, err := s.texts.CreateTexts(ctx, tx, product.ID, contents)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return texts, nil
}

func (s *Store) ClaimText(ctx context.Context, assignmentID, productID uuid.UUID) (*model.Text, error) {
	return s.texts.ClaimText(ctx, s.db, assignmentID, productID)
}

func (s *Store) ReleaseTexts(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return s.texts.ReleaseTexts(ctx, s.db, ids)
}

func (s *Store) ReleaseOrphanedTexts(ctx context.Context, claimedBefore time.Time) (int64, error) {
	return s.texts.ReleaseOrphanedTexts(ctx, s.db, claimedBefore)
}

func (s *Store) FindAssignment(ctx context.Context, campaignID uuid.UUID, email string) (*model.Assignment, error) {
	return s.assignments.FindAssignment(ctx, s.db, campaignID, email)
}

func (s *Store) GetAssignment(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	return s.assignments.GetAssignment(ctx, s.db, id)
}

func (s *Store) CreateAssignment(ctx context.Context, assignment *model.Assignment) (bool, error) {
	return s.assignments.CreateAssignment(ctx, s.db, assignment)
}

func (s *Store) DeleteAssignment(ctx context.Context, id uuid.UUID) error {
	return s.assignments.DeleteAssignment(ctx, s.db, id)
}

func (s *Store) MarkViewed(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.assignments.MarkViewed(ctx, s.db, id)
}

func (s *Store) CompleteAssignment(ctx context.Context, id uuid.UUID, completedAt time.Time) (*model.Assignment, bool, error) {
	return s.assignments.CompleteAssignment(ctx, s.db, id, completedAt)
}

func (s *Store) CreateAssignmentText(ctx context.Context, link *model.AssignmentText) error {
	return s.links.CreateAssignmentText(ctx, s.db, link)
}

func (s *Store) DeleteAssignmentTexts(ctx context.Context, assignmentID uuid.UUID) (int64, error) {
	return s.links.DeleteAssignmentTexts(ctx, s.db, assignmentID)
}

func (s *Store) ListAssignmentTexts(ctx context.Context, assignmentID uuid.UUID) ([]model.AssignmentTextDetail, error) {
	return s.links.ListAssignmentTexts(ctx, s.db, assignmentID)
}

func (s *Store) RecordCopy(ctx context.Context, linkID uuid.UUID, copiedAt time.Time) (*model.AssignmentText, error) {
	return s.links.RecordCopy(ctx, s.db, linkID, copiedAt)
}

func (s *Store) RecordUpload(ctx context.Context, linkID uuid.UUID, uploadURL string) (*model.AssignmentText, error) {
	return s.links.RecordUpload(ctx, s.db, linkID, uploadURL)
}

func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) error {
	return s.notifications.CreateNotification(ctx, s.db, n)
}

func (s *Store) MarkNotificationsSent(ctx context.Context, assignmentID uuid.UUID) (int64, error) {
	return s.notifications.MarkNotificationsSent(ctx, s.db, assignmentID)
}

func (s *Store) ListPendingNotifications(ctx context.Context, after model.NotificationCursor, limit int) ([]model.PendingNotification, error) {
	return s.notifications.ListPendingNotifications(ctx, s.db, after, limit)
}
