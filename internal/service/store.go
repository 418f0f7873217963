package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kkkkikiki/textclaim/internal/model"
)

// Store is the persistence the services depend on. repository.Store is the
// PostgreSQL implementation.
type Store interface {
	CreateCampaign(ctx context.Context, campaign *model.Campaign) error
	GetCampaign(ctx context.Context, id uuid.UUID) (*model.Campaign, error)
	GetActiveCampaign(ctx context.Context) (*model.Campaign, error)
	UpdateCampaignStatus(ctx context.Context, id uuid.UUID, status model.CampaignStatus) (*model.Campaign, error)
	ListProducts(ctx context.Context, campaignID uuid.UUID) ([]model.Product, error)
	GetInventory(ctx context.Context, campaignID uuid.UUID) ([]model.ProductInventory, error)
	CreateProduct(ctx context.Context, product *model.Product, contents []string) ([]model.Text, error)

	ClaimText(ctx context.Context, assignmentID, productID uuid.UUID) (*model.Text, error)
	ReleaseTexts(ctx context.Context, ids []uuid.UUID) (int64, error)
	ReleaseOrphanedTexts(ctx context.Context, claimedBefore time.Time) (int64, error)

	FindAssignment(ctx context.Context, campaignID uuid.UUID, email string) (*model.Assignment, error)
	GetAssignment(ctx context.Context, id uuid.UUID) (*model.Assignment, error)
	CreateAssignment(ctx context.Context, assignment *model.Assignment) (bool, error)
	DeleteAssignment(ctx context.Context, id uuid.UUID) error
	MarkViewed(ctx context.Context, id uuid.UUID) (bool, error)
	CompleteAssignment(ctx context.Context, id uuid.UUID, completedAt time.Time) (*model.Assignment, bool, error)

	CreateAssignmentText(ctx context.Context, link *model.AssignmentText) error
	DeleteAssignmentTexts(ctx context.Context, assignmentID uuid.UUID) (int64, error)
	ListAssignmentTexts(ctx context.Context, assignmentID uuid.UUID) ([]model.AssignmentTextDetail, error)
	RecordCopy(ctx context.Context, linkID uuid.UUID, copiedAt time.Time) (*model.AssignmentText, error)
	RecordUpload(ctx context.Context, linkID uuid.UUID, uploadURL string) (*model.AssignmentText, error)

	CreateNotification(ctx context.Context, n *model.Notification) error
	ListPendingNotifications(ctx context.Context, after model.NotificationCursor, limit int) ([]model.PendingNotification, error)
}
