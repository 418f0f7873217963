package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/kkkkikiki/textclaim/internal/model"
)

// DBExecutor interface for database operations (can be *sqlx.DB or *sqlx.Tx)
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

const (
	pqUniqueViolation     = pq.ErrorCode("23505")
	pqForeignKeyViolation = pq.ErrorCode("23503")
	pqNoDataFound         = pq.ErrorCode("P0002")
)

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

// CampaignRepository handles campaign and product data operations
type CampaignRepository struct{}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository() *CampaignRepository {
	return &CampaignRepository{}
}

const campaignColumns = `id, name, status, instructions, created_at, updated_at`

// CreateCampaign creates a new campaign
func (r *CampaignRepository) CreateCampaign(ctx context.Context, db DBExecutor, campaign *model.Campaign) error {
	query := `
		INSERT INTO campaigns (id, name, status, instructions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if campaign.ID == uuid.Nil {
		campaign.ID = uuid.New()
	}
	if campaign.Status == "" {
		campaign.Status = model.CampaignActive
	}
	now := time.Now()
	campaign.CreatedAt = now
	campaign.UpdatedAt = now

	_, err := db.ExecContext(ctx, query,
		campaign.ID, campaign.Name, campaign.Status, campaign.Instructions, campaign.CreatedAt, campaign.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	return nil
}

// GetCampaign retrieves a campaign by ID
func (r *CampaignRepository) GetCampaign(ctx context.Context, db DBExecutor, id uuid.UUID) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	var campaign model.Campaign
	if err := db.GetContext(ctx, &campaign, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return &campaign, nil
}

// GetActiveCampaign returns the oldest active campaign. Several campaigns may
// be active at once; the first one found wins.
func (r *CampaignRepository) GetActiveCampaign(ctx context.Context, db DBExecutor) (*model.Campaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE status = 'active'
		ORDER BY created_at ASC
		LIMIT 1
	`

	var campaign model.Campaign
	if err := db.GetContext(ctx, &campaign, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNoActiveCampaign
		}
		return nil, fmt.Errorf("failed to get active campaign: %w", err)
	}

	return &campaign, nil
}

// UpdateCampaignStatus changes the lifecycle status of a campaign
func (r *CampaignRepository) UpdateCampaignStatus(ctx context.Context, db DBExecutor, id uuid.UUID, status model.CampaignStatus) (*model.Campaign, error) {
	query := `
		UPDATE campaigns
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + campaignColumns

	var campaign model.Campaign
	if err := db.GetContext(ctx, &campaign, query, id, status, time.Now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to update campaign status: %w", err)
	}

	return &campaign, nil
}

// CreateProduct inserts a product. A zero Position places the product after
// the campaign's last one.
func (r *CampaignRepository) CreateProduct(ctx context.Context, db DBExecutor, product *model.Product) error {
	query := `
		INSERT INTO products (id, campaign_id, name, position, link, created_at)
		VALUES (
			$1, $2, $3,
			COALESCE(NULLIF($4::int, 0), (SELECT COALESCE(MAX(position), 0) + 1 FROM products WHERE campaign_id = $2)),
			$5, $6
		)
		RETURNING position
	`

	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt = time.Now()

	err := db.GetContext(ctx, &product.Position, query,
		product.ID, product.CampaignID, product.Name, product.Position, product.Link, product.CreatedAt)
	if err != nil {
		switch pqCode(err) {
		case pqForeignKeyViolation:
			return model.ErrCampaignNotFound
		case pqUniqueViolation:
			return fmt.Errorf("%w: position %d already used", model.ErrInvalidInput, product.Position)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// ListProducts returns the products of a campaign ordered by position
func (r *CampaignRepository) ListProducts(ctx context.Context, db DBExecutor, campaignID uuid.UUID) ([]model.Product, error) {
	query := `
		SELECT id, campaign_id, name, position, link, created_at
		FROM products
		WHERE campaign_id = $1
		ORDER BY position ASC
	`

	var products []model.Product
	if err := db.SelectContext(ctx, &products, query, campaignID); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

// GetInventory counts total and assigned texts for each product of a campaign
func (r *CampaignRepository) GetInventory(ctx context.Context, db DBExecutor, campaignID uuid.UUID) ([]model.ProductInventory, error) {
	query := `
		SELECT
			p.id AS product_id,
			p.name AS product_name,
			p.position,
			COUNT(t.id) AS total,
			COUNT(t.id) FILTER (WHERE t.is_assigned) AS assigned
		FROM products p
		LEFT JOIN texts t ON t.product_id = p.id
		WHERE p.campaign_id = $1
		GROUP BY p.id, p.name, p.position
		ORDER BY p.position ASC
	`

	var inventory []model.ProductInventory
	if err := db.SelectContext(ctx, &inventory, query, campaignID); err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}

	return inventory, nil
}
