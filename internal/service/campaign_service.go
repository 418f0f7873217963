package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kkkkikiki/textclaim/internal/model"
)

// NewCampaign is the input for CreateCampaign
type NewCampaign struct {
	Name         string               `validate:"required,max=200"`
	Status       model.CampaignStatus `validate:"omitempty,oneof=active paused completed"`
	Instructions *string
}

// NewProduct is the input for CreateProduct. A zero Position appends the
// product after the campaign's last one.
type NewProduct struct {
	CampaignID uuid.UUID `validate:"required"`
	Name       string    `validate:"required,max=200"`
	Position   int       `validate:"gte=0"`
	Link       *string   `validate:"omitempty,url"`
	Texts      []string  `validate:"required,min=1"`
}

// CampaignOverview is a campaign with per product inventory
type CampaignOverview struct {
	Campaign  *model.Campaign          `json:"campaign"`
	Inventory []model.ProductInventory `json:"inventory"`
}

// CampaignService administers campaigns, products and their text variants
type CampaignService struct {
	store    Store
	validate *validator.Validate
	logger   *zap.Logger
}

// NewCampaignService creates a new CampaignService
func NewCampaignService(store Store, logger *zap.Logger) *CampaignService {
	if logger == nil {
		logger = zap.L()
	}
	return &CampaignService{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.Named("campaign"),
	}
}

// CreateCampaign creates a campaign, active unless another status is given
func (s *CampaignService) CreateCampaign(ctx context.Context, in NewCampaign) (*model.Campaign, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}

	campaign := &model.Campaign{
		Name:         in.Name,
		Status:       in.Status,
		Instructions: in.Instructions,
	}
	if err := s.store.CreateCampaign(ctx, campaign); err != nil {
		return nil, err
	}

	s.logger.Info("campaign created",
		zap.Stringer("campaign_id", campaign.ID), zap.String("status", string(campaign.Status)))
	return campaign, nil
}

// CreateProduct adds a product with its text variants, numbered from 1 in
// the given order. Blank texts are rejected.
func (s *CampaignService) CreateProduct(ctx context.Context, in NewProduct) (*model.Product, []model.Text, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}

	contents := make([]string, 0, len(in.Texts))
	for i, text := range in.Texts {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, nil, fmt.Errorf("%w: text %d is empty", model.ErrInvalidInput, i+1)
		}
		contents = append(contents, text)
	}

	product := &model.Product{
		CampaignID: in.CampaignID,
		Name:       in.Name,
		Position:   in.Position,
		Link:       in.Link,
	}
	texts, err := s.store.CreateProduct(ctx, product, contents)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("product created",
		zap.Stringer("campaign_id", product.CampaignID),
		zap.Stringer("product_id", product.ID),
		zap.Int("position", product.Position),
		zap.Int("texts", len(texts)))
	return product, texts, nil
}

// UpdateCampaignStatus moves a campaign to another lifecycle status
func (s *CampaignService) UpdateCampaignStatus(ctx context.Context, id uuid.UUID, status model.CampaignStatus) (*model.Campaign, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown campaign status %q", model.ErrInvalidInput, status)
	}
	return s.store.UpdateCampaignStatus(ctx, id, status)
}

// GetCampaign returns a campaign with assigned and total text counts per product
func (s *CampaignService) GetCampaign(ctx context.Context, id uuid.UUID) (*CampaignOverview, error) {
	campaign, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}

	inventory, err := s.store.GetInventory(ctx, id)
	if err != nil {
		return nil, err
	}

	return &CampaignOverview{Campaign: campaign, Inventory: inventory}, nil
}
