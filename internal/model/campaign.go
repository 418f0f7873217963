package model

import (
	"time"

	"github.com/google/uuid"
)

// CampaignStatus is the lifecycle state of a campaign
type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

// Valid reports whether s is one of the known campaign states
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignActive, CampaignPaused, CampaignCompleted:
		return true
	}
	return false
}

// Campaign represents a marketing campaign in the database
type Campaign struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	Status       CampaignStatus `db:"status" json:"status"`
	Instructions *string        `db:"instructions" json:"instructions,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// Product is an item within a campaign that needs one text per assignment.
// Position is 1-based and unique within the campaign.
type Product struct {
	ID         uuid.UUID `db:"id" json:"id"`
	CampaignID uuid.UUID `db:"campaign_id" json:"campaign_id"`
	Name       string    `db:"name" json:"name"`
	Position   int       `db:"position" json:"position"`
	Link       *string   `db:"link" json:"link,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ProductInventory counts the claimed and unclaimed texts of a product
type ProductInventory struct {
	ProductID   uuid.UUID `db:"product_id" json:"product_id"`
	ProductName string    `db:"product_name" json:"product_name"`
	Position    int       `db:"position" json:"position"`
	Total       int       `db:"total" json:"total"`
	Assigned    int       `db:"assigned" json:"assigned"`
}

// Remaining returns the number of texts still available to claim
func (p ProductInventory) Remaining() int {
	return p.Total - p.Assigned
}
