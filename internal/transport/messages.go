package transport

import (
	"github.com/kkkkikiki/textclaim/internal/model"
	"github.com/kkkkikiki/textclaim/internal/notification"
)

const (
	AssignmentServiceName = "textclaim.v1.AssignmentService"
	CampaignServiceName   = "textclaim.v1.CampaignService"
)

// Procedure paths
const (
	CreateAssignmentProcedure   = "/" + AssignmentServiceName + "/CreateAssignment"
	GetAssignmentProcedure      = "/" + AssignmentServiceName + "/GetAssignment"
	RecordCopyProcedure         = "/" + AssignmentServiceName + "/RecordCopy"
	RecordUploadProcedure       = "/" + AssignmentServiceName + "/RecordUpload"
	CompleteAssignmentProcedure = "/" + AssignmentServiceName + "/CompleteAssignment"

	CreateCampaignProcedure       = "/" + CampaignServiceName + "/CreateCampaign"
	CreateProductProcedure        = "/" + CampaignServiceName + "/CreateProduct"
	UpdateCampaignStatusProcedure = "/" + CampaignServiceName + "/UpdateCampaignStatus"
	GetCampaignProcedure          = "/" + CampaignServiceName + "/GetCampaign"
)

// CreateAssignmentRequest asks for an assignment. Without CampaignID the
// first active campaign is used.
type CreateAssignmentRequest struct {
	Email      string `json:"email" validate:"required"`
	CampaignID string `json:"campaignId,omitempty" validate:"omitempty,uuid"`
}

type GetAssignmentRequest struct {
	AssignmentID string `json:"assignmentId" validate:"required,uuid"`
}

// AssignmentResponse carries an assignment with its texts in product order
type AssignmentResponse struct {
	Assignment *model.Assignment            `json:"assignment"`
	Texts      []model.AssignmentTextDetail `json:"texts"`
	AllCopied  bool                         `json:"allCopied"`
}

type RecordCopyRequest struct {
	LinkID string `json:"linkId" validate:"required,uuid"`
}

type RecordUploadRequest struct {
	LinkID    string `json:"linkId" validate:"required,uuid"`
	UploadURL string `json:"uploadUrl"`
}

type LinkResponse struct {
	Link *model.AssignmentText `json:"link"`
}

type CompleteAssignmentRequest struct {
	AssignmentID string `json:"assignmentId" validate:"required,uuid"`
}

// CompleteAssignmentResponse reports the completed assignment. Notification
// problems never fail the call; they are described in NotificationError.
type CompleteAssignmentResponse struct {
	Assignment        *model.Assignment    `json:"assignment"`
	Notification      *notification.Result `json:"notification,omitempty"`
	NotificationError string               `json:"notificationError,omitempty"`
}

type CreateCampaignRequest struct {
	Name         string  `json:"name" validate:"required"`
	Status       string  `json:"status,omitempty"`
	Instructions *string `json:"instructions,omitempty"`
}

type CampaignResponse struct {
	Campaign *model.Campaign `json:"campaign"`
}

type CreateProductRequest struct {
	CampaignID string   `json:"campaignId" validate:"required,uuid"`
	Name       string   `json:"name" validate:"required"`
	Position   int      `json:"position,omitempty"`
	Link       *string  `json:"link,omitempty"`
	Texts      []string `json:"texts" validate:"required,min=1"`
}

type CreateProductResponse struct {
	Product *model.Product `json:"product"`
	Texts   []model.Text   `json:"texts"`
}

type UpdateCampaignStatusRequest struct {
	CampaignID string `json:"campaignId" validate:"required,uuid"`
	Status     string `json:"status" validate:"required"`
}

type GetCampaignRequest struct {
	CampaignID string `json:"campaignId" validate:"required,uuid"`
}

type GetCampaignResponse struct {
	Campaign  *model.Campaign          `json:"campaign"`
	Inventory []model.ProductInventory `json:"inventory"`
}
