package transport

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kkkkikiki/textclaim/internal/model"
	"github.com/kkkkikiki/textclaim/internal/service"
)

// CampaignService is the behavior served under textclaim.v1.CampaignService
type CampaignService interface {
	CreateCampaign(ctx context.Context, in service.NewCampaign) (*model.Campaign, error)
	CreateProduct(ctx context.Context, in service.NewProduct) (*model.Product, []model.Text, error)
	UpdateCampaignStatus(ctx context.Context, id uuid.UUID, status model.CampaignStatus) (*model.Campaign, error)
	GetCampaign(ctx context.Context, id uuid.UUID) (*service.CampaignOverview, error)
}

// CampaignServer implements the campaign administration RPCs
type CampaignServer struct {
	svc      CampaignService
	validate *validator.Validate
}

// NewCampaignServer creates a new CampaignServer
func NewCampaignServer(svc CampaignService) *CampaignServer {
	return &CampaignServer{
		svc:      svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// NewCampaignServiceHandler returns the mount path and handler of the
// campaign service
func NewCampaignServiceHandler(s *CampaignServer, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateCampaignProcedure, connect.NewUnaryHandler(CreateCampaignProcedure, s.CreateCampaign, opts...))
	mux.Handle(CreateProductProcedure, connect.NewUnaryHandler(CreateProductProcedure, s.CreateProduct, opts...))
	mux.Handle(UpdateCampaignStatusProcedure, connect.NewUnaryHandler(UpdateCampaignStatusProcedure, s.UpdateCampaignStatus, opts...))
	mux.Handle(GetCampaignProcedure, connect.NewUnaryHandler(GetCampaignProcedure, s.GetCampaign, opts...))
	return "/" + CampaignServiceName + "/", mux
}

// CreateCampaign creates a new campaign
func (s *CampaignServer) CreateCampaign(
	ctx context.Context,
	req *connect.Request[CreateCampaignRequest],
) (*connect.Response[CampaignResponse], error) {
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, err
	}

	campaign, err := s.svc.CreateCampaign(ctx, service.NewCampaign{
		Name:         req.Msg.Name,
		Status:       model.CampaignStatus(req.Msg.Status),
		Instructions: req.Msg.Instructions,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&CampaignResponse{Campaign: campaign}), nil
}

// CreateProduct adds a product and its text variants to a campaign
func (s *CampaignServer) CreateProduct(
	ctx context.Context,
	req *connect.Request[CreateProductRequest],
) (*connect.Response[CreateProductResponse], error) {
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, err
	}

	product, texts, err := s.svc.CreateProduct(ctx, service.NewProduct{
		CampaignID: parseID(req.Msg.CampaignID),
		Name:       req.Msg.Name,
		Position:   req.Msg.Position,
		Link:       req.Msg.Link,
		Texts:      req.Msg.Texts,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&CreateProductResponse{Product: product, Texts: texts}), nil
}

// UpdateCampaignStatus changes the lifecycle status of a campaign
func (s *CampaignServer) UpdateCampaignStatus(
	ctx context.Context,
	req *connect.Request[UpdateCampaignStatusRequest],
) (*connect.Response[CampaignResponse], error) {
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, err
	}

	campaign, err := s.svc.UpdateCampaignStatus(ctx, parseID(req.Msg.CampaignID), model.CampaignStatus(req.Msg.Status))
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&CampaignResponse{Campaign: campaign}), nil
}

// GetCampaign returns a campaign with its per product inventory
func (s *CampaignServer) GetCampaign(
	ctx context.Context,
	req *connect.Request[GetCampaignRequest],
) (*connect.Response[GetCampaignResponse], error) {
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, err
	}

	overview, err := s.svc.GetCampaign(ctx, parseID(req.Msg.CampaignID))
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&GetCampaignResponse{
		Campaign:  overview.Campaign,
		Inventory: overview.Inventory,
	}), nil
}
