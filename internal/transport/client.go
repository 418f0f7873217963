package transport

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// AssignmentClient calls textclaim.v1.AssignmentService
type AssignmentClient struct {
	createAssignment   *connect.Client[CreateAssignmentRequest, AssignmentResponse]
	getAssignment      *connect.Client[GetAssignmentRequest, AssignmentResponse]
	recordCopy         *connect.Client[RecordCopyRequest, LinkResponse]
	recordUpload       *connect.Client[RecordUploadRequest, LinkResponse]
	completeAssignment *connect.Client[CompleteAssignmentRequest, CompleteAssignmentResponse]
}

// NewAssignmentClient creates a client for the service at baseURL
func NewAssignmentClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AssignmentClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &AssignmentClient{
		createAssignment:   connect.NewClient[CreateAssignmentRequest, AssignmentResponse](httpClient, baseURL+CreateAssignmentProcedure, opts...),
		getAssignment:      connect.NewClient[GetAssignmentRequest, AssignmentResponse](httpClient, baseURL+GetAssignmentProcedure, opts...),
		recordCopy:         connect.NewClient[RecordCopyRequest, LinkResponse](httpClient, baseURL+RecordCopyProcedure, opts...),
		recordUpload:       connect.NewClient[RecordUploadRequest, LinkResponse](httpClient, baseURL+RecordUploadProcedure, opts...),
		completeAssignment: connect.NewClient[CompleteAssignmentRequest, CompleteAssignmentResponse](httpClient, baseURL+CompleteAssignmentProcedure, opts...),
	}
}

func (c *AssignmentClient) CreateAssignment(ctx context.Context, req *connect.Request[CreateAssignmentRequest]) (*connect.Response[AssignmentResponse], error) {
	return c.createAssignment.CallUnary(ctx, req)
}

func (c *AssignmentClient) GetAssignment(ctx context.Context, req *connect.Request[GetAssignmentRequest]) (*connect.Response[AssignmentResponse], error) {
	return c.getAssignment.CallUnary(ctx, req)
}

func (c *AssignmentClient) RecordCopy(ctx context.Context, req *connect.Request[RecordCopyRequest]) (*connect.Response[LinkResponse], error) {
	return c.recordCopy.CallUnary(ctx, req)
}

func (c *AssignmentClient) RecordUpload(ctx context.Context, req *connect.Request[RecordUploadRequest]) (*connect.Response[LinkResponse], error) {
	return c.recordUpload.CallUnary(ctx, req)
}

func (c *AssignmentClient) CompleteAssignment(ctx context.Context, req *connect.Request[CompleteAssignmentRequest]) (*connect.Response[CompleteAssignmentResponse], error) {
	return c.completeAssignment.CallUnary(ctx, req)
}

// CampaignClient calls textclaim.v1.CampaignService
type CampaignClient struct {
	createCampaign       *connect.Client[CreateCampaignRequest, CampaignResponse]
	createProduct        *connect.Client[CreateProductRequest, CreateProductResponse]
	updateCampaignStatus *connect.Client[UpdateCampaignStatusRequest, CampaignResponse]
	getCampaign          *connect.Client[GetCampaignRequest, GetCampaignResponse]
}

// NewCampaignClient creates a client for the service at baseURL
func NewCampaignClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *CampaignClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &CampaignClient{
		createCampaign:       connect.NewClient[CreateCampaignRequest, CampaignResponse](httpClient, baseURL+CreateCampaignProcedure, opts...),
		createProduct:        connect.NewClient[CreateProductRequest, CreateProductResponse](httpClient, baseURL+CreateProductProcedure, opts...),
		updateCampaignStatus: connect.NewClient[UpdateCampaignStatusRequest, CampaignResponse](httpClient, baseURL+UpdateCampaignStatusProcedure, opts...),
		getCampaign:          connect.NewClient[GetCampaignRequest, GetCampaignResponse](httpClient, baseURL+GetCampaignProcedure, opts...),
	}
}

func (c *CampaignClient) CreateCampaign(ctx context.Context, req *connect.Request[CreateCampaignRequest]) (*connect.Response[CampaignResponse], error) {
	return c.createCampaign.CallUnary(ctx, req)
}

func (c *CampaignClient) CreateProduct(ctx context.Context, req *connect.Request[CreateProductRequest]) (*connect.Response[CreateProductResponse], error) {
	return c.createProduct.CallUnary(ctx, req)
}

func (c *CampaignClient) UpdateCampaignStatus(ctx context.Context, req *connect.Request[UpdateCampaignStatusRequest]) (*connect.Response[CampaignResponse], error) {
	return c.updateCampaignStatus.CallUnary(ctx, req)
}

func (c *CampaignClient) GetCampaign(ctx context.Context, req *connect.Request[GetCampaignRequest]) (*connect.Response[GetCampaignResponse], error) {
	return c.getCampaign.CallUnary(ctx, req)
}
