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

// AssignmentService is the behavior served under textclaim.v1.AssignmentService.
// *service.AssignmentService implements it.
type AssignmentService interface {
	CreateAssignment(ctx context.Context, email string) (*service.AssignmentDetail, error)
	CreateAssignmentForCampaign(ctx context.Context, email string, campaignID uuid.UUID) (*service.AssignmentDetail, error)
	GetAssignment(ctx context.Context, id uuid.UUID) (*service.AssignmentDetail, error)
	Progress(ctx context.Context, id uuid.UUID) ([]model.AssignmentTextDetail, error)
	RecordCopy(ctx context.Context, linkID uuid.UUID) (*model.AssignmentText, error)
	RecordUpload(ctx context.Context, linkID uuid.UUID, uploadURL string) (*model.AssignmentText, error)
	CompleteAssignment(ctx context.Context, id uuid.UUID) (*service.CompletionResult, error)
}

// AssignmentServer implements the assignment RPCs
type AssignmentServer struct {
	svc      AssignmentService
	validate *validator.Validate
}

// NewAssignmentServer creates a new AssignmentServer
func NewAssignmentServer(svc AssignmentService) *AssignmentServer {
	return &AssignmentServer{
		svc:      svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// NewAssignmentServiceHandler returns the mount path and handler of the
// assignment service
func NewAssignmentServiceHandler(s *AssignmentServer, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateAssignmentProcedure, connect.NewUnaryHandler(CreateAssignmentProcedure, s.CreateAssignment, opts...))
	mux.Handle(GetAssignmentProcedure, connect.NewUnaryHandler(GetAssignmentProcedure, s.GetAssignment, opts...))
	mux.Handle(RecordCopyProcedure, connect.NewUnaryHandler(RecordCopyProcedure, s.RecordCopy, opts...))
	mux.Handle(RecordUploadProcedure, connect.NewUnaryHandler(RecordUploadProcedure, s.RecordUpload, opts...))
	mux.Handle(CompleteAssignmentProcedure, connect.NewUnaryHandler(CompleteAssignmentProcedure, s.CompleteAssignment, opts...))
	return "/" + AssignmentServiceName + "/", mux
}

// CreateAssignment returns the caller's assignment, creating it on first use
func (s *AssignmentServer) CreateAssignment(
	ctx context.Context,
	req *connect.Request[CreateAssignmentRequest],
) (*connect.Response[AssignmentResponse], error) {
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, err
	}

	var (
		detail *service.AssignmentDetail
		err    error
	)
	if req.Msg.CampaignID == "" {
		detail, err = s.svc.CreateAssignment(ctx, req.Msg.Email)
	} else {
		detail, err = s.svc.CreateAssignmentForCampaign(ctx, req.Msg.Email, parseID(req.Msg.CampaignID))
	}
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(assignmentResponse(detail)), nil
}

// GetAssignment returns an assignment and marks it viewed
func (s *AssignmentServer) GetAssignment(
	ctx context.Context,
	req *connect.Request[GetAssignmentRequest],
) (*connect.Response[AssignmentResponse], error) {
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, err
	}

	detail, err := s.svc.GetAssignment(ctx, parseID(req.Msg.AssignmentID))
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(assignmentResponse(detail)), nil
}

// RecordCopy stamps the copy time of a link
func (s *AssignmentServer) RecordCopy(
	ctx context.Context,
	req *connect.Request[RecordCopyRequest],
) (*connect.Response[LinkResponse], error) {
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, err
	}

	link, err := s.svc.RecordCopy(ctx, parseID(req.Msg.LinkID))
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&LinkResponse{Link: link}), nil
}

// RecordUpload stores the upload reference of a link
func (s *AssignmentServer) RecordUpload(
	ctx context.Context,
	req *connect.Request[RecordUploadRequest],
) (*connect.Response[LinkResponse], error) {
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, err
	}

	link, err := s.svc.RecordUpload(ctx, parseID(req.Msg.LinkID), req.Msg.UploadURL)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&LinkResponse{Link: link}), nil
}

// CompleteAssignment finishes an assignment once every text has been copied
func (s *AssignmentServer) CompleteAssignment(
	ctx context.Context,
	req *connect.Request[CompleteAssignmentRequest],
) (*connect.Response[CompleteAssignmentResponse], error) {
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, err
	}
	id := parseID(req.Msg.AssignmentID)

	links, err := s.svc.Progress(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !service.AllCopied(links) {
		return nil, toConnectError(errNotAllCopied)
	}

	result, err := s.svc.CompleteAssignment(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}

	res := &CompleteAssignmentResponse{
		Assignment:   result.Assignment,
		Notification: result.Notification,
	}
	if result.NotificationError != nil {
		res.NotificationError = result.NotificationError.Error()
	}
	return connect.NewResponse(res), nil
}

func assignmentResponse(detail *service.AssignmentDetail) *AssignmentResponse {
	texts := detail.Texts
	if texts == nil {
		texts = []model.AssignmentTextDetail{}
	}
	return &AssignmentResponse{
		Assignment: detail.Assignment,
		Texts:      texts,
		AllCopied:  service.AllCopied(texts),
	}
}
