package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TriggerPath is where the notification trigger is mounted
const TriggerPath = "/functions/send-notification"

type dispatcher interface {
	Dispatch(ctx context.Context, req Request) (*Result, error)
}

type triggerRequest struct {
	AssignmentID string  `json:"assignmentId" validate:"required,uuid"`
	CampaignName string  `json:"campaignName" validate:"required"`
	UserEmail    *string `json:"userEmail,omitempty" validate:"omitempty,email"`
}

type triggerResponse struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

// Handler serves the inbound notification trigger
type Handler struct {
	dispatcher dispatcher
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewHandler creates a new Handler
func NewHandler(d dispatcher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		dispatcher: d,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, triggerResponse{Error: "method not allowed"})
		return
	}

	var body triggerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, triggerResponse{Error: "invalid request body", Details: err.Error()})
		return
	}
	if err := h.validate.Struct(body); err != nil {
		writeJSON(w, http.StatusBadRequest, triggerResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	req := Request{
		AssignmentID: uuid.MustParse(body.AssignmentID),
		CampaignName: body.CampaignName,
	}
	if body.UserEmail != nil {
		req.UserEmail = *body.UserEmail
	}

	h.logger.Info("processing notification",
		zap.Stringer("assignment_id", req.AssignmentID),
		zap.String("user_email", req.UserEmail))

	result, err := h.dispatcher.Dispatch(r.Context(), req)
	switch {
	case errors.Is(err, ErrNotConfigured):
		writeJSON(w, http.StatusInternalServerError, triggerResponse{Error: err.Error()})
	case err != nil:
		h.logger.Error("notification trigger failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, triggerResponse{Error: err.Error()})
	case !result.Success:
		message := result.Message
		if message == "" {
			message = "Failed to send notification email"
		}
		writeJSON(w, result.Status, triggerResponse{Error: message, Details: result.Body})
	default:
		writeJSON(w, http.StatusOK, triggerResponse{Success: true, Message: "Notification processed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
