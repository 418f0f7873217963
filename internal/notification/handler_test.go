package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dispatcherMock struct {
	dispatchFn func(ctx context.Context, req Request) (*Result, error)
	calls      []Request
}

func (m *dispatcherMock) Dispatch(ctx context.Context, req Request) (*Result, error) {
	m.calls = append(m.calls, req)
	return m.dispatchFn(ctx, req)
}

func postTrigger(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, TriggerPath, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func TestHandlerSuccess(t *testing.T) {
	id := uuid.New()
	d := &dispatcherMock{dispatchFn: func(context.Context, Request) (*Result, error) {
		return &Result{Success: true, Status: 200}, nil
	}}

	rec, out := postTrigger(t, NewHandler(d, nil),
		`{"assignmentId":"`+id.String()+`","campaignName":"Fall Promo","userEmail":"user@example.com"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "Notification processed", out["message"])
	require.Len(t, d.calls, 1)
	assert.Equal(t, id, d.calls[0].AssignmentID)
	assert.Equal(t, "user@example.com", d.calls[0].UserEmail)
}

func TestHandlerNotConfigured(t *testing.T) {
	d := &dispatcherMock{dispatchFn: func(context.Context, Request) (*Result, error) {
		return nil, ErrNotConfigured
	}}

	rec, out := postTrigger(t, NewHandler(d, nil), `{"assignmentId":"`+uuid.NewString()+`","campaignName":"Promo"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ErrNotConfigured.Error(), out["error"])
}

func TestHandlerMirrorsProviderStatus(t *testing.T) {
	d := &dispatcherMock{dispatchFn: func(context.Context, Request) (*Result, error) {
		return &Result{Success: false, Status: 422, Message: "Failed to send email via Resend", Body: `{"error":"invalid"}`}, nil
	}}

	rec, out := postTrigger(t, NewHandler(d, nil), `{"assignmentId":"`+uuid.NewString()+`","campaignName":"Promo"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Failed to send email via Resend", out["error"])
	assert.Equal(t, `{"error":"invalid"}`, out["details"])
}

func TestHandlerUnexpectedError(t *testing.T) {
	d := &dispatcherMock{dispatchFn: func(context.Context, Request) (*Result, error) {
		return nil, errors.New("database is down")
	}}

	rec, out := postTrigger(t, NewHandler(d, nil), `{"assignmentId":"`+uuid.NewString()+`","campaignName":"Promo"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "database is down", out["error"])
}

func TestHandlerRejectsInvalidBodies(t *testing.T) {
	d := &dispatcherMock{dispatchFn: func(context.Context, Request) (*Result, error) {
		t.Fatal("dispatcher must not be called")
		return nil, nil
	}}
	h := NewHandler(d, nil)

	for name, body := range map[string]string{
		"malformed":    `{"assignmentId":`,
		"missing id":   `{"campaignName":"Promo"}`,
		"bad id":       `{"assignmentId":"abc","campaignName":"Promo"}`,
		"bad email":    `{"assignmentId":"` + uuid.NewString() + `","campaignName":"Promo","userEmail":"nope"}`,
		"missing name": `{"assignmentId":"` + uuid.NewString() + `"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec, out := postTrigger(t, h, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid request body", out["error"])
		})
	}
}

func TestHandlerRejectsGet(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(&dispatcherMock{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, TriggerPath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
