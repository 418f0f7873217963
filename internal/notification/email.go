// Package notification formats assignment summaries and delivers them to the
// administrator through a transactional email API.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DefaultAPIURL is the Resend send-email endpoint
const DefaultAPIURL = "https://api.resend.com/emails"

const providerRejectedMessage = "Failed to send email via Resend"

// Email is one message to send
type Email struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Result describes the outcome of a send. Status is the provider's HTTP
// status, or 500 when the request never got a response.
type Result struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
	Body    string `json:"body,omitempty"`
}

// EmailClient posts emails to the provider API
type EmailClient struct {
	httpClient *http.Client
	apiURL     string
}

// NewEmailClient creates a client for the given endpoint. An empty apiURL
// selects DefaultAPIURL.
func NewEmailClient(httpClient *http.Client, apiURL string) *EmailClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &EmailClient{httpClient: httpClient, apiURL: apiURL}
}

type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send delivers one email. It never returns an error: every failure is
// folded into the Result.
func (c *EmailClient) Send(ctx context.Context, apiKey string, email Email) Result {
	payload, err := json.Marshal(sendEmailRequest{
		From:    email.From,
		To:      []string{email.To},
		Subject: email.Subject,
		HTML:    email.HTML,
	})
	if err != nil {
		return transportFailure(fmt.Errorf("encode email: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return transportFailure(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportFailure(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportFailure(fmt.Errorf("read provider response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{
			Success: false,
			Status:  resp.StatusCode,
			Message: providerRejectedMessage,
			Body:    string(body),
		}
	}

	return Result{Success: true, Status: resp.StatusCode, Body: string(body)}
}

func transportFailure(err error) Result {
	return Result{Success: false, Status: http.StatusInternalServerError, Message: err.Error()}
}
