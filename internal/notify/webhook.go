package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"intake-backend/internal/cv"
)

// Metadata describes the processed submission alongside the CV data.
type Metadata struct {
	ApplicantName      string `json:"applicant_name"`
	Email              string `json:"email"`
	Status             string `json:"status"`
	CVProcessed        bool   `json:"cv_processed"`
	ProcessedTimestamp string `json:"processed_timestamp"`
}

// Payload is the JSON body POSTed to the webhook receiver.
type Payload struct {
	CVData   cv.StructuredCV `json:"cv_data"`
	Metadata Metadata        `json:"metadata"`
}

// Notifier delivers processed-submission notifications.
type Notifier interface {
	Notify(ctx context.Context, payload Payload) error
}

const candidateEmailHeader = "X-Candidate-Email"

// WebhookNotifier POSTs the payload to a fixed endpoint. Delivery is a
// single best-effort attempt; a non-2xx response is an error.
type WebhookNotifier struct {
	url            string
	candidateEmail string
	httpClient     *http.Client
}

// NewWebhookNotifier constructs a notifier for the given endpoint.
func NewWebhookNotifier(url, candidateEmail string) (*WebhookNotifier, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("webhook url is required")
	}
	return &WebhookNotifier{
		url:            url,
		candidateEmail: strings.TrimSpace(candidateEmail),
		httpClient:     &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Notify sends the payload. The caller decides whether a failure is
// fatal; no local retry happens here.
func (n *WebhookNotifier) Notify(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.candidateEmail != "" {
		req.Header.Set(candidateEmailHeader, n.candidateEmail)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post %s: %w", n.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook post %s: unexpected status %d", n.url, resp.StatusCode)
	}
	return nil
}

var _ Notifier = (*WebhookNotifier)(nil)
