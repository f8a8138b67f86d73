// internal/notify/webhook.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github-star-history/internal/model"
)

// WebhookDispatcher POSTs the terminal job snapshot to a caller-supplied URL.
// Single attempt, no retry queue: a failed delivery is logged by the caller
// and otherwise forgotten.
type WebhookDispatcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewWebhookDispatcher creates a dispatcher with a bounded request timeout.
func NewWebhookDispatcher(timeout time.Duration, logger *slog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Notify delivers the payload. The response body is discarded; only the
// status class matters.
func (d *WebhookDispatcher) Notify(ctx context.Context, endpoint string, status model.JobStatus) error {
	payload := notificationPayload{
		JobID:           status.ID.String(),
		FinalState:      string(status.State),
		PagesProcessed:  status.PagesProcessed,
		EventsProcessed: status.EventsProcessed,
		Error:           status.Error,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}

	d.logger.Debug("Job notification delivered", "job_id", payload.JobID, "endpoint", endpoint)
	return nil
}

type notificationPayload struct {
	JobID           string `json:"job_id"`
	FinalState      string `json:"final_state"`
	PagesProcessed  int    `json:"pages_processed"`
	EventsProcessed int    `json:"events_processed"`
	Error           string `json:"error,omitempty"`
}
