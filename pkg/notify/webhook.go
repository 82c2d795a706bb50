// Package notify delivers job completion callbacks over HTTP.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/echovine/speechscore/pkg/logging"
)

// Payload is the webhook body. Result is set on success, Error on failure.
// ProcessingSeconds is the time spent before a failure; a successful result
// carries its own processing time.
type Payload struct {
	JobID             string  `json:"job_id"`
	Status            string  `json:"status"`
	Result            any     `json:"result,omitempty"`
	Error             string  `json:"error,omitempty"`
	ProcessingSeconds float64 `json:"processing_time_seconds,omitempty"`
}

// Notifier posts a job outcome to a callback URL.
type Notifier interface {
	Completed(ctx context.Context, webhookURL, jobID string, result any) error
	Failed(ctx context.Context, webhookURL, jobID string, jobErr error, elapsedSeconds float64) error
}

// WebhookNotifier delivers each payload with a single POST attempt. Callbacks
// carry final results; a receiver that is down gets no retry, the job status
// endpoint remains the source of truth.
type WebhookNotifier struct {
	client *http.Client
	logger logging.Logger
}

// NewWebhookNotifier creates a notifier with the given delivery timeout.
func NewWebhookNotifier(timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{
		client: &http.Client{Timeout: timeout},
		logger: logging.WithFields(logging.Fields{
			"component": "webhook_notifier",
		}),
	}
}

// Completed reports a finished job with its analysis result.
func (n *WebhookNotifier) Completed(ctx context.Context, webhookURL, jobID string, result any) error {
	return n.post(ctx, webhookURL, Payload{
		JobID:  jobID,
		Status: "completed",
		Result: result,
	})
}

// Failed reports a job that could not be analyzed, with the time it ran
// before failing.
func (n *WebhookNotifier) Failed(ctx context.Context, webhookURL, jobID string, jobErr error, elapsedSeconds float64) error {
	return n.post(ctx, webhookURL, Payload{
		JobID:             jobID,
		Status:            "failed",
		Error:             jobErr.Error(),
		ProcessingSeconds: elapsedSeconds,
	})
}

func (n *WebhookNotifier) post(ctx context.Context, webhookURL string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	n.logger.Debug("webhook delivered", logging.Fields{
		"job_id": payload.JobID,
		"status": payload.Status,
		"code":   resp.StatusCode,
	})

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook receiver returned HTTP %d", resp.StatusCode)
	}
	return nil
}
