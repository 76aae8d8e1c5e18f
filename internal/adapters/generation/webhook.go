// Package generation posts AI plan generation jobs to the automation webhook.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	domain "dersplan/internal/domain/generation"
)

// ErrNotConfigured is returned when no webhook URL was configured.
var ErrNotConfigured = errors.New("generation webhook is not configured")

// maxBodyInError caps how much of a rejection body is kept.
const maxBodyInError = 512

// RejectedError is a non-2xx answer from the webhook.
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("generation webhook returned %d", e.StatusCode)
	}
	return fmt.Sprintf("generation webhook returned %d: %s", e.StatusCode, e.Body)
}

// Submitter hands a job to the generation workflow.
// A nil error means the job was accepted, not that a plan exists yet.
type Submitter interface {
	Submit(ctx context.Context, job domain.Job) error
}

// WebhookClient implements Submitter with a JSON POST.
type WebhookClient struct {
	url  string
	http *http.Client
}

// NewWebhookClient creates a WebhookClient for url.
// POST: a timeout <= 0 leaves the call unbounded; only ctx can end it
func NewWebhookClient(url string, timeout time.Duration) *WebhookClient {
	client := &http.Client{}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return &WebhookClient{url: url, http: client}
}

// Submit posts job as JSON.
// PRE: job has been validated
// POST: nil on any 2xx; *RejectedError on other statuses; wrapped transport error otherwise
func (c *WebhookClient) Submit(ctx context.Context, job domain.Job) error {
	if c.url == "" {
		return ErrNotConfigured
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("generation webhook request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyInError))
	slog.Info("generation_event", "event", "webhook_called",
		"status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RejectedError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}
	return nil
}
