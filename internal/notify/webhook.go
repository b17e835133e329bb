// Package notify delivers finished-recording notices to an HTTP endpoint.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/SecCamCloud/seccamcloud/internal/logger"
	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

const (
	defaultRetryMax     = 3
	defaultRetryWaitMin = 1 * time.Second
	defaultRetryWaitMax = 5 * time.Second
)

// StatusError is returned when the endpoint answers with a 4xx or 5xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned error status: %d", e.StatusCode)
}

// Webhook posts each notice as JSON to a fixed URL, retrying transient failures.
type Webhook struct {
	url        string
	httpClient *http.Client
}

// NewWebhook creates a webhook client. maxRetries <= 0 uses the default of 3.
func NewWebhook(url string, maxRetries int) *Webhook {
	return newWebhook(url, maxRetries, defaultRetryWaitMin, defaultRetryWaitMax)
}

func newWebhook(url string, maxRetries int, waitMin, waitMax time.Duration) *Webhook {
	if maxRetries <= 0 {
		maxRetries = defaultRetryMax
	}
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = maxRetries
	retryClient.RetryWaitMin = waitMin
	retryClient.RetryWaitMax = waitMax
	retryClient.Logger = nil // Silence default debug logger

	return &Webhook{url: url, httpClient: retryClient.StandardClient()}
}

// Process implements worker.Processor.
func (w *Webhook) Process(ctx context.Context, notice models.RecordingNotice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("failed to marshal notice: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Notice-ID", notice.ID)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &StatusError{StatusCode: resp.StatusCode}
	}

	logger.L().Debug("Webhook accepted notice", "notice_id", notice.ID, "status", resp.StatusCode)
	return nil
}
