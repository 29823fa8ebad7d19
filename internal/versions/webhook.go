package versions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	requestTimeout = 5 * time.Second
	maxRetries     = 3
)

// Webhook posts each version as JSON to a URL, retrying on 5xx.
type Webhook struct {
	URL     string
	Headers map[string]string

	client  *http.Client
	backoff time.Duration
}

// NewWebhook creates a Webhook sink.
func NewWebhook(url string, headers map[string]string) *Webhook {
	return &Webhook{
		URL:     url,
		Headers: headers,
		client:  &http.Client{Timeout: requestTimeout},
		backoff: time.Second,
	}
}

// CreateVersion implements Sink.
func (w *Webhook) CreateVersion(ctx context.Context, v Version) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * w.backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, val := range w.Headers {
			req.Header.Set(k, val)
		}

		resp, err := w.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return fmt.Errorf("webhook rejected: HTTP %d", resp.StatusCode)
		}
		lastErr = fmt.Errorf("webhook server error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("webhook failed after %d attempts: %w", maxRetries, lastErr)
}
