package replan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ppiankov/tripcheck/internal/planner"
	"github.com/ppiankov/tripcheck/internal/trip"
)

const maxResponseBytes = 1 << 20

// Client calls a remote replanning service over HTTP. Requests are retried
// on transport errors and 5xx, never on 4xx.
type Client struct {
	url        string
	headers    map[string]string
	client     *http.Client
	maxRetries int
	backoff    time.Duration
}

// NewClient creates a Client from cfg.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("replan: url is required for http mode")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 1
	}
	return &Client{
		url:        cfg.URL,
		headers:    cfg.Headers,
		client:     &http.Client{Timeout: timeout},
		maxRetries: retries,
		backoff:    time.Second,
	}, nil
}

// Replan implements planner.Replanner.
func (c *Client) Replan(ctx context.Context, req planner.PlanRequest) (*trip.ChangePlannerResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		for k, v := range c.headers {
			httpReq.Header.Set(k, v)
		}

		resp, err := c.client.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return decodeResponse(data)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return nil, fmt.Errorf("replanner rejected request: HTTP %d", resp.StatusCode)
		default:
			lastErr = fmt.Errorf("replanner server error: HTTP %d", resp.StatusCode)
		}
	}

	return nil, fmt.Errorf("replanner failed after %d attempts: %w", c.maxRetries, lastErr)
}

func decodeResponse(data []byte) (*trip.ChangePlannerResponse, error) {
	var out trip.ChangePlannerResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.ChangeID == "" {
		return nil, fmt.Errorf("decode response: missing changeId")
	}
	return &out, nil
}
