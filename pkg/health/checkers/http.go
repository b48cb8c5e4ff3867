package checkers

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPChecker issues a GET and fails on transport errors or 5xx responses.
// It is used to probe the configured model provider endpoint.
type HTTPChecker struct {
	url    string
	client *http.Client
	name   string
}

// NewHTTPChecker defaults name to url. A nil client gets a 10s timeout.
func NewHTTPChecker(url, name string, client *http.Client) *HTTPChecker {
	if name == "" {
		name = url
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPChecker{url: url, name: name, client: client}
}

// Name returns the name of this check.
func (h *HTTPChecker) Name() string { return h.name }

// Check issues a GET and fails on transport errors or 5xx responses.
func (h *HTTPChecker) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("unhealthy status code: %d", resp.StatusCode)
	}
	return nil
}
