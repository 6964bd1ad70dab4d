// Package api is the HTTP client for the todo backend's REST surface:
// the full-state task fetch and the task mutation endpoints.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

var (
	// ErrUnauthorized is returned when the backend rejects the token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned when the addressed user or task does not exist.
	ErrNotFound = errors.New("not found")
)

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client is a thin HTTP client for the todo backend REST API. It
// handles Bearer token authentication, JSON marshaling, and automatic
// retry with exponential backoff on HTTP 429.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a client for the backend rooted at baseURL,
// e.g. http://localhost:8000.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
	}
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, "", nil, result)
}

// do builds the request, handles auth and rate limiting, and decodes
// the JSON response into result when non-nil. idempotencyKey, when set,
// is sent as a header so mutation retries are safe.
func (c *Client) do(ctx context.Context, method, path, idempotencyKey string, body, result any) error {
	endpoint := c.baseURL + path

	var payload []byte
	if body != nil {
		data, err := sonic.ConfigStd.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if idempotencyKey != "" {
			req.Header.Set("Idempotency-Key", idempotencyKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing %s %s: %w", method, path, err)
		}
		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429) on %s %s", method, path)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryAfterDuration(resp, attempt)):
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
		}

		if result == nil || len(respBody) == 0 {
			return nil
		}
		if err := sonic.ConfigStd.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding %s %s response: %w", method, path, err)
		}
		return nil
	}
	return fmt.Errorf("%s %s: retries exhausted: %w", method, path, lastErr)
}

// retryAfterDuration honors the Retry-After header when present and
// falls back to exponential backoff otherwise.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Second << attempt
}
