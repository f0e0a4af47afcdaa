package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brown-library/bdr-scripts/pkg/logger"
)

// HTTPClient represents an HTTP client.
type HTTPClient struct {
	client *http.Client
}

// StatusError is returned when a response carries a non-200 status.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s: %s", e.StatusCode, e.URL, TruncateError(e.Body, 200))
}

// NewHTTPClient creates a new HTTP client with the provided timeout.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Close closes the HTTP client.
func (c *HTTPClient) Close() {
	c.client.CloseIdleConnections()
}

// DoRequest wraps the common HTTP request logic.
// It returns the full response for further handling.
func (c *HTTPClient) DoRequest(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// GetBytes performs a GET and returns the body of a 200 response.
// Any other status is returned as a *StatusError.
func (c *HTTPClient) GetBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.DoRequest(ctx, http.MethodGet, url, nil, nil)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url, Body: string(body)}
	}
	return body, nil
}

// ParseResponse helps unmarshal JSON responses.
func ParseResponse(resp *http.Response, target any) error {
	defer closeBody(resp)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, URL: resp.Request.URL.String(), Body: string(body)}
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decoding json: %w", err)
	}
	return nil
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		logger.Error("Failed to close response body: %v", err)
	}
}
