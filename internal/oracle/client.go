package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// SpinPath is the route of the spin endpoint.
const SpinPath = "/api/v1/spin"

// HealthPath is the route of the liveness endpoint.
const HealthPath = "/health"

// ClientConfig holds configuration for the HTTP oracle client.
type ClientConfig struct {
	// BaseURL is the oracle's root, e.g. "http://localhost:8080".
	BaseURL string

	// MaxRetries is the maximum number of retry attempts for retryable errors.
	// Defaults to 3 if zero.
	MaxRetries int

	// BaseRetryDelay is the initial delay before the first retry.
	// Defaults to 200ms if zero.
	BaseRetryDelay time.Duration

	// MaxRetryDelay caps the exponential backoff delay.
	// Defaults to 2 seconds if zero.
	MaxRetryDelay time.Duration

	// Timeout bounds each request. Defaults to 5 seconds if zero.
	Timeout time.Duration

	// HTTPClient allows injecting a custom HTTP client (useful for testing).
	HTTPClient *http.Client

	// MaxOuterFrames bounds the outer phase of paths the oracle sends.
	MaxOuterFrames int
}

// Client is an Oracle backed by a remote HTTP oracle.
type Client struct {
	config ClientConfig
	http   *http.Client
}

var _ Oracle = (*Client)(nil)

// NewClient creates a new HTTP oracle client with the given configuration.
func NewClient(cfg ClientConfig) *Client {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseRetryDelay == 0 {
		cfg.BaseRetryDelay = 200 * time.Millisecond
	}
	if cfg.MaxRetryDelay == 0 {
		cfg.MaxRetryDelay = 2 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		config: cfg,
		http:   httpClient,
	}
}

// HTTPError represents a non-200 response from the oracle.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("oracle: HTTP %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true for server errors (5xx) and rate limits.
func (e *HTTPError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// errorBody is the JSON error envelope written by Server.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Spin requests an outcome from the remote oracle.
// Network errors and 5xx responses are retried with exponential backoff.
func (c *Client) Spin(ctx context.Context, req SpinRequest) (SpinResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return SpinResponse{}, fmt.Errorf("oracle: marshal request: %w", err)
	}

	var resp SpinResponse
	err = retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		data, err := c.do(ctx, http.MethodPost, SpinPath, body)
		if err != nil {
			return classify(err)
		}
		if err := json.Unmarshal(data, &resp); err != nil {
			return fmt.Errorf("oracle: invalid response JSON: %w", err)
		}
		return nil
	})
	if err != nil {
		return SpinResponse{}, err
	}

	if err := resp.Validate(c.config.MaxOuterFrames); err != nil {
		return SpinResponse{}, err
	}
	return resp, nil
}

// Health checks that the oracle is reachable.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, HealthPath, nil)
	return err
}

func (c *Client) backoff() retry.Backoff {
	b := retry.NewExponential(c.config.BaseRetryDelay)
	b = retry.WithCappedDuration(c.config.MaxRetryDelay, b)
	return retry.WithMaxRetries(uint64(c.config.MaxRetries), b)
}

// classify marks transient failures as retryable.
func classify(err error) error {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.IsRetryable() {
			return retry.RetryableError(err)
		}
		return mapStatus(httpErr)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	// Transport errors: connection refused, reset, timeouts.
	return retry.RetryableError(err)
}

// mapStatus converts well-known client errors back to sentinel errors.
func mapStatus(e *HTTPError) error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %w", ErrInvalidRequest, e)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %w", ErrInsufficientBalance, e)
	default:
		return e
	}
}

// do sends a single request and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("oracle: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oracle: http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("oracle: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(data))
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil && eb.Error != "" {
			msg = eb.Error
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}
	return data, nil
}
