package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Error variables for HTTP client errors
var (
	// ErrMaxRetriesExceeded is returned when all retry attempts have failed
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	// ErrRequestTimeout is returned when a request times out
	ErrRequestTimeout = errors.New("request timeout")
	// ErrNotFound is returned when the registry has no entry for the requested name
	ErrNotFound = errors.New("not found in registry")
	// ErrUnexpectedStatus is returned for any other non-200 response
	ErrUnexpectedStatus = errors.New("unexpected response status")
)

// DefaultUserAgent identifies feedstockrot to registries (crates.io rejects anonymous clients)
const DefaultUserAgent = "feedstockrot (+https://github.com/obentoo/feedstockrot)"

// ClientConfig holds configuration for the registry HTTP client.
type ClientConfig struct {
	// Timeout is the timeout for each individual request (default: 30s)
	Timeout time.Duration
	// MaxRetries is the number of extra attempts on 5xx/429 and transport errors (default: 0)
	MaxRetries int
	// BaseDelay is the initial delay before the first retry (default: 1s)
	BaseDelay time.Duration
	// MaxDelay is the maximum delay between retries (default: 4s)
	MaxDelay time.Duration
	// RateLimit caps requests per second across all registries; 0 disables limiting
	RateLimit float64
	// UserAgent is sent with every request
	UserAgent string
}

// DefaultClientConfig returns the default client configuration.
// A single attempt is made per request.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:    30 * time.Second,
		MaxRetries: 0,
		BaseDelay:  1 * time.Second,
		MaxDelay:   4 * time.Second,
		UserAgent:  DefaultUserAgent,
	}
}

// HTTPClient wraps an HTTP client with a per-request timeout, optional retry
// with exponential backoff and optional rate limiting.
type HTTPClient struct {
	client  *http.Client
	config  ClientConfig
	limiter *rate.Limiter
	// delayFunc allows overriding the delay function for testing
	delayFunc func(time.Duration)
}

// NewHTTPClient creates a client with the default configuration.
func NewHTTPClient() *HTTPClient {
	return NewHTTPClientWithConfig(DefaultClientConfig())
}

// NewHTTPClientWithConfig creates a client with a custom configuration.
func NewHTTPClientWithConfig(config ClientConfig) *HTTPClient {
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	c := &HTTPClient{
		client: &http.Client{
			Timeout: config.Timeout,
		},
		config:    config,
		delayFunc: time.Sleep,
	}
	if config.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}
	return c
}

// SetHTTPClient sets a custom underlying HTTP client (useful for testing).
func (c *HTTPClient) SetHTTPClient(client *http.Client) {
	c.client = client
}

// SetDelayFunc sets a custom delay function (useful for testing).
func (c *HTTPClient) SetDelayFunc(fn func(time.Duration)) {
	c.delayFunc = fn
}

// Config returns the current client configuration.
func (c *HTTPClient) Config() ClientConfig {
	return c.config
}

// Get performs a GET request, retrying on transport errors and 5xx/429
// responses when MaxRetries > 0.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt > 0 {
			c.delayFunc(c.calculateDelay(attempt))
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			if isTimeoutError(err) {
				lastErr = fmt.Errorf("%w: %v", ErrRequestTimeout, err)
			}
			continue
		}

		if c.shouldRetry(resp.StatusCode) && c.config.MaxRetries > 0 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: status %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	if c.config.MaxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, lastErr)
}

// Fetch performs a GET request and returns the body of a 200 response.
// A 404 maps to ErrNotFound and any other status to ErrUnexpectedStatus.
func (c *HTTPClient) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("GET %s: %w", url, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("GET %s: %w: %d", url, ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// calculateDelay calculates the delay for a given retry attempt.
// Uses exponential backoff: delay = baseDelay * 2^(attempt-1)
func (c *HTTPClient) calculateDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	multiplier := 1 << (attempt - 1)
	delay := c.config.BaseDelay * time.Duration(multiplier)

	if delay > c.config.MaxDelay {
		delay = c.config.MaxDelay
	}

	return delay
}

// shouldRetry reports whether a status code is worth another attempt.
func (c *HTTPClient) shouldRetry(statusCode int) bool {
	if statusCode >= 500 && statusCode < 600 {
		return true
	}
	return statusCode == http.StatusTooManyRequests
}

// isTimeoutError checks if an error is a timeout error.
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	type timeoutError interface {
		Timeout() bool
	}
	var te timeoutError
	if errors.As(err, &te) {
		return te.Timeout()
	}
	return false
}
