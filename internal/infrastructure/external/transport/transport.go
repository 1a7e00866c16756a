// Package transport is the HTTP layer shared by every backend adapter.
// It wraps net/http with retries, a per-backend circuit breaker and
// structured logging, and translates HTTP failures into the shared backend
// error taxonomy.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/papillon-hub/papillon-core/internal/domain/shared"
	"github.com/papillon-hub/papillon-core/pkg/circuitbreaker"
	"github.com/papillon-hub/papillon-core/pkg/logger"
	"github.com/papillon-hub/papillon-core/pkg/retry"
)

// Config holds the per-backend HTTP settings.
type Config struct {
	// Name identifies the backend in logs and circuit breaker state.
	Name string

	// BaseURL is prefixed to every request path.
	BaseURL string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// UserAgent is sent with every request; several school backends
	// reject requests without one.
	UserAgent string

	// MaxAttempts bounds retries of retryable failures.
	MaxAttempts int

	// Logger for structured logging. Defaults to the package default.
	Logger *logger.Logger
}

// DefaultConfig returns sensible defaults for an unofficial API client.
func DefaultConfig(name, baseURL string) Config {
	return Config{
		Name:        name,
		BaseURL:     baseURL,
		Timeout:     30 * time.Second,
		UserAgent:   "papillon-core/1.0",
		MaxAttempts: 3,
	}
}

// Client is a resilient JSON-over-HTTP client for one backend.
type Client struct {
	config  Config
	http    *http.Client
	breaker *circuitbreaker.CircuitBreaker
	retrier *retry.Retrier
	log     *logger.Logger
}

// NewClient creates a client for one backend.
func NewClient(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	log := config.Logger
	if log == nil {
		log = logger.Default()
	}

	return &Client{
		config:  config,
		http:    &http.Client{Timeout: config.Timeout},
		breaker: circuitbreaker.New(config.Name),
		retrier: retry.New(retry.WithMaxAttempts(config.MaxAttempts)),
		log:     log.With(logger.Component("transport"), logger.Service(config.Name)),
	}
}

// Request describes one backend call.
type Request struct {
	Method  string
	Path    string
	Query   map[string]string
	Headers map[string]string
	Body    any
}

// DoJSON executes the request and unmarshals the response body into result
// (skipped when result is nil). Transport failures and 5xx responses are
// retried and counted against the circuit breaker; 4xx responses are
// permanent.
func (c *Client) DoJSON(ctx context.Context, req Request, result any) error {
	start := time.Now()
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.doSingle(ctx, req, result)
		})
	})

	c.log.Debug("backend request",
		logger.Operation(req.Method+" "+req.Path),
		logger.Latency(time.Since(start)),
		logger.Err(err),
	)

	if err != nil {
		switch {
		case shared.IsExternalService(err):
			return err
		default:
			return shared.WrapError(c.config.Name, "Request", shared.ErrExternalService, "backend call failed", err)
		}
	}
	return nil
}

func (c *Client) doSingle(ctx context.Context, req Request, result any) error {
	fullURL := c.config.BaseURL + req.Path

	var bodyReader io.Reader
	if req.Body != nil {
		jsonBody, err := json.Marshal(req.Body)
		if err != nil {
			return retry.Permanent(fmt.Errorf("marshal body: %w", err))
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, bodyReader)
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return retry.Permanent(ctx.Err())
		}
		return retry.Retryable(shared.WrapError(c.config.Name, "Request", shared.ErrServiceUnavailable, "transport failure", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return retry.Retryable(fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return retry.Retryable(shared.ErrBackendRateLimited)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return retry.Permanent(shared.ErrUnauthenticated)
	case resp.StatusCode >= 500:
		return retry.Retryable(shared.WrapError(c.config.Name, "Request", shared.ErrServiceUnavailable,
			fmt.Sprintf("status %d", resp.StatusCode), nil))
	case resp.StatusCode >= 400:
		return retry.Permanent(shared.WrapError(c.config.Name, "Request", shared.ErrInvalidInput,
			fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(respBody, 200)), nil))
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return retry.Permanent(shared.WrapError(c.config.Name, "Parse", shared.ErrInvalidFormat, "decode response", err))
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
