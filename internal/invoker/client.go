// Package invoker sends JSON requests to the canonical REST collection and
// collapses every failure into a coarse per-verb RequestError.
package invoker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/pitabwire/canonico/internal/config"
	"github.com/pitabwire/canonico/internal/observability"
	"github.com/pitabwire/canonico/model"
)

const maxResponseBytes = 10 << 20

// RequestError is the only error returned by Get, Post, Put and Patch. It
// names the verb and nothing else; the underlying cause is logged, not
// exposed.
type RequestError struct {
	Method string
}

func (e *RequestError) Error() string {
	return "error performing " + e.Method + " request"
}

// StatusError describes a non-2xx response. It is logged as the cause of a
// RequestError and never returned to callers.
type StatusError struct {
	StatusCode int
	StatusText string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend responded %d %s", e.StatusCode, e.StatusText)
}

// MetricsRecorder receives per-request and breaker telemetry.
type MetricsRecorder interface {
	RecordBackendRequest(method, status string, duration time.Duration)
	SetBreakerState(state int)
}

// Client holds the HTTP client, default headers, optional circuit breaker and
// outbound credentials for the canonical collection.
type Client struct {
	http    *http.Client
	headers map[string]string
	tokens  oauth2.TokenSource
	breaker *CircuitBreaker
	metrics MetricsRecorder
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics records request counts, latencies and breaker state.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Client) { c.metrics = m }
}

// WithHTTPClient replaces the default pooled HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenSource sets the credentials attached as the Authorization header.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// NewClient creates a Client from backend configuration. The circuit breaker
// is only installed when a failure threshold is configured.
func NewClient(cfg config.BackendConfig, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxConnsPerHost:     50,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		headers: cfg.Headers,
		logger:  logger.Named("invoker"),
	}

	cb := cfg.CircuitBreaker
	if cb.FailureThreshold > 0 {
		c.breaker = NewCircuitBreaker(cb.FailureThreshold, cb.SuccessThreshold, cb.Timeout)
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.breaker != nil {
		c.breaker.OnStateChange(func(s BreakerState) {
			c.logger.Warn("circuit breaker state changed", zap.Stringer("state", s))
			if c.metrics != nil {
				c.metrics.SetBreakerState(int(s))
			}
		})
	}
	return c
}

// HealthCheck reports an error while the circuit breaker is open.
func (c *Client) HealthCheck(context.Context) error {
	if c.breaker != nil && c.breaker.State() == BreakerOpen {
		return ErrBreakerOpen
	}
	return nil
}

// Get sends a GET request and decodes the response body into T.
func Get[T any](ctx context.Context, c *Client, url string, headers map[string]string) (T, error) {
	return send[T](ctx, c, http.MethodGet, url, nil, false, headers)
}

// Post sends body as JSON with a POST request and decodes the response into T.
func Post[T any](ctx context.Context, c *Client, url string, body any, headers map[string]string) (T, error) {
	return send[T](ctx, c, http.MethodPost, url, body, true, headers)
}

// Put sends body as JSON with a PUT request and decodes the response into T.
func Put[T any](ctx context.Context, c *Client, url string, body any, headers map[string]string) (T, error) {
	return send[T](ctx, c, http.MethodPut, url, body, true, headers)
}

// Patch sends body as JSON with a PATCH request and decodes the response into T.
func Patch[T any](ctx context.Context, c *Client, url string, body any, headers map[string]string) (T, error) {
	return send[T](ctx, c, http.MethodPatch, url, body, true, headers)
}

func send[T any](ctx context.Context, c *Client, method, url string, body any, withBody bool, headers map[string]string) (T, error) {
	var out T

	ctx, span := observability.StartClientSpan(ctx, method, url)
	data, status, err := c.do(ctx, method, url, body, withBody, headers)
	if status > 0 {
		span.SetAttributes(semconv.HTTPResponseStatusCode(status))
	}
	// An empty 2xx body leaves out at its zero value.
	if err == nil && len(bytes.TrimSpace(data)) > 0 {
		if derr := json.Unmarshal(data, &out); derr != nil {
			err = fmt.Errorf("decode response: %w", derr)
		}
	}
	observability.EndSpanWithError(span, err)

	if err != nil {
		var zero T
		return zero, c.fail(ctx, method, url, err)
	}
	return out, nil
}

// do performs a single round trip and returns the raw 2xx body.
func (c *Client) do(ctx context.Context, method, url string, body any, withBody bool, headers map[string]string) ([]byte, int, error) {
	start := time.Now()
	status := "error"
	defer func() {
		if c.metrics != nil {
			c.metrics.RecordBackendRequest(method, status, time.Since(start))
		}
	}()

	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			return nil, 0, err
		}
	}

	var reader io.Reader
	if withBody {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header, err = c.buildHeaders(ctx, headers)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.recordFailure()
		return nil, 0, fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.recordFailure()
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	// 4xx responses are the caller's fault, not an infrastructure failure.
	switch {
	case resp.StatusCode >= 500:
		c.recordFailure()
	case resp.StatusCode < 400:
		c.recordSuccess()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &StatusError{
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
		}
	}
	return data, resp.StatusCode, nil
}

// buildHeaders merges headers in increasing precedence: JSON defaults,
// configured headers, credentials, correlation and trace propagation, then
// caller headers. Later writes win.
func (c *Client) buildHeaders(ctx context.Context, caller map[string]string) (http.Header, error) {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")

	for k, v := range c.headers {
		h.Set(sanitizeHeader(k), sanitizeHeader(v))
	}

	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("obtain token: %w", err)
		}
		h.Set("Authorization", tok.Type()+" "+sanitizeHeader(tok.AccessToken))
	}

	if rctx := model.RequestContextFrom(ctx); rctx != nil && rctx.CorrelationID != "" {
		h.Set("X-Correlation-Id", sanitizeHeader(rctx.CorrelationID))
	}
	observability.InjectTraceHeaders(ctx, h)

	for k, v := range caller {
		h.Set(sanitizeHeader(k), sanitizeHeader(v))
	}
	return h, nil
}

// fail logs the cause and collapses it into a RequestError.
func (c *Client) fail(ctx context.Context, method, url string, cause error) error {
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("url", url),
		zap.Error(cause),
	}
	var se *StatusError
	if errors.As(cause, &se) {
		fields = append(fields,
			zap.Int("status_code", se.StatusCode),
			zap.String("status_text", se.StatusText),
		)
	}
	observability.RequestLogger(ctx, c.logger).Error("backend request failed", fields...)
	return &RequestError{Method: method}
}

func (c *Client) recordFailure() {
	if c.breaker != nil {
		c.breaker.RecordFailure()
	}
}

func (c *Client) recordSuccess() {
	if c.breaker != nil {
		c.breaker.RecordSuccess()
	}
}

// statusText returns the reason phrase sent by the server, falling back to
// the standard text for the code.
func statusText(resp *http.Response) string {
	if text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); text != "" && text != resp.Status {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// sanitizeHeader strips newlines and carriage returns to prevent header injection.
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}
