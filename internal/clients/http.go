// Package clients talks to the card marketplace, the active nation list and
// the Discord webhook.
package clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rotenaple/ns-fischer/pkg/retrier"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// APIError non-2xx response from a remote endpoint.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
	retryAfter time.Duration
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	if len(e.Body) > 0 {
		body := e.Body
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		msg += ": " + string(bytes.TrimSpace(body))
	}
	return msg
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// RetryAfter wait requested by the server, zero when none was given.
func (e *APIError) RetryAfter() time.Duration {
	return e.retryAfter
}

// IsRetryable reports whether err is worth another attempt. Transport failures
// are, API errors only for 429 and 5xx, cancellation never.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	return true
}

// transport shared request plumbing of all clients.
type transport struct {
	httpClient *http.Client
	retrier    *retrier.Retrier
	limiter    *rate.Limiter
	userAgent  string
	l          *zap.Logger
}

// Option configures a client.
type Option func(*transport)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *transport) {
		t.httpClient = c
	}
}

// WithRetrier replaces the default retry policy. A nil retrier disables retries.
func WithRetrier(r *retrier.Retrier) Option {
	return func(t *transport) {
		t.retrier = r
	}
}

// WithLimiter throttles outgoing requests. Clients sharing a limiter share the budget.
func WithLimiter(l *rate.Limiter) Option {
	return func(t *transport) {
		t.limiter = l
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(t *transport) {
		t.userAgent = ua
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *transport) {
		t.l = l
	}
}

func newTransport(opts []Option) transport {
	t := transport{
		httpClient: &http.Client{Timeout: defaultTimeout},
		l:          zap.NewNop(),
	}
	t.retrier = retrier.New(
		retrier.WithRetryIf(IsRetryable),
		retrier.WithOnRetry(func(attempt int, err error, wait time.Duration) {
			t.l.Warn("request failed, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		}),
	)

	for _, opt := range opts {
		opt(&t)
	}

	return t
}

// do sends the request built by newReq with retries and returns the body of a
// 2xx response.
func (t *transport) do(ctx context.Context, newReq func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	return retrier.DoWithData(t.retrier, ctx, func(ctx context.Context) ([]byte, error) {
		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				return nil, errors.Wrap(err, "rate limiter")
			}
		}

		req, err := newReq(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create HTTP request")
		}
		if t.userAgent != "" {
			req.Header.Set("User-Agent", t.userAgent)
		}

		resp, err := t.httpClient.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "HTTP request failed")
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read response body")
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Message:    http.StatusText(resp.StatusCode),
				Body:       body,
				retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			}
		}

		return body, nil
	})
}

func (t *transport) get(ctx context.Context, url string) ([]byte, error) {
	return t.do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
