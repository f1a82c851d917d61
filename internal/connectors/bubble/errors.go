package bubble

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
)

// APIError represents a Bubble Data API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bubble: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// Unwrap maps API status codes onto domain sentinels so callers can use
// errors.Is without knowing about this package.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrAuthFailed
	case http.StatusNotFound:
		return domain.ErrObjectTypeNotFound
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	}
	return nil
}

// RateLimitError indicates the API asked us to back off.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("bubble: rate limit exceeded, retry after %s", e.RetryAfter)
}

// Unwrap allows errors.Is(err, domain.ErrRateLimited).
func (e *RateLimitError) Unwrap() error {
	return domain.ErrRateLimited
}

// IsRetryable reports whether an error is transient: timeouts, connection
// resets, 5xx responses and rate limiting. Auth and not-found failures are
// never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrAuthFailed) || errors.Is(err, domain.ErrObjectTypeNotFound) {
		return false
	}
	if errors.Is(err, domain.ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// Connection resets and similar transport failures arrive as
	// *url.Error wrapping an opaque error; treat the rest as transient.
	return true
}
