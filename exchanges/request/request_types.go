package request

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Errors
var (
	ErrRequestSystemIsNil = errors.New("request system is nil")

	errRequestFunctionIsNil     = errors.New("request function is nil")
	errRequestItemNil           = errors.New("request item is nil")
	errInvalidPath              = errors.New("invalid path")
	errFailedToRetryRequest     = errors.New("failed to retry request")
	errContextRequired          = errors.New("context is required")
	errCannotReuseHTTPClient    = errors.New("cannot reuse http client")
	errNoHTTPClient             = errors.New("http client is nil")
	errSpecificRateLimiterIsNil = errors.New("specific rate limiter is nil")
	errRequesterNameEmpty       = errors.New("requester name cannot be empty")
	errJobsInFlight             = errors.New("requester has in-flight jobs")
)

const (
	headerRetryAfter  = "Retry-After"
	headerRequestID   = "X-Request-Id"
	defaultMaxRetries = 3
	maxBodyLogLength  = 2048
)

// AuthType signals whether a request carries a signature
type AuthType uint8

// Request authentication types
const (
	UnauthenticatedRequest AuthType = iota
	AuthenticatedRequest
)

func (a AuthType) String() string {
	if a == AuthenticatedRequest {
		return "authenticated"
	}
	return "unauthenticated"
}

// Item is a single HTTP request attempt
type Item struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    io.Reader
	Result  any
	Verbose bool
}

// Generate builds a fresh Item for every attempt so bodies can be re-read on retry
type Generate func() (*Item, error)

// Backoff returns how long to wait before retry attempt n
type Backoff func(n int) time.Duration

// RetryPolicy decides whether a response or transport error is retryable
type RetryPolicy func(resp *http.Response, err error) (bool, error)

// StatusError is returned for non-2xx responses and keeps the raw body for callers to interpret
type StatusError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unsuccessful HTTP status code: %d raw response: %s", e.StatusCode, e.Body)
}
