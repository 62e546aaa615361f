package request

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"
)

// DefaultRetryPolicy retries transport timeouts, 429s and responses carrying Retry-After
func DefaultRetryPolicy(resp *http.Response, err error) (bool, error) {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true, nil
		}
		return false, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return true, nil
	}
	if resp.Header.Get(headerRetryAfter) != "" {
		return true, nil
	}
	return false, nil
}

// RetryAfter parses the Retry-After header as whole seconds or an HTTP date
func RetryAfter(resp *http.Response, now time.Time) time.Duration {
	if resp == nil {
		return 0
	}
	after := resp.Header.Get(headerRetryAfter)
	if after == "" {
		return 0
	}
	if sec, err := strconv.ParseInt(after, 10, 32); err == nil {
		return time.Duration(sec) * time.Second
	}
	if when, err := http.ParseTime(after); err == nil {
		return when.Sub(now)
	}
	return 0
}

// LinearBackoff waits n*base between attempts, capped at limit
func LinearBackoff(base, limit time.Duration) Backoff {
	return func(n int) time.Duration {
		return min(time.Duration(n)*base, limit)
	}
}

// DefaultBackoff is a linear backoff of 100ms per attempt up to one second
func DefaultBackoff() Backoff {
	return LinearBackoff(100*time.Millisecond, time.Second)
}
