// Package request sends rate limited HTTP requests with retries
package request

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"
	"github.com/thrasher-corp/gct-hyperliquid/encoding/json"
	"github.com/thrasher-corp/gct-hyperliquid/log"
)

// Requester owns an HTTP client and the limiters for a single API
type Requester struct {
	httpClient  *http.Client
	limiter     RateLimitDefinitions
	name        string
	userAgent   string
	maxRetries  int
	jobs        atomic.Int32
	backoff     Backoff
	retryPolicy RetryPolicy
}

// RequesterOption configures a Requester
type RequesterOption func(*Requester)

// WithLimiter sets the rate limit definitions
func WithLimiter(def RateLimitDefinitions) RequesterOption {
	return func(r *Requester) {
		r.limiter = def
	}
}

// WithBackoff sets the retry backoff
func WithBackoff(b Backoff) RequesterOption {
	return func(r *Requester) {
		r.backoff = b
	}
}

// WithRetryPolicy sets the retry policy
func WithRetryPolicy(p RetryPolicy) RequesterOption {
	return func(r *Requester) {
		r.retryPolicy = p
	}
}

// WithMaxRetries sets the number of retries after the first attempt
func WithMaxRetries(n int) RequesterOption {
	return func(r *Requester) {
		r.maxRetries = max(n, 0)
	}
}

// WithUserAgent sets the User-Agent sent when an Item does not set one
func WithUserAgent(ua string) RequesterOption {
	return func(r *Requester) {
		r.userAgent = ua
	}
}

// New returns a Requester owning httpClient
func New(name string, httpClient *http.Client, opts ...RequesterOption) (*Requester, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errRequesterNameEmpty
	}
	if err := claimClient(httpClient); err != nil {
		return nil, fmt.Errorf("cannot set up a new requester for %s: %w", name, err)
	}
	r := &Requester{
		httpClient:  httpClient,
		name:        name,
		backoff:     DefaultBackoff(),
		retryPolicy: DefaultRetryPolicy,
		maxRetries:  defaultMaxRetries,
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// SendPayload rate limits, sends and retries the request built by newRequest
func (r *Requester) SendPayload(ctx context.Context, ep EndpointLimit, newRequest Generate, requestType AuthType) error {
	if r == nil {
		return ErrRequestSystemIsNil
	}
	if ctx == nil {
		return errContextRequired
	}
	if newRequest == nil {
		return errRequestFunctionIsNil
	}
	r.jobs.Add(1)
	defer r.jobs.Add(-1)
	return r.doRequest(ctx, ep, newRequest, requestType)
}

// Shutdown releases the owned HTTP client so another Requester may claim it
func (r *Requester) Shutdown() error {
	if r == nil {
		return ErrRequestSystemIsNil
	}
	if r.jobs.Load() != 0 {
		return errJobsInFlight
	}
	releaseClient(r.httpClient)
	return nil
}

func (i *Item) validateRequest(ctx context.Context, r *Requester) (*http.Request, error) {
	if i == nil {
		return nil, errRequestItemNil
	}
	if i.Path == "" {
		return nil, errInvalidPath
	}
	req, err := http.NewRequestWithContext(ctx, i.Method, i.Path, i.Body)
	if err != nil {
		return nil, err
	}
	for k, v := range i.Headers {
		req.Header.Add(k, v)
	}
	if r.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	return req, nil
}

func (r *Requester) doRequest(ctx context.Context, endpoint EndpointLimit, newRequest Generate, requestType AuthType) error {
	for attempt := 1; ; attempt++ {
		if err := r.initiateRateLimit(ctx, endpoint); err != nil {
			return fmt.Errorf("failed to rate limit HTTP request: %w", err)
		}

		p, err := newRequest()
		if err != nil {
			return err
		}
		req, err := p.validateRequest(ctx, r)
		if err != nil {
			return err
		}
		requestID, err := uuid.NewV4()
		if err != nil {
			return err
		}
		req.Header.Set(headerRequestID, requestID.String())

		if p.Verbose {
			log.Debugf(log.RequestSys, "%s %s request %s %s id=%s", r.name, requestType, req.Method, p.Path, requestID)
		}

		started := time.Now()
		resp, err := r.httpClient.Do(req)
		code := 0
		if resp != nil {
			code = resp.StatusCode
		}
		observeAttempt(r.name, req.Method, code, started)

		if retry, checkErr := r.retryPolicy(resp, err); checkErr != nil {
			if resp != nil {
				_ = resp.Body.Close()
			}
			return checkErr
		} else if retry {
			if err == nil {
				_ = resp.Body.Close()
			}
			if attempt > r.maxRetries {
				if err != nil {
					return fmt.Errorf("%w: %w", errFailedToRetryRequest, err)
				}
				return fmt.Errorf("%w: %s", errFailedToRetryRequest, resp.Status)
			}
			retriesTotal.WithLabelValues(r.name).Inc()
			delay := max(RetryAfter(resp, time.Now()), r.backoff(attempt))
			if dl, ok := ctx.Deadline(); ok && dl.Before(time.Now().Add(delay)) {
				if err != nil {
					return fmt.Errorf("deadline would be exceeded by retry, err: %w", err)
				}
				return fmt.Errorf("deadline would be exceeded by retry, status: %s", resp.Status)
			}
			if p.Verbose {
				log.Warnf(log.RequestSys, "%s request %s retrying in %s, attempt %d", r.name, requestID, delay, attempt)
			}
			if delay > 0 {
				timer := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				case <-timer.C:
				}
			}
			continue
		}
		if err != nil {
			return err
		}

		contents, err := io.ReadAll(resp.Body)
		closeErr := resp.Body.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			log.Warnf(log.RequestSys, "%s failed to close response body: %v", r.name, closeErr)
		}
		if p.Verbose {
			log.Debugf(log.RequestSys, "%s request %s returned %d: %s", r.name, requestID, resp.StatusCode, truncateBody(contents))
		}
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: contents}
		}
		if p.Result == nil || len(contents) == 0 {
			return nil
		}
		if err := json.Unmarshal(contents, p.Result); err != nil {
			return fmt.Errorf("%s unable to unmarshal response: %w", r.name, err)
		}
		return nil
	}
}

func truncateBody(b []byte) string {
	if len(b) > maxBodyLogLength {
		return string(b[:maxBodyLogLength]) + "..."
	}
	return string(b)
}
