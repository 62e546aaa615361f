package request

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// EndpointLimit identifies a rate limit bucket; API packages define their own values
type EndpointLimit uint16

// Weight is the number of tokens a request consumes
type Weight uint8

// RateLimitDefinitions maps endpoint buckets to their limiters
type RateLimitDefinitions map[EndpointLimit]*RateLimiterWithWeight

// RateLimiterWithWeight is a token bucket which charges Weight tokens per request
type RateLimiterWithWeight struct {
	*rate.Limiter
	Weight
}

// NewRateLimit returns a rate.Limit for the number of actions per interval. Zero values give an infinite limit
func NewRateLimit(interval time.Duration, actions int) rate.Limit {
	if interval <= 0 || actions <= 0 {
		return rate.Inf
	}
	return rate.Limit(actions) / rate.Limit(interval.Seconds())
}

// NewRateLimitWithWeight returns a weighted limiter whose burst covers one interval
func NewRateLimitWithWeight(interval time.Duration, actions int, weight Weight) *RateLimiterWithWeight {
	return &RateLimiterWithWeight{
		Limiter: rate.NewLimiter(NewRateLimit(interval, actions), max(actions, int(weight), 1)),
		Weight:  weight,
	}
}

// RateLimit blocks until Weight tokens are available or ctx is done
func (r *RateLimiterWithWeight) RateLimit(ctx context.Context) error {
	reservation := r.ReserveN(time.Now(), int(r.Weight))
	if !reservation.OK() {
		return fmt.Errorf("weight %d exceeds limiter burst %d", r.Weight, r.Burst())
	}
	delay := reservation.Delay()
	if delay == 0 {
		return nil
	}
	if dl, ok := ctx.Deadline(); ok && dl.Before(time.Now().Add(delay)) {
		reservation.Cancel()
		return fmt.Errorf("rate limit delay of %s will exceed deadline: %w", delay, context.DeadlineExceeded)
	}
	timer := time.NewTimer(delay)
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		timer.Stop()
		reservation.Cancel()
		return ctx.Err()
	}
}

// initiateRateLimit waits on the limiter registered for the endpoint. A
// requester without definitions is unlimited
func (r *Requester) initiateRateLimit(ctx context.Context, e EndpointLimit) error {
	if r.limiter == nil {
		return nil
	}
	rl, ok := r.limiter[e]
	if !ok || rl == nil {
		return fmt.Errorf("cannot rate limit request %w for endpoint %d", errSpecificRateLimiterIsNil, e)
	}
	return rl.RateLimit(ctx)
}
