package hyperliquid

import (
	"time"

	"github.com/thrasher-corp/gct-hyperliquid/exchanges/request"
)

// Default per second budgets for the public REST endpoints.
const (
	DefaultInfoRequestsPerSecond     = 10
	DefaultExchangeRequestsPerSecond = 10
)

// Rate limit buckets.
const (
	infoRateLimit request.EndpointLimit = iota + 1
	exchangeRateLimit
)

// RateLimits returns REST rate limits with the given per second budgets. A
// zero budget disables limiting for that endpoint.
func RateLimits(infoPerSecond, exchangePerSecond int) request.RateLimitDefinitions {
	return request.RateLimitDefinitions{
		infoRateLimit:     request.NewRateLimitWithWeight(time.Second, infoPerSecond, 1),
		exchangeRateLimit: request.NewRateLimitWithWeight(time.Second, exchangePerSecond, 1),
	}
}
