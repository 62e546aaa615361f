package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/thrasher-corp/gct-hyperliquid/common"
	"github.com/thrasher-corp/gct-hyperliquid/exchanges/hyperliquid"
	"github.com/thrasher-corp/gct-hyperliquid/exchanges/hyperliquid/kmssigner"
	"github.com/thrasher-corp/gct-hyperliquid/exchanges/request"
	"github.com/thrasher-corp/gct-hyperliquid/log"
)

const requesterName = "hyperliquid"

var newKMSSigner = func(ctx context.Context, region, keyID string) (hyperliquid.AddressSigner, error) {
	s, err := kmssigner.NewFromConfig(ctx, region, keyID, log.Logger().Named("kms"))
	if err != nil {
		return nil, err
	}
	return s, nil
}

// BaseURL returns the REST URL, defaulting to the chain's public endpoint.
func (c *Config) BaseURL(chain hyperliquid.SigningChain) string {
	if c.APIURL != "" {
		return c.APIURL
	}
	return hyperliquid.APIURLForChain(chain)
}

// WebsocketURL returns the websocket URL, defaulting to the chain's public
// endpoint.
func (c *Config) WebsocketURL(chain hyperliquid.SigningChain) string {
	if c.WSURL != "" {
		return c.WSURL
	}
	return hyperliquid.WSURLForChain(chain)
}

// NewRequester returns a rate limited requester with its own HTTP client.
func (c *Config) NewRequester() (*request.Requester, error) {
	timeout := c.HTTPTimeout
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}
	return request.New(requesterName,
		common.NewHTTPClientWithTimeout(timeout),
		request.WithLimiter(hyperliquid.RateLimits(c.RateLimit.InfoPerSecond, c.RateLimit.ExchangePerSecond)),
		request.WithMaxRetries(c.Retry.MaxRetries),
		request.WithBackoff(request.LinearBackoff(c.Retry.Backoff, c.Retry.MaxBackoff)),
		request.WithUserAgent("hlsign"))
}

// NewRESTSubmitter returns a REST submitter for the configured chain.
func (c *Config) NewRESTSubmitter() (*hyperliquid.RESTSubmitter, error) {
	chain, err := c.Chain()
	if err != nil {
		return nil, err
	}
	r, err := c.NewRequester()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create requester")
	}
	return hyperliquid.NewRESTSubmitter(c.BaseURL(chain), r, c.Verbose)
}

// NewSubmitter returns the configured transport and a func releasing its
// connection or HTTP client.
func (c *Config) NewSubmitter(ctx context.Context) (hyperliquid.Submitter, func() error, error) {
	if c.Transport == TransportWebsocket {
		chain, err := c.Chain()
		if err != nil {
			return nil, nil, err
		}
		ws := hyperliquid.NewWebsocketSubmitter(c.WebsocketURL(chain))
		if err := ws.Connect(ctx); err != nil {
			return nil, nil, err
		}
		return ws, ws.Close, nil
	}
	rest, err := c.NewRESTSubmitter()
	if err != nil {
		return nil, nil, err
	}
	return rest, rest.Close, nil
}

// NewInfoClient returns a metadata client over REST for the configured dex.
func (c *Config) NewInfoClient() (*hyperliquid.InfoClient, error) {
	rest, err := c.NewRESTSubmitter()
	if err != nil {
		return nil, err
	}
	return hyperliquid.NewInfoClient(rest, c.Dex)
}

// NewClient binds signer and submitter to the configured chain, vault and
// expiry. now anchors the expiry offset; extra options are applied last.
func (c *Config) NewClient(signer hyperliquid.Signer, submitter hyperliquid.Submitter, now time.Time, extra ...hyperliquid.ClientOption) (*hyperliquid.Client, error) {
	chain, err := c.Chain()
	if err != nil {
		return nil, err
	}
	var opts []hyperliquid.ClientOption
	if v := c.Vault(); v != nil {
		opts = append(opts, hyperliquid.WithVault(*v))
	}
	if e := c.ExpiresAfterFrom(now); e != nil {
		opts = append(opts, hyperliquid.WithExpiry(*e))
	}
	return hyperliquid.NewClient(chain, signer, submitter, append(opts, extra...)...)
}
