package hyperliquid

import (
	"context"
	"fmt"
	"strings"
	"sync"

	gctcommon "github.com/thrasher-corp/gct-hyperliquid/common"
)

// AssetResolver maps a coin symbol to its numeric asset id.
type AssetResolver interface {
	AssetID(ctx context.Context, symbol string) (uint32, error)
}

// InfoClient queries the /info endpoint and resolves asset ids from the
// perp and spot metadata.
type InfoClient struct {
	rest *RESTSubmitter
	dex  string

	assetCacheMu sync.RWMutex
	assetCache   map[string]uint32
}

// NewInfoClient returns an info client on rest. dex selects a builder
// deployed perp dex; empty means the default dex.
func NewInfoClient(rest *RESTSubmitter, dex string) (*InfoClient, error) {
	if rest == nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, errSubmitterRequired)
	}
	return &InfoClient{rest: rest, dex: dex}, nil
}

type infoRequest struct {
	Type string `json:"type"`
	User string `json:"user,omitempty"`
	Dex  string `json:"dex,omitempty"`
	Oid  any    `json:"oid,omitempty"`
}

// GetMeta retrieves perpetual metadata.
func (c *InfoClient) GetMeta(ctx context.Context) (*MetaResponse, error) {
	resp := new(MetaResponse)
	if err := c.rest.sendInfo(ctx, infoRequest{Type: "meta", Dex: c.dex}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetSpotMeta retrieves spot metadata.
func (c *InfoClient) GetSpotMeta(ctx context.Context) (*SpotMetaResponse, error) {
	resp := new(SpotMetaResponse)
	if err := c.rest.sendInfo(ctx, infoRequest{Type: "spotMeta"}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetPerpDexs retrieves builder deployed perp dexs. The default dex is
// returned as nil.
func (c *InfoClient) GetPerpDexs(ctx context.Context) ([]*PerpDex, error) {
	var resp []*PerpDex
	if err := c.rest.sendInfo(ctx, infoRequest{Type: "perpDexs"}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetUserToMultiSigSigners returns the signers of a multi-sig user, or nil
// when user is not multi-sig.
func (c *InfoClient) GetUserToMultiSigSigners(ctx context.Context, user Address) (*MultiSigSigners, error) {
	var resp *MultiSigSigners
	if err := c.rest.sendInfo(ctx, infoRequest{Type: "userToMultiSigSigners", User: user.Lower()}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetExtraAgents lists the agents approved by user.
func (c *InfoClient) GetExtraAgents(ctx context.Context, user Address) ([]ExtraAgent, error) {
	var resp []ExtraAgent
	if err := c.rest.sendInfo(ctx, infoRequest{Type: "extraAgents", User: user.Lower()}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetUserRole returns the role of user.
func (c *InfoClient) GetUserRole(ctx context.Context, user Address) (*UserRoleResponse, error) {
	resp := new(UserRoleResponse)
	if err := c.rest.sendInfo(ctx, infoRequest{Type: "userRole", User: user.Lower()}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetUserRateLimit returns the request budget of user.
func (c *InfoClient) GetUserRateLimit(ctx context.Context, user Address) (*UserRateLimitResponse, error) {
	resp := new(UserRateLimitResponse)
	if err := c.rest.sendInfo(ctx, infoRequest{Type: "userRateLimit", User: user.Lower()}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetOrderStatusByOID returns the status of an order by exchange id.
func (c *InfoClient) GetOrderStatusByOID(ctx context.Context, user Address, oid uint64) (*OrderStatusResponse, error) {
	resp := new(OrderStatusResponse)
	if err := c.rest.sendInfo(ctx, infoRequest{Type: "orderStatus", User: user.Lower(), Oid: oid}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetOrderStatusByCloid returns the status of an order by client id.
func (c *InfoClient) GetOrderStatusByCloid(ctx context.Context, user Address, cloid Cloid) (*OrderStatusResponse, error) {
	resp := new(OrderStatusResponse)
	if err := c.rest.sendInfo(ctx, infoRequest{Type: "orderStatus", User: user.Lower(), Oid: cloid.String()}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// AssetID implements AssetResolver. Perp coins resolve to their universe
// index and spot markets, by pair name or BASE/QUOTE, to 10000 plus their
// spot index. Delisted perps are skipped.
func (c *InfoClient) AssetID(ctx context.Context, symbol string) (uint32, error) {
	key := strings.ToUpper(strings.TrimSpace(symbol))
	c.assetCacheMu.RLock()
	id, ok := c.assetCache[key]
	c.assetCacheMu.RUnlock()
	if ok {
		return id, nil
	}
	if err := c.RefreshAssets(ctx); err != nil {
		return 0, err
	}
	c.assetCacheMu.RLock()
	defer c.assetCacheMu.RUnlock()
	if id, ok := c.assetCache[key]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: %s", errUnknownCoin, symbol)
}

// RefreshAssets reloads the asset id cache.
func (c *InfoClient) RefreshAssets(ctx context.Context) error {
	var (
		meta *MetaResponse
		spot *SpotMetaResponse
		ec   = gctcommon.CollectErrors(2)
	)
	go func() {
		defer ec.Wg.Done()
		var err error
		if meta, err = c.GetMeta(ctx); err != nil {
			ec.C <- err
		}
	}()
	go func() {
		defer ec.Wg.Done()
		var err error
		if spot, err = c.GetSpotMeta(ctx); err != nil {
			ec.C <- err
		}
	}()
	if err := ec.Collect(); err != nil {
		return err
	}
	cache := make(map[string]uint32, len(meta.Universe)+2*len(spot.Universe))
	for idx, market := range meta.Universe {
		if market.IsDelisted {
			continue
		}
		cache[strings.ToUpper(market.Name)] = uint32(idx)
	}
	tokens := make(map[int]string, len(spot.Tokens))
	for i := range spot.Tokens {
		tokens[int(spot.Tokens[i].Index)] = spot.Tokens[i].Name
	}
	for i := range spot.Universe {
		market := &spot.Universe[i]
		id := uint32(spotAssetOffset + market.Index)
		cache[strings.ToUpper(market.Name)] = id
		if len(market.Tokens) != 2 {
			continue
		}
		base, okBase := tokens[market.Tokens[0]]
		quote, okQuote := tokens[market.Tokens[1]]
		if okBase && okQuote {
			cache[strings.ToUpper(base+"/"+quote)] = id
		}
	}
	c.assetCacheMu.Lock()
	c.assetCache = cache
	c.assetCacheMu.Unlock()
	return nil
}
