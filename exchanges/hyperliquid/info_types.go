package hyperliquid

import (
	"time"

	"github.com/shopspring/decimal"
)

// spotAssetOffset is added to spot universe indices to form asset ids.
const spotAssetOffset = 10000

// MetaResponse defines the universe of perpetual markets.
type MetaResponse struct {
	Universe []PerpetualMarket `json:"universe"`
}

// PerpetualMarket describes a single perpetual contract listing.
type PerpetualMarket struct {
	Name         string `json:"name"`
	SzDecimals   int64  `json:"szDecimals"`
	MaxLeverage  int64  `json:"maxLeverage"`
	MarginTable  int64  `json:"marginTableId"`
	OnlyIsolated bool   `json:"onlyIsolated"`
	IsDelisted   bool   `json:"isDelisted"`
}

// SpotMetaResponse contains the spot universe and token metadata.
type SpotMetaResponse struct {
	Universe []SpotMarket `json:"universe"`
	Tokens   []SpotToken  `json:"tokens"`
}

// SpotMarket identifies a tradable spot market and its component tokens.
type SpotMarket struct {
	Tokens      []int  `json:"tokens"`
	Name        string `json:"name"`
	Index       int64  `json:"index"`
	IsCanonical bool   `json:"isCanonical"`
}

// SpotToken describes a spot token.
type SpotToken struct {
	Name        string `json:"name"`
	SzDecimals  int64  `json:"szDecimals"`
	WeiDecimals int64  `json:"weiDecimals"`
	Index       int64  `json:"index"`
	TokenID     string `json:"tokenId"`
	IsCanonical bool   `json:"isCanonical"`
}

// PerpDex describes a builder deployed perp dex.
type PerpDex struct {
	Name            string  `json:"name"`
	FullName        string  `json:"fullName"`
	Deployer        string  `json:"deployer"`
	OracleUpdater   *string `json:"oracleUpdater,omitempty"`
	FeeRecipient    *string `json:"feeRecipient,omitempty"`
	CollateralToken *int64  `json:"collateralToken,omitempty"`
}

// MultiSigSigners lists the authorised signers of a multi-sig user.
type MultiSigSigners struct {
	AuthorizedUsers []Address `json:"authorizedUsers"`
	Threshold       int       `json:"threshold"`
}

// ExtraAgent is an approved API agent.
type ExtraAgent struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	ValidUntil int64  `json:"validUntil"`
}

// ValidUntilTime returns ValidUntil as a time.
func (a ExtraAgent) ValidUntilTime() time.Time {
	return time.UnixMilli(a.ValidUntil).UTC()
}

// UserRateLimitResponse provides current API limiter utilisation.
type UserRateLimitResponse struct {
	CumulativeVolume decimal.Decimal `json:"cumVlm"`
	RequestsUsed     int64           `json:"nRequestsUsed"`
	RequestsCap      int64           `json:"nRequestsCap"`
}

// UserRoleResponse describes the role of an address.
type UserRoleResponse struct {
	Role        string  `json:"role"`
	AccountType *string `json:"accountType,omitempty"`
}

// OrderStatusResponse is the answer to an orderStatus query.
type OrderStatusResponse struct {
	Status string             `json:"status"`
	Order  *OrderStatusDetail `json:"order,omitempty"`
}

// OrderStatusDetail contains a tracked order and its state.
type OrderStatusDetail struct {
	Order           OrderStatusOrder `json:"order"`
	Status          string           `json:"status"`
	StatusTimestamp int64            `json:"statusTimestamp"`
}

// OrderStatusOrder is the order part of an order status.
type OrderStatusOrder struct {
	Coin      string          `json:"coin"`
	Side      string          `json:"side"`
	LimitPx   decimal.Decimal `json:"limitPx"`
	Size      decimal.Decimal `json:"sz"`
	OrigSize  decimal.Decimal `json:"origSz"`
	OrderID   int64           `json:"oid"`
	Timestamp int64           `json:"timestamp"`
	Cloid     *Cloid          `json:"cloid,omitempty"`
}
