package hyperliquid

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/thrasher-corp/gct-hyperliquid/encoding/json"
	"github.com/vmihailenco/msgpack/v5"
)

// Order grouping values.
const (
	GroupingNA           = "na"
	GroupingNormalTPSL   = "normalTpsl"
	GroupingPositionTPSL = "positionTpsl"
)

// Time in force values for limit orders.
const (
	TimeInForceGTC = "Gtc"
	TimeInForceIOC = "Ioc"
	TimeInForceALO = "Alo"
)

// Trigger order kinds.
const (
	TPSLTakeProfit = "tp"
	TPSLStopLoss   = "sl"
)

// LimitOrderWire is the limit leg of an order type.
type LimitOrderWire struct {
	TimeInForce string `json:"tif"`
}

// TriggerOrderWire is the trigger leg of an order type.
type TriggerOrderWire struct {
	IsMarket  bool   `json:"isMarket"`
	TriggerPx string `json:"triggerPx"`
	TPSL      string `json:"tpsl"`
}

// OrderTypeWire holds exactly one of Limit or Trigger.
type OrderTypeWire struct {
	Limit   *LimitOrderWire   `json:"limit,omitempty"`
	Trigger *TriggerOrderWire `json:"trigger,omitempty"`
}

// OrderWire is a single order in wire form. Prices and sizes are decimal strings.
type OrderWire struct {
	Asset      uint32        `json:"a"`
	IsBuy      bool          `json:"b"`
	LimitPx    string        `json:"p"`
	Size       string        `json:"s"`
	ReduceOnly bool          `json:"r"`
	OrderType  OrderTypeWire `json:"t"`
	Cloid      *Cloid        `json:"c,omitempty"`
}

// BuilderInfo routes a builder fee, in tenths of a basis point.
type BuilderInfo struct {
	Builder Address `json:"b"`
	Fee     uint64  `json:"f"`
}

// BulkOrder places one or more orders.
type BulkOrder struct {
	l1Nonce  `json:"-"`
	Orders   []OrderWire  `json:"orders"`
	Grouping string       `json:"grouping"`
	Builder  *BuilderInfo `json:"builder,omitempty"`
}

// Kind implements Action.
func (*BulkOrder) Kind() ActionKind { return KindOrder }

// CancelWire cancels by exchange order id.
type CancelWire struct {
	Asset   uint32 `json:"a"`
	OrderID uint64 `json:"o"`
}

// BulkCancel cancels orders by id.
type BulkCancel struct {
	l1Nonce `json:"-"`
	Cancels []CancelWire `json:"cancels"`
}

// Kind implements Action.
func (*BulkCancel) Kind() ActionKind { return KindCancel }

// CancelByCloidWire cancels by client order id.
type CancelByCloidWire struct {
	Asset uint32 `json:"asset"`
	Cloid Cloid  `json:"cloid"`
}

// BulkCancelByCloid cancels orders by client order id.
type BulkCancelByCloid struct {
	l1Nonce `json:"-"`
	Cancels []CancelByCloidWire `json:"cancels"`
}

// Kind implements Action.
func (*BulkCancelByCloid) Kind() ActionKind { return KindCancelByCloid }

// OrderRef identifies an existing order by exchange id or, when Cloid is set,
// by client order id.
type OrderRef struct {
	OrderID uint64
	Cloid   *Cloid
}

// MarshalJSON implements json.Marshaler.
func (r OrderRef) MarshalJSON() ([]byte, error) {
	if r.Cloid != nil {
		return json.Marshal(r.Cloid)
	}
	return []byte(strconv.FormatUint(r.OrderID, 10)), nil
}

// UnmarshalJSON accepts a number or a cloid string.
func (r *OrderRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		c := new(Cloid)
		if err := json.Unmarshal(b, c); err != nil {
			return err
		}
		*r = OrderRef{Cloid: c}
		return nil
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: order id %s: %w", ErrEncodingFailure, b, err)
	}
	*r = OrderRef{OrderID: id}
	return nil
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (r OrderRef) EncodeMsgpack(enc *msgpack.Encoder) error {
	if r.Cloid != nil {
		return enc.EncodeString(r.Cloid.String())
	}
	return enc.EncodeUint(r.OrderID)
}

// ModifyWire replaces an existing order.
type ModifyWire struct {
	OrderID OrderRef  `json:"oid"`
	Order   OrderWire `json:"order"`
}

// BatchModify amends one or more orders.
type BatchModify struct {
	l1Nonce  `json:"-"`
	Modifies []ModifyWire `json:"modifies"`
}

// Kind implements Action.
func (*BatchModify) Kind() ActionKind { return KindBatchModify }

// UpdateLeverage sets leverage for an asset.
type UpdateLeverage struct {
	l1Nonce  `json:"-"`
	Asset    uint32 `json:"asset"`
	IsCross  bool   `json:"isCross"`
	Leverage uint32 `json:"leverage"`
}

// Kind implements Action.
func (*UpdateLeverage) Kind() ActionKind { return KindUpdateLeverage }

// UpdateIsolatedMargin adds or removes isolated margin, in micro USD.
type UpdateIsolatedMargin struct {
	l1Nonce `json:"-"`
	Asset   uint32 `json:"asset"`
	IsBuy   bool   `json:"isBuy"`
	Ntli    int64  `json:"ntli"`
}

// Kind implements Action.
func (*UpdateIsolatedMargin) Kind() ActionKind { return KindUpdateIsolatedMargin }

// ScheduleCancel sets or clears the dead man's switch.
type ScheduleCancel struct {
	l1Nonce `json:"-"`
	Time    *uint64 `json:"time,omitempty"`
}

// Kind implements Action.
func (*ScheduleCancel) Kind() ActionKind { return KindScheduleCancel }

// SetReferrer applies a referral code.
type SetReferrer struct {
	l1Nonce `json:"-"`
	Code    string `json:"code"`
}

// Kind implements Action.
func (*SetReferrer) Kind() ActionKind { return KindSetReferrer }

// CreateSubAccount creates a named sub-account.
type CreateSubAccount struct {
	l1Nonce `json:"-"`
	Name    string `json:"name"`
}

// Kind implements Action.
func (*CreateSubAccount) Kind() ActionKind { return KindCreateSubAccount }

// EvmUserModify toggles big block usage on the EVM.
type EvmUserModify struct {
	l1Nonce        `json:"-"`
	UsingBigBlocks bool `json:"usingBigBlocks"`
}

// Kind implements Action.
func (*EvmUserModify) Kind() ActionKind { return KindEvmUserModify }

// ClaimRewards claims accrued rewards.
type ClaimRewards struct {
	l1Nonce `json:"-"`
}

// Kind implements Action.
func (*ClaimRewards) Kind() ActionKind { return KindClaimRewards }

// VaultTransfer deposits to or withdraws from a vault, in micro USD.
type VaultTransfer struct {
	l1Nonce      `json:"-"`
	VaultAddress Address `json:"vaultAddress"`
	IsDeposit    bool    `json:"isDeposit"`
	Usd          uint64  `json:"usd"`
}

// Kind implements Action.
func (*VaultTransfer) Kind() ActionKind { return KindVaultTransfer }

// ToggleSpotDusting opts in or out of spot dust conversion.
type ToggleSpotDusting struct {
	OptOut bool `json:"optOut"`
}

// SpotUser changes spot account settings.
type SpotUser struct {
	l1Nonce           `json:"-"`
	ToggleSpotDusting ToggleSpotDusting `json:"toggleSpotDusting"`
}

// Kind implements Action.
func (*SpotUser) Kind() ActionKind { return KindSpotUser }

// Noop consumes a nonce without side effects.
type Noop struct {
	l1Nonce `json:"-"`
}

// Kind implements Action.
func (*Noop) Kind() ActionKind { return KindNoop }
