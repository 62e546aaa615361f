package hyperliquid

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FloatToWire renders x with at most 8 decimals and no trailing zeros. It
// fails when that would round x.
func FloatToWire(x float64) (string, error) {
	rounded := strconv.FormatFloat(x, 'f', 8, 64)
	parsed, err := strconv.ParseFloat(rounded, 64)
	if err != nil {
		return "", err
	}
	if math.Abs(parsed-x) >= 1e-12 {
		return "", fmt.Errorf("%w: %v to wire", errFloatRounding, x)
	}
	if strings.HasPrefix(rounded, "-0") && parsed == 0 {
		parsed = 0
	}
	return decimal.NewFromFloat(parsed).String(), nil
}

// FloatToInt scales x by 10^power and fails when the result is not integral.
func FloatToInt(x float64, power int) (int64, error) {
	withDecimals := x * math.Pow10(power)
	rounded := math.Round(withDecimals)
	if math.Abs(rounded-withDecimals) >= 1e-3 {
		return 0, fmt.Errorf("%w: %v to int", errFloatRounding, x)
	}
	return int64(rounded), nil
}

// FloatToUSDInt scales x to USDC micro units.
func FloatToUSDInt(x float64) (int64, error) {
	return FloatToInt(x, 6)
}

// LimitOrderType captures limit order settings.
type LimitOrderType struct {
	TimeInForce string
}

// TriggerOrderType captures trigger order settings.
type TriggerOrderType struct {
	TriggerPrice float64
	IsMarket     bool
	TPSL         string
}

// OrderType specifies either limit or trigger order details.
type OrderType struct {
	Limit   *LimitOrderType
	Trigger *TriggerOrderType
}

// OrderRequest is a caller friendly order description.
type OrderRequest struct {
	Coin       string
	IsBuy      bool
	Size       float64
	LimitPrice float64
	OrderType  OrderType
	ReduceOnly bool
	Cloid      *Cloid
}

func (o OrderType) wire() (OrderTypeWire, error) {
	switch {
	case o.Limit != nil && o.Trigger == nil:
		return OrderTypeWire{Limit: &LimitOrderWire{TimeInForce: o.Limit.TimeInForce}}, nil
	case o.Trigger != nil && o.Limit == nil:
		triggerPx, err := FloatToWire(o.Trigger.TriggerPrice)
		if err != nil {
			return OrderTypeWire{}, err
		}
		return OrderTypeWire{Trigger: &TriggerOrderWire{
			IsMarket:  o.Trigger.IsMarket,
			TriggerPx: triggerPx,
			TPSL:      o.Trigger.TPSL,
		}}, nil
	}
	return OrderTypeWire{}, errInvalidOrderType
}

// Wire converts req into its wire form for asset.
func (req *OrderRequest) Wire(asset uint32) (OrderWire, error) {
	limitPx, err := FloatToWire(req.LimitPrice)
	if err != nil {
		return OrderWire{}, err
	}
	size, err := FloatToWire(req.Size)
	if err != nil {
		return OrderWire{}, err
	}
	orderType, err := req.OrderType.wire()
	if err != nil {
		return OrderWire{}, err
	}
	return OrderWire{
		Asset:      asset,
		IsBuy:      req.IsBuy,
		LimitPx:    limitPx,
		Size:       size,
		ReduceOnly: req.ReduceOnly,
		OrderType:  orderType,
		Cloid:      req.Cloid,
	}, nil
}

// NewBulkOrder resolves each coin through resolver and builds an order action
// with grouping "na".
func NewBulkOrder(ctx context.Context, resolver AssetResolver, reqs []OrderRequest, builder *BuilderInfo) (*BulkOrder, error) {
	if resolver == nil {
		return nil, fmt.Errorf("%w: asset resolver required", ErrConfiguration)
	}
	orders := make([]OrderWire, 0, len(reqs))
	for i := range reqs {
		asset, err := resolver.AssetID(ctx, reqs[i].Coin)
		if err != nil {
			return nil, err
		}
		w, err := reqs[i].Wire(asset)
		if err != nil {
			return nil, fmt.Errorf("order %d %s: %w", i, reqs[i].Coin, err)
		}
		orders = append(orders, w)
	}
	return &BulkOrder{Orders: orders, Grouping: GroupingNA, Builder: builder}, nil
}
