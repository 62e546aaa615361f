package hyperliquid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/thrasher-corp/gct-hyperliquid/encoding/json"
)

// Top level response statuses.
const (
	ResponseStatusOK  = "ok"
	ResponseStatusErr = "err"
)

// Status entry kinds for order responses.
const (
	ExchangeStatusSuccess = "success"
	ExchangeStatusResting = "resting"
	ExchangeStatusError   = "error"
	ExchangeStatusFilled  = "filled"
)

// OrderStatus summarises the statuses of an order response.
type OrderStatus uint8

// Order statuses.
const (
	OrderStatusUnknown OrderStatus = iota
	OrderStatusActive
	OrderStatusFilled
	OrderStatusRejected
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusActive:
		return "active"
	case OrderStatusFilled:
		return "filled"
	case OrderStatusRejected:
		return "rejected"
	}
	return "unknown"
}

// ExchangeResponse is a successful /exchange answer.
type ExchangeResponse struct {
	Status   string                `json:"status"`
	Response *ExchangeResponseBody `json:"response,omitempty"`
}

// ExchangeResponseBody captures the nested response payload.
type ExchangeResponseBody struct {
	Type string               `json:"type"`
	Data ExchangeResponseData `json:"data"`
}

// ExchangeResponseData holds per request outcomes. Raw keeps the payload for
// response types without statuses.
type ExchangeResponseData struct {
	Statuses []ExchangeStatusEntry `json:"statuses"`
	Raw      json.RawMessage       `json:"-"`
}

// UnmarshalJSON keeps the raw payload alongside any statuses.
func (d *ExchangeResponseData) UnmarshalJSON(data []byte) error {
	d.Raw = append(d.Raw[:0], data...)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	type alias ExchangeResponseData
	var base alias
	if err := json.Unmarshal(data, &base); err != nil {
		return err
	}
	d.Statuses = base.Statuses
	return nil
}

// ExchangeStatusEntry represents a single outcome entry.
type ExchangeStatusEntry struct {
	Kind    string              `json:"-"`
	Text    string              `json:"-"`
	Success bool                `json:"success,omitempty"`
	Resting *ExchangeOrderState `json:"resting,omitempty"`
	Filled  *ExchangeOrderState `json:"filled,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// UnmarshalJSON decodes flexible status payloads (string or object).
func (e *ExchangeStatusEntry) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		var status string
		if err := json.Unmarshal(data, &status); err != nil {
			return err
		}
		e.Kind = strings.ToLower(status)
		e.Text = status
		e.Success = strings.EqualFold(status, ExchangeStatusSuccess)
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, value := range raw {
		e.Text = key
		switch strings.ToLower(key) {
		case ExchangeStatusFilled:
			e.Kind = ExchangeStatusFilled
			e.Filled = new(ExchangeOrderState)
			if err := json.Unmarshal(value, e.Filled); err != nil {
				return err
			}
		case ExchangeStatusResting:
			e.Kind = ExchangeStatusResting
			e.Resting = new(ExchangeOrderState)
			if err := json.Unmarshal(value, e.Resting); err != nil {
				return err
			}
		case ExchangeStatusError:
			e.Kind = ExchangeStatusError
			if err := json.Unmarshal(value, &e.Error); err != nil {
				return err
			}
		case ExchangeStatusSuccess:
			e.Kind = ExchangeStatusSuccess
			if err := json.Unmarshal(value, &e.Success); err != nil {
				return err
			}
		default:
			e.Kind = strings.ToLower(key)
		}
	}
	return nil
}

// ExchangeOrderState contains resting or filled order metadata.
type ExchangeOrderState struct {
	OrderID   int64  `json:"oid"`
	TotalSize string `json:"totalSz,omitempty"`
	AvgPrice  string `json:"avgPx,omitempty"`
	Cloid     *Cloid `json:"cloid,omitempty"`
}

// ParseExchangeResponse decodes an /exchange answer. {"status":"err"} becomes
// an *APIError.
func ParseExchangeResponse(body []byte) (*ExchangeResponse, error) {
	status, err := jsonparser.GetString(body, "status")
	if err != nil {
		return nil, fmt.Errorf("%w: response status: %w", ErrEncodingFailure, err)
	}
	switch status {
	case ResponseStatusOK:
		var resp ExchangeResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: response body: %w", ErrEncodingFailure, err)
		}
		return &resp, nil
	case ResponseStatusErr:
		msg, err := jsonparser.GetString(body, "response")
		if err != nil {
			raw, _, _, _ := jsonparser.Get(body, "response")
			msg = string(raw)
		}
		return nil, newAPIError(msg)
	}
	return nil, fmt.Errorf("%w: %w %q", ErrEncodingFailure, errUnknownResponseStatus, status)
}

// ExtractOrderStatus extracts the primary order id and status from an order
// response. A rejected status entry is returned as the third value.
func (r *ExchangeResponse) ExtractOrderStatus() (string, OrderStatus, error, error) {
	if r == nil || r.Response == nil {
		return "", OrderStatusUnknown, nil, errResponseMissing
	}
	statuses := r.Response.Data.Statuses
	if len(statuses) == 0 {
		return "", OrderStatusUnknown, nil, errResponseStatusesEmpty
	}
	var (
		state      *ExchangeOrderState
		status     = OrderStatusUnknown
		entryError error
	)
	for i := range statuses {
		entry := &statuses[i]
		switch entry.Kind {
		case ExchangeStatusResting:
			state, status = entry.Resting, OrderStatusActive
		case ExchangeStatusFilled:
			state, status = entry.Filled, OrderStatusFilled
		case ExchangeStatusSuccess:
			if status == OrderStatusUnknown {
				status = OrderStatusFilled
			}
		case ExchangeStatusError:
			entryError = fmt.Errorf("%w: %s", errExchangeStatusEntry, entry.Error)
			status = OrderStatusRejected
		}
	}
	var orderID string
	if state != nil && state.OrderID != 0 {
		orderID = strconv.FormatInt(state.OrderID, 10)
	}
	return orderID, status, entryError, nil
}
