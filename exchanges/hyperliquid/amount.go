package hyperliquid

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-hyperliquid/encoding/json"
	"github.com/vmihailenco/msgpack/v5"
)

// Amount is a decimal quantity which keeps the scale it was written with, so
// "1.0" and "1" hash differently. Exact textual form is part of the signature.
type Amount struct {
	d decimal.Decimal
}

// NewAmount parses a decimal string.
func NewAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: amount %q: %w", ErrEncodingFailure, s, err)
	}
	return Amount{d: d}, nil
}

// MustAmount is NewAmount which panics on error.
func MustAmount(s string) Amount {
	a, err := NewAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AmountFromDecimal wraps d.
func AmountFromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// Decimal returns the underlying decimal.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// String renders the amount keeping trailing zeros.
func (a Amount) String() string {
	if exp := a.d.Exponent(); exp < 0 {
		return a.d.StringFixed(-exp)
	}
	return a.d.String()
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a quoted or bare decimal.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	parsed, err := NewAmount(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (a Amount) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(a.String())
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (a *Amount) DecodeMsgpack(dec *msgpack.Decoder) error {
	s, err := dec.DecodeString()
	if err != nil {
		return err
	}
	parsed, err := NewAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
