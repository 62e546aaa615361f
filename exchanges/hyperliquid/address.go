package hyperliquid

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/thrasher-corp/gct-hyperliquid/encoding/json"
	"github.com/vmihailenco/msgpack/v5"
)

// Address is an account address that always serialises as lowercase hex.
type Address struct {
	common.Address
}

// NewAddress wraps a go-ethereum address.
func NewAddress(a common.Address) Address {
	return Address{Address: a}
}

// ParseAddress parses a 0x prefixed hex address in any case.
func ParseAddress(s string) (Address, error) {
	if !common.IsHexAddress(s) || !strings.HasPrefix(strings.ToLower(s), "0x") {
		return Address{}, fmt.Errorf("%w: %q", errInvalidAddress, s)
	}
	return Address{Address: common.HexToAddress(s)}, nil
}

// MustParseAddress is ParseAddress which panics on error.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Lower returns the lowercase 0x hex form.
func (a Address) Lower() string {
	return strings.ToLower(a.Hex())
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return a.Lower()
}

// Format implements fmt.Formatter so verbs print the lowercase form.
func (a Address) Format(s fmt.State, verb rune) {
	if verb == 'q' {
		fmt.Fprintf(s, "%q", a.Lower())
		return
	}
	_, _ = s.Write([]byte(a.Lower()))
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Lower()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(b []byte) error {
	parsed, err := ParseAddress(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Lower())
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Address) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return a.UnmarshalText([]byte(s))
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (a Address) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(a.Lower())
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (a *Address) DecodeMsgpack(dec *msgpack.Decoder) error {
	s, err := dec.DecodeString()
	if err != nil {
		return err
	}
	return a.UnmarshalText([]byte(s))
}
