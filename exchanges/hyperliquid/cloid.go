package hyperliquid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/thrasher-corp/gct-hyperliquid/encoding/json"
	"github.com/vmihailenco/msgpack/v5"
)

// Cloid is a 128 bit client order id.
type Cloid [16]byte

// ParseCloid parses a 0x prefixed 32 character hex string.
func ParseCloid(s string) (Cloid, error) {
	var c Cloid
	raw, ok := strings.CutPrefix(strings.ToLower(s), "0x")
	if !ok || len(raw) != 2*len(c) {
		return c, fmt.Errorf("%w: cloid %q must be 0x followed by 32 hex characters", ErrEncodingFailure, s)
	}
	if _, err := hex.Decode(c[:], []byte(raw)); err != nil {
		return c, fmt.Errorf("%w: cloid %q: %w", ErrEncodingFailure, s, err)
	}
	return c, nil
}

// NewCloid returns a random client order id.
func NewCloid() (Cloid, error) {
	var c Cloid
	_, err := rand.Read(c[:])
	return c, err
}

// CloidFromUint builds a client order id from an integer.
func CloidFromUint(v uint64) Cloid {
	var c Cloid
	for i := len(c) - 1; i >= len(c)-8; i-- {
		c[i] = byte(v)
		v >>= 8
	}
	return c
}

func (c Cloid) String() string {
	return "0x" + hex.EncodeToString(c[:])
}

// MarshalJSON implements json.Marshaler.
func (c Cloid) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Cloid) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseCloid(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (c Cloid) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(c.String())
}
