package hyperliquid

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/thrasher-corp/gct-hyperliquid/encoding/json"
	"github.com/vmihailenco/msgpack/v5"
)

// Action is a typed exchange action. The set of implementations is closed:
// every action is one of the payload structs in this package, used by pointer.
type Action interface {
	// Kind returns the descriptor key for the action.
	Kind() ActionKind
	// EmbeddedNonce returns the nonce bound to the action, if any.
	EmbeddedNonce() (uint64, bool)
	bindNonce(nonce uint64)
}

// WithNonce binds nonce to a unless a nonce is already bound, and returns a.
// Once bound the nonce never changes.
func WithNonce[A Action](a A, nonce uint64) A {
	a.bindNonce(nonce)
	return a
}

// l1Nonce carries the nonce of an L1 action. It is never serialised; the nonce
// travels in the envelope.
type l1Nonce struct {
	nonce *uint64
}

// EmbeddedNonce implements Action.
func (n *l1Nonce) EmbeddedNonce() (uint64, bool) {
	if n.nonce == nil {
		return 0, false
	}
	return *n.nonce, true
}

func (n *l1Nonce) bindNonce(v uint64) {
	if n.nonce == nil {
		n.nonce = &v
	}
}

// TimeNonce is embedded by user-signed actions whose typed data names the
// timestamp "time".
type TimeNonce struct {
	Time *uint64 `json:"time,omitempty"`
}

// EmbeddedNonce implements Action.
func (n *TimeNonce) EmbeddedNonce() (uint64, bool) {
	if n.Time == nil {
		return 0, false
	}
	return *n.Time, true
}

func (n *TimeNonce) bindNonce(v uint64) {
	if n.Time == nil {
		n.Time = &v
	}
}

// UserNonce is embedded by user-signed actions whose typed data names the
// timestamp "nonce".
type UserNonce struct {
	Nonce *uint64 `json:"nonce,omitempty"`
}

// EmbeddedNonce implements Action.
func (n *UserNonce) EmbeddedNonce() (uint64, bool) {
	if n.Nonce == nil {
		return 0, false
	}
	return *n.Nonce, true
}

func (n *UserNonce) bindNonce(v uint64) {
	if n.Nonce == nil {
		n.Nonce = &v
	}
}

// Pair is a two element tuple encoded as [key, value].
type Pair[V any] struct {
	Key   string
	Value V
}

// MarshalJSON implements json.Marshaler.
func (p Pair[V]) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Key, p.Value})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Pair[V]) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("%w: tuple of %d elements", ErrEncodingFailure, len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Key); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &p.Value)
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (p Pair[V]) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(2); err != nil {
		return err
	}
	if err := enc.EncodeString(p.Key); err != nil {
		return err
	}
	return enc.Encode(p.Value)
}

// sortPairs orders tuples by key then value.
func sortPairs[V any](pairs []Pair[V], compareValue func(a, b V) int) {
	slices.SortStableFunc(pairs, func(a, b Pair[V]) int {
		if c := cmp.Compare(a.Key, b.Key); c != 0 {
			return c
		}
		return compareValue(a.Value, b.Value)
	})
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

// pairsFromMap converts m into tuples sorted by key then value.
func pairsFromMap[V any](m map[string]V, compareValue func(a, b V) int) []Pair[V] {
	out := make([]Pair[V], 0, len(m))
	for k, v := range m {
		out = append(out, Pair[V]{Key: k, Value: v})
	}
	sortPairs(out, compareValue)
	return out
}
