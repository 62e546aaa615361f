package hyperliquid

import (
	"bytes"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/ethereum/go-ethereum/common"
	"github.com/thrasher-corp/gct-hyperliquid/encoding/json"
)

const (
	signatureChainIDKey = "signatureChainId"
	typeKey             = "type"
)

// wireEnvelope is the body posted to /exchange.
type wireEnvelope struct {
	Action       json.RawMessage `json:"action"`
	Nonce        uint64          `json:"nonce"`
	Signature    wireSignature   `json:"signature"`
	VaultAddress *Address        `json:"vaultAddress,omitempty"`
	ExpiresAfter *uint64         `json:"expiresAfter,omitempty"`
}

type wireSignature struct {
	R string         `json:"r"`
	S string         `json:"s"`
	V recoveryVValue `json:"v"`
}

// recoveryVValue is the wire v, 27 or 28. Decoding accepts a number or a
// numeric string.
type recoveryVValue uint8

// UnmarshalJSON implements json.Unmarshaler.
func (v *recoveryVValue) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return fmt.Errorf("%w: v %s: %w", errInvalidRecoveryID, b, err)
	}
	*v = recoveryVValue(n)
	return nil
}

func newWireSignature(sig Signature) wireSignature {
	return wireSignature{
		R: fmt.Sprintf("0x%064x", sig.R.Big()),
		S: fmt.Sprintf("0x%064x", sig.S.Big()),
		V: recoveryVValue(sig.V + 27),
	}
}

func (w wireSignature) signature() (Signature, error) {
	r, err := parseSignatureWord(w.R)
	if err != nil {
		return Signature{}, fmt.Errorf("r: %w", err)
	}
	s, err := parseSignatureWord(w.S)
	if err != nil {
		return Signature{}, fmt.Errorf("s: %w", err)
	}
	if w.V < 27 || w.V-27 > 1 {
		return Signature{}, fmt.Errorf("%w: v=%d", errInvalidRecoveryID, w.V)
	}
	return Signature{R: r, S: s, V: uint8(w.V - 27)}, nil
}

func parseSignatureWord(s string) (common.Hash, error) {
	n, ok := new(big.Int).SetString(strings.TrimPrefix(strings.ToLower(s), "0x"), 16)
	if !ok || n.Sign() < 0 || n.BitLen() > 256 {
		return common.Hash{}, fmt.Errorf("%w: %q", errInvalidSignature, s)
	}
	return common.BigToHash(n), nil
}

// EncodeAction returns the wire action object for a. chain is required for
// user-signed actions, which carry signatureChainId and hyperliquidChain.
func EncodeAction(a Action, chain SigningChain) ([]byte, error) {
	if a == nil {
		return nil, errActionRequired
	}
	k := a.Kind()
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %w: %s", ErrEncodingFailure, errUnknownActionType, k)
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("%w: json %s: %w", ErrEncodingFailure, k, err)
	}
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	writeJSONString(&buf, k.ActionType())
	buf.WriteByte(',')
	writeJSONString(&buf, k.PayloadKey())
	buf.WriteByte(':')
	buf.Write(payload)
	if k.Scheme() == SchemeUserSigned {
		if chain.IsZero() {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, errChainRequired)
		}
		buf.WriteString(`,"` + signatureChainIDKey + `":`)
		writeJSONString(&buf, chain.SignatureChainIDHex())
		buf.WriteString(`,"` + hyperliquidChainField + `":`)
		writeJSONString(&buf, chain.HyperliquidChain())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}

// DecodeAction parses a wire action object. The chain is only known for
// user-signed actions and is zero otherwise.
func DecodeAction(raw []byte) (Action, SigningChain, error) {
	actionType, err := jsonparser.GetString(raw, typeKey)
	if err != nil {
		return nil, SigningChain{}, fmt.Errorf("%w: action type: %w", ErrEncodingFailure, err)
	}
	kinds, ok := kindsByActionType[actionType]
	if !ok {
		return nil, SigningChain{}, fmt.Errorf("%w: %w %q", ErrEncodingFailure, errUnknownActionType, actionType)
	}
	for _, k := range kinds {
		payload, _, _, err := jsonparser.Get(raw, k.PayloadKey())
		if err != nil {
			continue
		}
		a := k.descriptor().newAction()
		if err := json.Unmarshal(payload, a); err != nil {
			return nil, SigningChain{}, fmt.Errorf("%w: decode %s: %w", ErrEncodingFailure, k, err)
		}
		if k.Scheme() != SchemeUserSigned {
			return a, SigningChain{}, nil
		}
		name, err := jsonparser.GetString(raw, hyperliquidChainField)
		if err != nil {
			return nil, SigningChain{}, fmt.Errorf("%w: %s %s: %w", ErrEncodingFailure, k, hyperliquidChainField, err)
		}
		id, err := jsonparser.GetString(raw, signatureChainIDKey)
		if err != nil {
			return nil, SigningChain{}, fmt.Errorf("%w: %s %s: %w", ErrEncodingFailure, k, signatureChainIDKey, err)
		}
		chain, err := chainFromWire(name, id)
		if err != nil {
			return nil, SigningChain{}, err
		}
		return a, chain, nil
	}
	return nil, SigningChain{}, fmt.Errorf("%w: %w for %q", ErrEncodingFailure, errMissingPayload, actionType)
}

// MarshalJSON encodes s as the /exchange request body.
func (s *Signed) MarshalJSON() ([]byte, error) {
	action, err := EncodeAction(s.Action, s.Chain)
	if err != nil {
		return nil, err
	}
	env := wireEnvelope{
		Action:       action,
		Nonce:        s.Nonce,
		Signature:    newWireSignature(s.Signature),
		ExpiresAfter: s.ExpiresAfter,
	}
	if s.VaultAddress != nil {
		v := NewAddress(*s.VaultAddress)
		env.VaultAddress = &v
	}
	return json.Marshal(env)
}

// UnmarshalJSON decodes an /exchange request body. The envelope nonce is
// bound onto L1 actions.
func (s *Signed) UnmarshalJSON(b []byte) error {
	var env wireEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return fmt.Errorf("%w: signed action: %w", ErrEncodingFailure, err)
	}
	a, chain, err := DecodeAction(env.Action)
	if err != nil {
		return err
	}
	sig, err := env.Signature.signature()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncodingFailure, err)
	}
	if a.Kind().Scheme() == SchemeL1 {
		a.bindNonce(env.Nonce)
	}
	*s = Signed{
		Action:       a,
		Nonce:        env.Nonce,
		ExpiresAfter: env.ExpiresAfter,
		Chain:        chain,
		Signature:    sig,
	}
	if env.VaultAddress != nil {
		v := env.VaultAddress.Address
		s.VaultAddress = &v
	}
	return nil
}

// DecodeSigned parses an /exchange request body.
func DecodeSigned(b []byte) (*Signed, error) {
	s := new(Signed)
	if err := s.UnmarshalJSON(b); err != nil {
		return nil, err
	}
	return s, nil
}
