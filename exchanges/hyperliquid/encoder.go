package hyperliquid

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vmihailenco/msgpack/v5"
)

// newHashEncoder returns a msgpack encoder producing the canonical hash form:
// struct fields in declaration order, integers in their smallest encoding.
// Map keys are never sorted. Field names come from the json tags.
func newHashEncoder(buf *bytes.Buffer) *msgpack.Encoder {
	enc := msgpack.NewEncoder(buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	return enc
}

// encodeActionObject writes the wire action object {"type": T, key: payload}.
func encodeActionObject(enc *msgpack.Encoder, a Action) error {
	k := a.Kind()
	if !k.Valid() {
		return fmt.Errorf("%w: %s", errUnknownActionType, k)
	}
	if err := enc.EncodeMapLen(2); err != nil {
		return err
	}
	if err := enc.EncodeString("type"); err != nil {
		return err
	}
	if err := enc.EncodeString(k.ActionType()); err != nil {
		return err
	}
	if err := enc.EncodeString(k.PayloadKey()); err != nil {
		return err
	}
	return enc.Encode(a)
}

// appendHashSuffix appends nonce, vault and expiry in the layout
// BE8(nonce) || 0x00 | 0x01 vault[20] || [0x00 BE8(expiresAfter)].
func appendHashSuffix(buf *bytes.Buffer, nonce uint64, vault *common.Address, expiresAfter *uint64) {
	var word [8]byte
	binary.BigEndian.PutUint64(word[:], nonce)
	buf.Write(word[:])
	if vault == nil {
		buf.WriteByte(0x00)
	} else {
		buf.WriteByte(0x01)
		buf.Write(vault[:])
	}
	if expiresAfter != nil {
		buf.WriteByte(0x00)
		binary.BigEndian.PutUint64(word[:], *expiresAfter)
		buf.Write(word[:])
	}
}

func requireL1(a Action) error {
	if a == nil {
		return errActionRequired
	}
	if s := a.Kind().Scheme(); s != SchemeL1 {
		return fmt.Errorf("%w: %s is signed as %s", ErrConfiguration, a.Kind(), s)
	}
	return nil
}

// EncodeForHash returns the bytes hashed into the connection id of an L1 action.
func EncodeForHash(a Action, nonce uint64, vault *common.Address, expiresAfter *uint64) ([]byte, error) {
	if err := requireL1(a); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := encodeActionObject(newHashEncoder(&buf), a); err != nil {
		return nil, fmt.Errorf("%w: msgpack %s: %w", ErrEncodingFailure, a.Kind(), err)
	}
	appendHashSuffix(&buf, nonce, vault, expiresAfter)
	return buf.Bytes(), nil
}

// ConnectionID is keccak256 of EncodeForHash.
func ConnectionID(a Action, nonce uint64, vault *common.Address, expiresAfter *uint64) (common.Hash, error) {
	b, err := EncodeForHash(a, nonce, vault, expiresAfter)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(b), nil
}

// encodeMultiSigForHash is EncodeForHash over [user, outerSigner, actionObject].
func encodeMultiSigForHash(a Action, user, outerSigner common.Address, nonce uint64, vault *common.Address, expiresAfter *uint64) ([]byte, error) {
	if err := requireL1(a); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := newHashEncoder(&buf)
	err := enc.EncodeArrayLen(3)
	if err == nil {
		err = enc.EncodeString(NewAddress(user).Lower())
	}
	if err == nil {
		err = enc.EncodeString(NewAddress(outerSigner).Lower())
	}
	if err == nil {
		err = encodeActionObject(enc, a)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: msgpack multi-sig %s: %w", ErrEncodingFailure, a.Kind(), err)
	}
	appendHashSuffix(&buf, nonce, vault, expiresAfter)
	return buf.Bytes(), nil
}
