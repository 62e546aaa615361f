package hyperliquid

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const signatureLength = 65

// Signature is a secp256k1 signature. V is the recovery bit, 0 or 1.
type Signature struct {
	R common.Hash
	S common.Hash
	V uint8
}

// SignatureFromBytes parses r || s || v where v is 0, 1, 27 or 28.
func SignatureFromBytes(b []byte) (Signature, error) {
	if len(b) != signatureLength {
		return Signature{}, fmt.Errorf("%w: %w: length %d", ErrRecoverAddressFailure, errInvalidSignature, len(b))
	}
	v := b[64]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return Signature{}, fmt.Errorf("%w: %w: %d", ErrRecoverAddressFailure, errInvalidRecoveryID, b[64])
	}
	return Signature{R: common.BytesToHash(b[:32]), S: common.BytesToHash(b[32:64]), V: v}, nil
}

// SignatureFromHex parses a 0x prefixed 130 character signature.
func SignatureFromHex(s string) (Signature, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return Signature{}, fmt.Errorf("%w: %w: %w", ErrRecoverAddressFailure, errInvalidSignature, err)
	}
	return SignatureFromBytes(b)
}

// Bytes returns r || s || v with v as the recovery bit.
func (s Signature) Bytes() []byte {
	out := make([]byte, signatureLength)
	copy(out[:32], s.R[:])
	copy(out[32:64], s.S[:])
	out[64] = s.V
	return out
}

// String returns 0x r || s || v with v as 27 or 28.
func (s Signature) String() string {
	b := s.Bytes()
	b[64] += 27
	return "0x" + hex.EncodeToString(b)
}

// Signer produces a signature over a 32 byte digest. Implementations may be
// remote and block.
type Signer interface {
	SignDigest(ctx context.Context, digest common.Hash) (Signature, error)
}

// AddressSigner is a Signer which knows its own address.
type AddressSigner interface {
	Signer
	Address() common.Address
}

// LocalSigner signs with an in-memory private key.
type LocalSigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewLocalSigner parses a hex private key with or without the 0x prefix.
func NewLocalSigner(hexKey string) (*LocalSigner, error) {
	key := strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if key == "" {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, errPrivateKeyNotProvided)
	}
	keyBytes, err := hex.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("%w: decode private key: %w", ErrConfiguration, err)
	}
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("%w: %w %d", ErrConfiguration, errInvalidPrivateKeyLength, len(keyBytes))
	}
	priv, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: construct private key: %w", ErrConfiguration, err)
	}
	return NewLocalSignerFromKey(priv), nil
}

// NewLocalSignerFromKey wraps an existing key.
func NewLocalSignerFromKey(priv *ecdsa.PrivateKey) *LocalSigner {
	return &LocalSigner{
		privateKey: priv,
		address:    crypto.PubkeyToAddress(priv.PublicKey),
	}
}

// Address returns the signer address.
func (w *LocalSigner) Address() common.Address {
	return w.address
}

// HexAddress returns the lowercase signer address.
func (w *LocalSigner) HexAddress() string {
	return strings.ToLower(w.address.Hex())
}

// SignDigest implements Signer.
func (w *LocalSigner) SignDigest(_ context.Context, digest common.Hash) (Signature, error) {
	sig, err := crypto.Sign(digest[:], w.privateKey)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: %w", ErrSignatureFailure, err)
	}
	return SignatureFromBytes(sig)
}

// RecoverAddress returns the address which produced sig over digest.
func RecoverAddress(digest common.Hash, sig Signature) (common.Address, error) {
	if sig.V > 1 {
		return common.Address{}, fmt.Errorf("%w: %w: %d", ErrRecoverAddressFailure, errInvalidRecoveryID, sig.V)
	}
	pub, err := crypto.SigToPub(digest[:], sig.Bytes())
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrRecoverAddressFailure, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
