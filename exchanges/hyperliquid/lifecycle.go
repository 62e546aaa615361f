package hyperliquid

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/thrasher-corp/gct-hyperliquid/log"
)

// Clock supplies millisecond timestamps used as nonces.
type Clock interface {
	NowMilli() (uint64, error)
}

// SystemClock reads the wall clock. Concurrent callers in the same
// millisecond receive the same nonce; the exchange rejects the duplicate.
type SystemClock struct{}

// NowMilli implements Clock.
func (SystemClock) NowMilli() (uint64, error) {
	return timeToMilli(time.Now())
}

// ClockFunc adapts a time source to Clock.
type ClockFunc func() time.Time

// NowMilli implements Clock.
func (f ClockFunc) NowMilli() (uint64, error) {
	return timeToMilli(f())
}

// FixedClock always returns the same millisecond timestamp.
type FixedClock uint64

// NowMilli implements Clock.
func (c FixedClock) NowMilli() (uint64, error) {
	return uint64(c), nil
}

func timeToMilli(t time.Time) (uint64, error) {
	millis := t.UnixMilli()
	if millis < 0 {
		return 0, fmt.Errorf("%w: %w", ErrConfiguration, errNegativeNonceTimestamp)
	}
	return uint64(millis), nil
}

// SigningMeta is the per-call context hashed alongside an action.
type SigningMeta struct {
	Nonce        uint64
	VaultAddress *common.Address
	ExpiresAfter *uint64
	Chain        SigningChain
}

func (m *SigningMeta) hashedVault(k ActionKind) *common.Address {
	if k.ExcludeVaultFromHash() {
		return nil
	}
	return m.VaultAddress
}

// SigningDataFor computes what must be signed for a under meta.
func SigningDataFor(a Action, meta *SigningMeta) (SigningData, error) {
	if a == nil {
		return nil, errActionRequired
	}
	if meta == nil {
		return nil, errNilSigningMeta
	}
	if meta.Chain.IsZero() {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, errChainRequired)
	}
	switch k := a.Kind(); k.Scheme() {
	case SchemeL1:
		id, err := ConnectionID(a, meta.Nonce, meta.hashedVault(k), meta.ExpiresAfter)
		if err != nil {
			return nil, err
		}
		return L1SigningData{ConnectionID: id, Source: meta.Chain.Source()}, nil
	case SchemeUserSigned:
		structHash, err := StructHash(a, meta.Chain)
		if err != nil {
			return nil, err
		}
		domainHash, err := transactionDomain(meta.Chain)
		if err != nil {
			return nil, err
		}
		return TypedSigningData{Hash: SigningDigest(domainHash, structHash)}, nil
	default:
		return nil, fmt.Errorf("%w: %w: %s", ErrConfiguration, errUnknownActionType, k)
	}
}

// SigningHash is the digest of SigningDataFor.
func SigningHash(a Action, meta *SigningMeta) (common.Hash, error) {
	d, err := SigningDataFor(a, meta)
	if err != nil {
		return common.Hash{}, err
	}
	return d.Digest(), nil
}

// Prepared is an action with its nonce bound and signing digest computed.
type Prepared struct {
	Action       Action
	Nonce        uint64
	VaultAddress *common.Address
	ExpiresAfter *uint64
	Chain        SigningChain

	signingData SigningData
}

// Prepare binds a nonce to a, taken from the action when one is embedded and
// otherwise from clock, and computes its signing digest. Prepare takes
// ownership of a: the nonce is bound onto it.
func Prepare(a Action, chain SigningChain, vault *common.Address, expiresAfter *uint64, clock Clock) (*Prepared, error) {
	if a == nil {
		return nil, errActionRequired
	}
	nonce, ok := a.EmbeddedNonce()
	if !ok {
		if clock == nil {
			clock = SystemClock{}
		}
		var err error
		if nonce, err = clock.NowMilli(); err != nil {
			return nil, err
		}
		a.bindNonce(nonce)
	}
	meta := SigningMeta{Nonce: nonce, VaultAddress: vault, ExpiresAfter: expiresAfter, Chain: chain}
	data, err := SigningDataFor(a, &meta)
	if err != nil {
		return nil, err
	}
	log.Debugf(log.SigningSys, "prepared %s nonce %d scheme %s digest %s", a.Kind(), nonce, a.Kind().Scheme(), data.Digest())
	return &Prepared{
		Action:       a,
		Nonce:        nonce,
		VaultAddress: vault,
		ExpiresAfter: expiresAfter,
		Chain:        chain,
		signingData:  data,
	}, nil
}

// SigningData returns what an external signer must sign.
func (p *Prepared) SigningData() SigningData {
	return p.signingData
}

// Digest returns the 32 byte hash to sign.
func (p *Prepared) Digest() common.Hash {
	return p.signingData.Digest()
}

// Sign signs the digest with s.
func (p *Prepared) Sign(ctx context.Context, s Signer) (*Signed, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: %w", ErrSignatureFailure, errSignerRequired)
	}
	sig, err := s.SignDigest(ctx, p.Digest())
	if err != nil {
		signaturesTotal.WithLabelValues(p.Action.Kind().Scheme().String(), "error").Inc()
		return nil, fmt.Errorf("%w: %s: %w", ErrSignatureFailure, p.Action.Kind(), err)
	}
	signaturesTotal.WithLabelValues(p.Action.Kind().Scheme().String(), "ok").Inc()
	return p.WithSignature(sig), nil
}

// WithSignature attaches a signature produced elsewhere.
func (p *Prepared) WithSignature(sig Signature) *Signed {
	return &Signed{
		Action:       p.Action,
		Nonce:        p.Nonce,
		VaultAddress: p.VaultAddress,
		ExpiresAfter: p.ExpiresAfter,
		Chain:        p.Chain,
		Signature:    sig,
	}
}

// Signed is a signed action ready for the wire. Chain is unset on decoded L1
// actions since their chain is not carried on the wire.
type Signed struct {
	Action       Action
	Nonce        uint64
	VaultAddress *common.Address
	ExpiresAfter *uint64
	Chain        SigningChain
	Signature    Signature
}

// SigningMeta returns the metadata hashed with the action for chain.
func (s *Signed) SigningMeta(chain SigningChain) *SigningMeta {
	return &SigningMeta{Nonce: s.Nonce, VaultAddress: s.VaultAddress, ExpiresAfter: s.ExpiresAfter, Chain: chain}
}

// RecoverSigner recomputes the digest for chain and recovers the signing address.
func (s *Signed) RecoverSigner(chain SigningChain) (common.Address, error) {
	digest, err := SigningHash(s.Action, s.SigningMeta(chain))
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrRecoverAddressFailure, err)
	}
	return RecoverAddress(digest, s.Signature)
}
