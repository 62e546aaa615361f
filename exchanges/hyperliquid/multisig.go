package hyperliquid

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	multiSigUserField  = "payloadMultiSigUser"
	outerSignerField   = "outerSigner"
	multiSigInjectText = "address " + multiSigUserField + ",address " + outerSignerField
)

// MultiSigPreimage inserts the payloadMultiSigUser and outerSigner address
// fields directly after hyperliquidChain. A preimage without a
// hyperliquidChain field is returned unchanged.
func MultiSigPreimage(preimage string) (string, error) {
	p, err := parsePreimage(preimage)
	if err != nil {
		return "", err
	}
	fields := make([]string, 0, len(p.params)+2)
	injected := false
	for _, param := range p.params {
		fields = append(fields, param.typ+" "+param.name)
		if param.name == hyperliquidChainField {
			fields = append(fields, multiSigInjectText)
			injected = true
		}
	}
	if !injected {
		return preimage, nil
	}
	return p.primary + "(" + strings.Join(fields, ",") + ")", nil
}

// MultiSigSigningHash computes the digest a multi-sig co-signer signs for a
// on behalf of payloadMultiSigUser, submitted by outerSigner. It never reads
// a clock.
func MultiSigSigningHash(a Action, meta *SigningMeta, payloadMultiSigUser, outerSigner common.Address) (common.Hash, error) {
	if a == nil {
		return common.Hash{}, errActionRequired
	}
	if meta == nil {
		return common.Hash{}, errNilSigningMeta
	}
	if meta.Chain.IsZero() {
		return common.Hash{}, fmt.Errorf("%w: %w", ErrConfiguration, errChainRequired)
	}
	switch k := a.Kind(); k.Scheme() {
	case SchemeL1:
		b, err := encodeMultiSigForHash(a, payloadMultiSigUser, outerSigner, meta.Nonce, meta.hashedVault(k), meta.ExpiresAfter)
		if err != nil {
			return common.Hash{}, err
		}
		return L1SigningData{ConnectionID: crypto.Keccak256Hash(b), Source: meta.Chain.Source()}.Digest(), nil
	case SchemeUserSigned:
		raw, err := MultiSigPreimage(k.TypePreimage())
		if err != nil {
			return common.Hash{}, err
		}
		p, err := parsePreimage(raw)
		if err != nil {
			return common.Hash{}, err
		}
		extra := map[string]typedValue{
			multiSigUserField: nativeAddressValue(payloadMultiSigUser),
			outerSignerField:  nativeAddressValue(outerSigner),
		}
		if _, ok := a.EmbeddedNonce(); !ok {
			extra["nonce"] = uintValue(meta.Nonce)
			extra["time"] = uintValue(meta.Nonce)
		}
		structHash, err := structHashFor(p, a, meta.Chain, extra)
		if err != nil {
			return common.Hash{}, err
		}
		domainHash, err := transactionDomain(meta.Chain)
		if err != nil {
			return common.Hash{}, err
		}
		return SigningDigest(domainHash, structHash), nil
	default:
		return common.Hash{}, fmt.Errorf("%w: %w: %s", ErrConfiguration, errUnknownActionType, k)
	}
}
