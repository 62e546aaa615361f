package hyperliquid

import (
	"fmt"
	"strconv"
	"strings"
)

// Chain identifiers.
const (
	mainnetChainName = "Mainnet"
	testnetChainName = "Testnet"

	mainnetSignatureChainID uint64 = 42161
	testnetSignatureChainID uint64 = 421614
)

// SigningChain selects the network an action is signed for. It fixes the
// Agent source tag, the hyperliquidChain string and the typed data chain id.
type SigningChain struct {
	source           string
	name             string
	signatureChainID uint64
}

// Known chains.
var (
	Mainnet = SigningChain{source: "a", name: mainnetChainName, signatureChainID: mainnetSignatureChainID}
	Testnet = SigningChain{source: "b", name: testnetChainName, signatureChainID: testnetSignatureChainID}
)

// CustomChain returns a chain with caller supplied parameters.
func CustomChain(source, name string, signatureChainID uint64) SigningChain {
	return SigningChain{source: source, name: name, signatureChainID: signatureChainID}
}

// ChainByName resolves "mainnet" or "testnet" case-insensitively.
func ChainByName(name string) (SigningChain, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mainnet":
		return Mainnet, nil
	case "testnet":
		return Testnet, nil
	}
	return SigningChain{}, fmt.Errorf("%w: unknown chain %q", ErrConfiguration, name)
}

// chainFromWire maps the hyperliquidChain and signatureChainId of a decoded
// user-signed action back onto a known chain where possible.
func chainFromWire(name, signatureChainID string) (SigningChain, error) {
	id, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(signatureChainID), "0x"), 16, 64)
	if err != nil {
		return SigningChain{}, fmt.Errorf("%w: signatureChainId %q: %w", ErrEncodingFailure, signatureChainID, err)
	}
	for _, c := range []SigningChain{Mainnet, Testnet} {
		if c.name == name && c.signatureChainID == id {
			return c, nil
		}
	}
	return CustomChain("", name, id), nil
}

// Source is the Agent source tag for L1 actions.
func (c SigningChain) Source() string {
	return c.source
}

// HyperliquidChain is the chain name hashed into user-signed actions.
func (c SigningChain) HyperliquidChain() string {
	return c.name
}

// SignatureChainID is the EIP-712 chain id for user-signed actions.
func (c SigningChain) SignatureChainID() uint64 {
	return c.signatureChainID
}

// SignatureChainIDHex is SignatureChainID as sent on the wire.
func (c SigningChain) SignatureChainIDHex() string {
	return "0x" + strconv.FormatUint(c.signatureChainID, 16)
}

// IsZero reports whether the chain is unset.
func (c SigningChain) IsZero() bool {
	return c == SigningChain{}
}

// IsMainnet reports whether c is the mainnet chain.
func (c SigningChain) IsMainnet() bool {
	return c == Mainnet
}

func (c SigningChain) String() string {
	if c.IsZero() {
		return "unset"
	}
	return fmt.Sprintf("%s(%s)", c.name, c.SignatureChainIDHex())
}
