package hyperliquid

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	agentDomainName       = "Exchange"
	transactionDomainName = "HyperliquidSignTransaction"
	domainVersion         = "1"
	agentChainID          = 1337
	zeroAddress           = "0x0000000000000000000000000000000000000000"
	agentPrimaryType      = "Agent"
)

var (
	eip712DomainFields = []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	}
	agentFields = []apitypes.Type{
		{Name: "source", Type: "string"},
		{Name: "connectionId", Type: "bytes32"},
	}

	agentTypeHash         = crypto.Keccak256Hash([]byte("Agent(string source,bytes32 connectionId)"))
	agentDomainSeparator  = mustDomainSeparator(agentDomainName, agentChainID)
	transactionDomainsMu  sync.RWMutex
	transactionDomainsMap = map[uint64]common.Hash{}
)

func domain(name string, chainID uint64) apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              name,
		Version:           domainVersion,
		ChainId:           (*ethmath.HexOrDecimal256)(new(big.Int).SetUint64(chainID)),
		VerifyingContract: zeroAddress,
	}
}

// DomainSeparator returns the EIP-712 domain hash for name and chainID with
// version "1" and the zero verifying contract.
func DomainSeparator(name string, chainID uint64) (common.Hash, error) {
	td := apitypes.TypedData{
		Types:  apitypes.Types{"EIP712Domain": eip712DomainFields},
		Domain: domain(name, chainID),
	}
	h, err := td.HashStruct("EIP712Domain", td.Domain.Map())
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: domain separator: %w", ErrEncodingFailure, err)
	}
	return common.BytesToHash(h), nil
}

func mustDomainSeparator(name string, chainID uint64) common.Hash {
	h, err := DomainSeparator(name, chainID)
	if err != nil {
		panic(err)
	}
	return h
}

// transactionDomain returns the user-signed domain hash for chain, cached per
// signature chain id.
func transactionDomain(chain SigningChain) (common.Hash, error) {
	id := chain.SignatureChainID()
	transactionDomainsMu.RLock()
	h, ok := transactionDomainsMap[id]
	transactionDomainsMu.RUnlock()
	if ok {
		return h, nil
	}
	h, err := DomainSeparator(transactionDomainName, id)
	if err != nil {
		return common.Hash{}, err
	}
	transactionDomainsMu.Lock()
	transactionDomainsMap[id] = h
	transactionDomainsMu.Unlock()
	return h, nil
}

// SigningDigest is keccak256(0x19 0x01 || domainSeparator || structHash).
func SigningDigest(domainSeparator, structHash common.Hash) common.Hash {
	var buf [2 + common.HashLength*2]byte
	buf[0], buf[1] = 0x19, 0x01
	copy(buf[2:], domainSeparator[:])
	copy(buf[2+common.HashLength:], structHash[:])
	return crypto.Keccak256Hash(buf[:])
}

func agentStructHash(source string, connectionID common.Hash) common.Hash {
	return crypto.Keccak256Hash(agentTypeHash[:], crypto.Keccak256([]byte(source)), connectionID[:])
}

// SigningData is the single value an external signer needs to produce a
// signature: either an L1 Agent envelope or a finished typed data hash.
type SigningData interface {
	// Digest returns the 32 byte prehash that is signed.
	Digest() common.Hash
	Scheme() Scheme
}

// L1SigningData is the Agent envelope around a connection id.
type L1SigningData struct {
	ConnectionID common.Hash
	Source       string
}

// Digest implements SigningData.
func (d L1SigningData) Digest() common.Hash {
	return SigningDigest(agentDomainSeparator, agentStructHash(d.Source, d.ConnectionID))
}

// Scheme implements SigningData.
func (L1SigningData) Scheme() Scheme {
	return SchemeL1
}

// TypedData returns the Agent envelope as go-ethereum typed data, for signers
// which want the full structure rather than the digest.
func (d L1SigningData) TypedData() apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain":   eip712DomainFields,
			agentPrimaryType: agentFields,
		},
		PrimaryType: agentPrimaryType,
		Domain:      domain(agentDomainName, agentChainID),
		Message: apitypes.TypedDataMessage{
			"source":       d.Source,
			"connectionId": d.ConnectionID.Bytes(),
		},
	}
}

// TypedSigningData carries the finished EIP-712 hash of a user-signed action.
type TypedSigningData struct {
	Hash common.Hash
}

// Digest implements SigningData.
func (d TypedSigningData) Digest() common.Hash {
	return d.Hash
}

// Scheme implements SigningData.
func (TypedSigningData) Scheme() Scheme {
	return SchemeUserSigned
}
