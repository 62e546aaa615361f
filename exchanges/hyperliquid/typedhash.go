package hyperliquid

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	typedPrimaryPrefix    = "HyperliquidTransaction:"
	hyperliquidChainField = "hyperliquidChain"
)

var (
	bytes32Type = mustABIType("bytes32")
	addressType = mustABIType("address")
	boolType    = mustABIType("bool")
)

func mustABIType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

type typedParam struct {
	typ  string
	name string
	bits int
	abi  abi.Type
}

// typedPreimage is a parsed EIP-712 type string such as
// "HyperliquidTransaction:UsdSend(string hyperliquidChain,uint64 time)".
type typedPreimage struct {
	raw      string
	primary  string
	params   []typedParam
	typeHash common.Hash
}

func parsePreimage(raw string) (*typedPreimage, error) {
	open := strings.IndexByte(raw, '(')
	if open <= 0 || !strings.HasSuffix(raw, ")") {
		return nil, fmt.Errorf("%w: %w %q", ErrConfiguration, errMalformedPreimage, raw)
	}
	p := &typedPreimage{
		raw:      raw,
		primary:  raw[:open],
		typeHash: crypto.Keccak256Hash([]byte(raw)),
	}
	body := raw[open+1 : len(raw)-1]
	if body == "" {
		return p, nil
	}
	seen := make(map[string]struct{})
	for _, field := range strings.Split(body, ",") {
		parts := strings.Split(field, " ")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("%w: %w field %q in %q", ErrConfiguration, errMalformedPreimage, field, raw)
		}
		if _, dup := seen[parts[1]]; dup {
			return nil, fmt.Errorf("%w: %w duplicate field %q", ErrConfiguration, errMalformedPreimage, parts[1])
		}
		seen[parts[1]] = struct{}{}
		param := typedParam{typ: parts[0], name: parts[1]}
		switch {
		case param.typ == "string", param.typ == "address", param.typ == "bool", param.typ == "bytes32":
		case strings.HasPrefix(param.typ, "uint"):
			bits, err := strconv.Atoi(strings.TrimPrefix(param.typ, "uint"))
			if err != nil || bits <= 0 || bits > 256 || bits%8 != 0 {
				return nil, fmt.Errorf("%w: %w %q", ErrConfiguration, errUnsupportedTypedType, param.typ)
			}
			param.bits = bits
			param.abi = mustABIType(param.typ)
		default:
			return nil, fmt.Errorf("%w: %w %q", ErrConfiguration, errUnsupportedTypedType, param.typ)
		}
		p.params = append(p.params, param)
	}
	return p, nil
}

// String returns the preimage as written.
func (p *typedPreimage) String() string {
	return p.raw
}

type typedValueKind uint8

const (
	typedString typedValueKind = iota + 1
	typedAccount
	typedNativeAddress
	typedUint
	typedBool
	typedBytes32
)

// typedValue is a field value handed to the struct hash builder. Account
// addresses are hashed as their lowercase hex string even when the preimage
// declares them as address; only multi-sig injected addresses are native.
type typedValue struct {
	kind typedValueKind
	str  string
	addr common.Address
	num  uint64
	flag bool
	word common.Hash
}

func stringValue(s string) typedValue   { return typedValue{kind: typedString, str: s} }
func accountValue(a Address) typedValue { return typedValue{kind: typedAccount, addr: a.Address} }
func nativeAddressValue(a common.Address) typedValue {
	return typedValue{kind: typedNativeAddress, addr: a}
}
func uintValue(n uint64) typedValue { return typedValue{kind: typedUint, num: n} }
func boolValue(b bool) typedValue   { return typedValue{kind: typedBool, flag: b} }

// typedAction is implemented by user-signed actions.
type typedAction interface {
	Action
	typedValue(name string) (typedValue, bool)
}

// abiWord returns the ABI type and Go value used to encode v for param.
func abiWord(param typedParam, v typedValue) (abi.Type, any, error) {
	mismatch := func() (abi.Type, any, error) {
		return abi.Type{}, nil, fmt.Errorf("%w: %w: %s declared %s", ErrConfiguration, errTypedFieldMismatch, param.name, param.typ)
	}
	switch v.kind {
	case typedString:
		if param.typ != "string" {
			return mismatch()
		}
		return bytes32Type, [32]byte(crypto.Keccak256Hash([]byte(v.str))), nil
	case typedAccount:
		if param.typ != "string" && param.typ != "address" {
			return mismatch()
		}
		return bytes32Type, [32]byte(crypto.Keccak256Hash([]byte(strings.ToLower(v.addr.Hex())))), nil
	case typedNativeAddress:
		switch param.typ {
		case "address":
			return addressType, v.addr, nil
		case "string":
			return bytes32Type, [32]byte(crypto.Keccak256Hash([]byte(strings.ToLower(v.addr.Hex())))), nil
		}
		return mismatch()
	case typedUint:
		if param.bits == 0 {
			return mismatch()
		}
		if param.bits < 64 && v.num>>param.bits != 0 {
			return abi.Type{}, nil, fmt.Errorf("%w: %w: %s=%d does not fit %s", ErrEncodingFailure, errUintOverflow, param.name, v.num, param.typ)
		}
		switch param.bits {
		case 8:
			return param.abi, uint8(v.num), nil
		case 16:
			return param.abi, uint16(v.num), nil
		case 32:
			return param.abi, uint32(v.num), nil
		case 64:
			return param.abi, v.num, nil
		}
		return param.abi, new(big.Int).SetUint64(v.num), nil
	case typedBool:
		if param.typ != "bool" {
			return mismatch()
		}
		return boolType, v.flag, nil
	case typedBytes32:
		if param.typ != "bytes32" {
			return mismatch()
		}
		return bytes32Type, [32]byte(v.word), nil
	}
	return mismatch()
}

// structHashFor computes the EIP-712 struct hash of a against p. extra
// supplies values for parameters that are not action fields.
func structHashFor(p *typedPreimage, a Action, chain SigningChain, extra map[string]typedValue) (common.Hash, error) {
	ta, ok := a.(typedAction)
	if !ok {
		return common.Hash{}, fmt.Errorf("%w: %w: %s", ErrConfiguration, errNotTypedDataAction, a.Kind())
	}
	args := make(abi.Arguments, 0, len(p.params)+1)
	values := make([]any, 0, len(p.params)+1)
	args = append(args, abi.Argument{Type: bytes32Type})
	values = append(values, [32]byte(p.typeHash))
	for _, param := range p.params {
		v, err := resolveTypedValue(param, ta, chain, extra)
		if err != nil {
			return common.Hash{}, err
		}
		typ, goValue, err := abiWord(param, v)
		if err != nil {
			return common.Hash{}, err
		}
		args = append(args, abi.Argument{Type: typ})
		values = append(values, goValue)
	}
	packed, err := args.Pack(values...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: abi encode %s: %w", ErrEncodingFailure, p.primary, err)
	}
	return crypto.Keccak256Hash(packed), nil
}

func resolveTypedValue(param typedParam, a typedAction, chain SigningChain, extra map[string]typedValue) (typedValue, error) {
	if v, ok := extra[param.name]; ok {
		return v, nil
	}
	switch param.name {
	case hyperliquidChainField:
		return stringValue(chain.HyperliquidChain()), nil
	case "nonce", "time":
		n, ok := a.EmbeddedNonce()
		if !ok {
			return typedValue{}, fmt.Errorf("%w: %w: %s", ErrConfiguration, errNonceMissing, param.name)
		}
		return uintValue(n), nil
	}
	v, ok := a.typedValue(param.name)
	if !ok {
		return typedValue{}, fmt.Errorf("%w: %w: %s on %s", ErrConfiguration, errUnboundTypedField, param.name, a.Kind())
	}
	return v, nil
}

// StructHash returns the EIP-712 struct hash of a user-signed action.
func StructHash(a Action, chain SigningChain) (common.Hash, error) {
	if a == nil {
		return common.Hash{}, errActionRequired
	}
	d := a.Kind().descriptor()
	if d == nil || d.parsed == nil {
		return common.Hash{}, fmt.Errorf("%w: %w: %s", ErrConfiguration, errNotTypedDataAction, a.Kind())
	}
	return structHashFor(d.parsed, a, chain, nil)
}
