package hyperliquid

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	agentTestKey        = "e908f86dbb4d55ac876378565aafeabc187f6690f046459397b17d9b9a19688e"
	agentConnectionID   = "0xde6c4037798a4434ca03cd05f00e3b803126221375cd1e7eaaaf041768be06eb"
	deployerTestKey     = "0x0123456789012345678901234567890123456789012345678901234567890123"
	transferDestination = "0x0d1d9635d0640821d15e323ac8adadfa9c111414"
)

func TestAgentSignatureKnownAnswer(t *testing.T) {
	t.Parallel()
	signer := mustLocalSigner(t, agentTestKey)
	id := mustHash(t, agentConnectionID)
	for _, tc := range []struct {
		chain SigningChain
		want  string
	}{
		{Mainnet, "0xfa8a41f6a3fa728206df80801a83bcbfbab08649cd34d9c0bfba7c7b2f99340f53a00226604567b98a1492803190d65a201d6805e5831b7044f17fd530aec7841c"},
		{Testnet, "0x1713c0fc661b792a50e8ffdd59b637b1ed172d9a3aa4d801d9d88646710fb74b33959f4d075a7ccbec9f2374a6da21ffa4448d58d0413a0d335775f680a881431c"},
	} {
		tc := tc
		t.Run(tc.chain.String(), func(t *testing.T) {
			t.Parallel()
			data := L1SigningData{ConnectionID: id, Source: tc.chain.Source()}
			sig, err := signer.SignDigest(context.Background(), data.Digest())
			require.NoError(t, err)
			assert.Equal(t, tc.want, sig.String())
			got, err := RecoverAddress(data.Digest(), sig)
			require.NoError(t, err)
			assert.Equal(t, signer.Address(), got)
		})
	}
}

func newTestRegisterAsset(schema *PerpDexSchemaInput) *RegisterAsset {
	return &RegisterAsset{
		MaxGas: ptrTo(uint64(1000000000000)),
		AssetRequest: RegisterAssetRequest{
			Coin:          "ddd:TEST0",
			SzDecimals:    2,
			OraclePx:      "10.0",
			MarginTableID: 10,
			OnlyIsolated:  true,
		},
		Dex:    "ddd",
		Schema: schema,
	}
}

func TestRegisterAssetKnownAnswer(t *testing.T) {
	t.Parallel()
	signer := mustLocalSigner(t, deployerTestKey)
	updater := NewAddress(signer.Address())
	for _, tc := range []struct {
		name   string
		schema *PerpDexSchemaInput
		want   string
	}{
		{"no schema", nil, "0x90ce842264d3024c2fcd76cec1283c9afc76e0b67d27018d90dd2d52f37ddb8366c30d2676f5c057eda65bc7e8633ace0b3a24d9a4f6a03fed462035b0e018e71c"},
		{"schema", &PerpDexSchemaInput{FullName: "Test DEX", CollateralToken: 1452, OracleUpdater: &updater}, "0xa52d17bc32add97d991798ac20d224501c8b01b82e07e336bd98049b905702cc329653c8eaed0c2e28241112a9a9fe0965a27540a25c725992d452c2b5fc17c31b"},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a := WithNonce(newTestRegisterAsset(tc.schema), 0)
			p, err := Prepare(a, Testnet, nil, nil, nil)
			require.NoError(t, err)
			assert.Zero(t, p.Nonce)
			s, err := p.Sign(context.Background(), signer)
			require.NoError(t, err)
			assert.Equal(t, tc.want, s.Signature.String())
		})
	}
}

func TestAgentDigestMatchesTypedData(t *testing.T) {
	t.Parallel()
	data := L1SigningData{ConnectionID: mustHash(t, agentConnectionID), Source: Mainnet.Source()}
	want, _, err := apitypes.TypedDataAndHash(data.TypedData())
	require.NoError(t, err)
	assert.Equal(t, common.BytesToHash(want), data.Digest())
	assert.Equal(t, SchemeL1, data.Scheme())
}

func TestUserSignedDigestMatchesTypedData(t *testing.T) {
	t.Parallel()
	a := WithNonce(&UsdSend{Destination: MustParseAddress(transferDestination), Amount: MustAmount("1.0")}, testNonce)
	digest, err := SigningHash(a, &SigningMeta{Nonce: testNonce, Chain: Testnet})
	require.NoError(t, err)

	td := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": eip712DomainFields,
			"HyperliquidTransaction:UsdSend": {
				{Name: "hyperliquidChain", Type: "string"},
				{Name: "destination", Type: "string"},
				{Name: "amount", Type: "string"},
				{Name: "time", Type: "uint64"},
			},
		},
		PrimaryType: "HyperliquidTransaction:UsdSend",
		Domain:      domain(transactionDomainName, Testnet.SignatureChainID()),
		Message: apitypes.TypedDataMessage{
			"hyperliquidChain": "Testnet",
			"destination":      transferDestination,
			"amount":           "1.0",
			"time":             "1700000000000",
		},
	}
	want, _, err := apitypes.TypedDataAndHash(td)
	require.NoError(t, err)
	assert.Equal(t, common.BytesToHash(want), digest)
}

func TestAddressFieldsHashAsStrings(t *testing.T) {
	t.Parallel()
	agent := MustParseAddress("0x00000000000000000000000000000000000000AB")
	a := WithNonce(&ApproveAgent{AgentAddress: agent, AgentName: "bot"}, 7)
	got, err := StructHash(a, Mainnet)
	require.NoError(t, err)

	word := func(b []byte) []byte { return common.LeftPadBytes(b, 32) }
	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], 7)
	want := crypto.Keccak256Hash(
		crypto.Keccak256([]byte(KindApproveAgent.TypePreimage())),
		crypto.Keccak256([]byte("Mainnet")),
		crypto.Keccak256([]byte("0x00000000000000000000000000000000000000ab")),
		crypto.Keccak256([]byte("bot")),
		word(nonce[:]),
	)
	assert.Equal(t, want, got)
}

func TestStructHashErrors(t *testing.T) {
	t.Parallel()
	_, err := StructHash(&UsdSend{Amount: MustAmount("1")}, Mainnet)
	assert.ErrorIs(t, err, ErrConfiguration, "missing nonce must error")
	assert.ErrorIs(t, err, errNonceMissing)

	_, err = StructHash(&Noop{}, Mainnet)
	assert.ErrorIs(t, err, ErrConfiguration, "L1 action must not have a struct hash")

	bad, err := parsePreimage("HyperliquidTransaction:Bad(string hyperliquidChain,string bogus,uint64 time)")
	require.NoError(t, err)
	_, err = structHashFor(bad, WithNonce(&UsdSend{}, 1), Mainnet, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.ErrorIs(t, err, errUnboundTypedField)

	narrow, err := parsePreimage("HyperliquidTransaction:Narrow(string hyperliquidChain,uint8 time)")
	require.NoError(t, err)
	_, err = structHashFor(narrow, WithNonce(&UsdSend{}, 300), Mainnet, nil)
	assert.ErrorIs(t, err, ErrEncodingFailure)
	assert.ErrorIs(t, err, errUintOverflow)

	mismatch, err := parsePreimage("HyperliquidTransaction:Mismatch(string hyperliquidChain,bool amount,uint64 time)")
	require.NoError(t, err)
	_, err = structHashFor(mismatch, WithNonce(&UsdSend{}, 1), Mainnet, nil)
	assert.ErrorIs(t, err, errTypedFieldMismatch)
}

func TestParsePreimageErrors(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{
		"NoParens",
		"X(string a",
		"X(string)",
		"X(string a,string a)",
		"X(int64 a)",
		"X(uint7 a)",
	} {
		_, err := parsePreimage(raw)
		assert.ErrorIs(t, err, ErrConfiguration, raw)
	}
}

func TestKindTableIsValid(t *testing.T) {
	t.Parallel()
	for _, k := range Kinds() {
		assert.True(t, k.Valid(), k.String())
		assert.NotEmpty(t, k.ActionType(), k.String())
		assert.Equal(t, k, k.descriptor().newAction().Kind())
		if k.Scheme() == SchemeUserSigned {
			assert.True(t, strings.HasPrefix(k.TypePreimage(), typedPrimaryPrefix), k.String())
			assert.False(t, k.ExcludeVaultFromHash(), k.String())
		}
	}
	assert.False(t, KindUnknown.Valid())
	assert.Equal(t, SchemeUnknown, Classify(nil))
	assert.Equal(t, SchemeL1, Classify(&BulkOrder{}))
	assert.Equal(t, SchemeUserSigned, Classify(&UsdSend{}))
	assert.True(t, KindPerpDeploySetOracle.ExcludeVaultFromHash())
	assert.False(t, KindOrder.ExcludeVaultFromHash())
	assert.Equal(t, "registerAsset", KindPerpDeployRegisterAsset.PayloadKey())
	assert.Equal(t, "perpDeploy", KindPerpDeployRegisterAsset.ActionType())
}

func TestVaultExcludedFromAdminHash(t *testing.T) {
	t.Parallel()
	vault := common.HexToAddress(testVault)
	without, err := Prepare(WithNonce(newTestRegisterAsset(nil), 1), Mainnet, nil, nil, nil)
	require.NoError(t, err)
	with, err := Prepare(WithNonce(newTestRegisterAsset(nil), 1), Mainnet, &vault, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, without.Digest(), with.Digest(), "vault must not change an admin digest")

	signer := mustLocalSigner(t, testPrivateKey)
	bodyWithout, err := without.WithSignature(Signature{}).MarshalJSON()
	require.NoError(t, err)
	bodyWith, err := with.WithSignature(Signature{}).MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(bodyWithout), "vaultAddress")
	assert.Contains(t, string(bodyWith), `"vaultAddress":"`+testVault+`"`)

	orderWithout, err := Prepare(WithNonce(&Noop{}, 1), Mainnet, nil, nil, nil)
	require.NoError(t, err)
	orderWith, err := Prepare(WithNonce(&Noop{}, 1), Mainnet, &vault, nil, nil)
	require.NoError(t, err)
	assert.NotEqual(t, orderWithout.Digest(), orderWith.Digest(), "vault must change a trading digest")

	s, err := with.Sign(context.Background(), signer)
	require.NoError(t, err)
	got, err := s.RecoverSigner(Mainnet)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), got)
}

func TestEncodeForHashLayout(t *testing.T) {
	t.Parallel()
	prefix := []byte{0x82, 0xa4, 't', 'y', 'p', 'e', 0xa4, 'n', 'o', 'o', 'p', 0xa4, 'n', 'o', 'o', 'p', 0x80}
	nonce := []byte{0, 0, 0, 0, 0, 0, 0, 1}
	vault := common.HexToAddress(testVault)
	expires := uint64(2)
	expiresWord := []byte{0, 0, 0, 0, 0, 0, 0, 2}

	join := func(parts ...[]byte) []byte { return bytes.Join(parts, nil) }
	for _, tc := range []struct {
		name    string
		vault   *common.Address
		expires *uint64
		want    []byte
	}{
		{"bare", nil, nil, join(prefix, nonce, []byte{0x00})},
		{"vault", &vault, nil, join(prefix, nonce, []byte{0x01}, vault[:])},
		{"expiry", nil, &expires, join(prefix, nonce, []byte{0x00}, []byte{0x00}, expiresWord)},
		{"vault and expiry", &vault, &expires, join(prefix, nonce, []byte{0x01}, vault[:], []byte{0x00}, expiresWord)},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := EncodeForHash(&Noop{}, 1, tc.vault, tc.expires)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := EncodeForHash(&UsdSend{}, 1, nil, nil)
	assert.ErrorIs(t, err, ErrConfiguration, "user-signed actions must not be msgpack hashed")
}

func TestCompactIntegerEncoding(t *testing.T) {
	t.Parallel()
	got, err := EncodeForHash(&UpdateLeverage{Asset: 1, IsCross: true, Leverage: 200}, 0, nil, nil)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(got, []byte{0xa8, 'l', 'e', 'v', 'e', 'r', 'a', 'g', 'e', 0xcc, 200}), "leverage must encode as uint8")
	assert.True(t, bytes.Contains(got, []byte{0xa5, 'a', 's', 's', 'e', 't', 0x01}), "asset must encode as a positive fixint")
}

func TestRecoverSignerBothSchemes(t *testing.T) {
	t.Parallel()
	signer := mustLocalSigner(t, testPrivateKey)
	require.Equal(t, testAddress, signer.HexAddress())
	for _, a := range []Action{
		&BulkOrder{Orders: []OrderWire{{Asset: 0, IsBuy: true, LimitPx: "100", Size: "0.1", OrderType: OrderTypeWire{Limit: &LimitOrderWire{TimeInForce: TimeInForceGTC}}}}, Grouping: GroupingNA},
		&UsdSend{Destination: MustParseAddress(transferDestination), Amount: MustAmount("1.0")},
		&UsdClassTransfer{Amount: MustAmount("5"), ToPerp: true},
	} {
		a := a
		t.Run(a.Kind().String(), func(t *testing.T) {
			t.Parallel()
			p, err := Prepare(a, Testnet, nil, nil, testClock)
			require.NoError(t, err)
			assert.Equal(t, testNonce, p.Nonce)
			assert.Equal(t, a.Kind().Scheme(), p.SigningData().Scheme())
			s, err := p.Sign(context.Background(), signer)
			require.NoError(t, err)
			got, err := s.RecoverSigner(Testnet)
			require.NoError(t, err)
			assert.Equal(t, signer.Address(), got)

			other, err := s.RecoverSigner(Mainnet)
			require.NoError(t, err)
			assert.NotEqual(t, signer.Address(), other, "a different chain must recover a different address")
		})
	}
}

func TestPrepareNonceHandling(t *testing.T) {
	t.Parallel()
	embedded := WithNonce(&UsdSend{Amount: MustAmount("1")}, 42)
	p, err := Prepare(embedded, Mainnet, nil, nil, testClock)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), p.Nonce, "embedded nonce must win over the clock")

	a := &Noop{}
	p, err = Prepare(a, Mainnet, nil, nil, FixedClock(9))
	require.NoError(t, err)
	assert.Equal(t, uint64(9), p.Nonce)
	n, ok := a.EmbeddedNonce()
	require.True(t, ok, "prepare must bind the nonce onto the action")
	assert.Equal(t, uint64(9), n)
	WithNonce(a, 10)
	n, _ = a.EmbeddedNonce()
	assert.Equal(t, uint64(9), n, "a bound nonce must never change")

	_, err = Prepare(&Noop{}, Mainnet, nil, nil, ClockFunc(func() time.Time { return time.UnixMilli(-1) }))
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.ErrorIs(t, err, errNegativeNonceTimestamp)

	_, err = Prepare(&Noop{}, SigningChain{}, nil, nil, testClock)
	assert.ErrorIs(t, err, errChainRequired)

	_, err = Prepare(nil, Mainnet, nil, nil, testClock)
	assert.ErrorIs(t, err, errActionRequired)
}

func TestPrepareIsDeterministic(t *testing.T) {
	t.Parallel()
	first, err := Prepare(&SetReferrer{Code: "ABC"}, Mainnet, nil, ptrTo(uint64(5)), testClock)
	require.NoError(t, err)
	second, err := Prepare(&SetReferrer{Code: "ABC"}, Mainnet, nil, ptrTo(uint64(5)), testClock)
	require.NoError(t, err)
	assert.Equal(t, first.Digest(), second.Digest())
}

type failingSigner struct{}

func (failingSigner) SignDigest(context.Context, common.Hash) (Signature, error) {
	return Signature{}, errors.New("device unplugged")
}

func TestSignFailures(t *testing.T) {
	t.Parallel()
	p, err := Prepare(&Noop{}, Mainnet, nil, nil, testClock)
	require.NoError(t, err)
	_, err = p.Sign(context.Background(), failingSigner{})
	assert.ErrorIs(t, err, ErrSignatureFailure)
	assert.ErrorContains(t, err, "device unplugged")

	_, err = p.Sign(context.Background(), nil)
	assert.ErrorIs(t, err, ErrSignatureFailure)
}

func TestWithSignatureBypass(t *testing.T) {
	t.Parallel()
	signer := mustLocalSigner(t, testPrivateKey)
	p, err := Prepare(&ClaimRewards{}, Mainnet, nil, nil, testClock)
	require.NoError(t, err)
	sig, err := signer.SignDigest(context.Background(), p.Digest())
	require.NoError(t, err)
	s := p.WithSignature(sig)
	assert.Equal(t, p.Nonce, s.Nonce)
	got, err := s.RecoverSigner(Mainnet)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), got)
}

func TestSignatureParsing(t *testing.T) {
	t.Parallel()
	raw := bytes.Repeat([]byte{1}, 65)
	raw[64] = 28
	sig, err := SignatureFromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), sig.V)
	assert.Equal(t, byte(1), sig.Bytes()[64])

	back, err := SignatureFromHex(sig.String())
	require.NoError(t, err)
	assert.Equal(t, sig, back)

	raw[64] = 29
	_, err = SignatureFromBytes(raw)
	assert.ErrorIs(t, err, ErrRecoverAddressFailure)
	_, err = SignatureFromBytes(raw[:10])
	assert.ErrorIs(t, err, ErrRecoverAddressFailure)
	_, err = RecoverAddress(common.Hash{}, Signature{V: 3})
	assert.ErrorIs(t, err, ErrRecoverAddressFailure)
	_, err = RecoverAddress(common.Hash{1}, Signature{})
	assert.ErrorIs(t, err, ErrRecoverAddressFailure)
}

func TestNewLocalSignerErrors(t *testing.T) {
	t.Parallel()
	_, err := NewLocalSigner("")
	assert.ErrorIs(t, err, errPrivateKeyNotProvided)
	_, err = NewLocalSigner("0xzz")
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = NewLocalSigner("0x0102")
	assert.ErrorIs(t, err, errInvalidPrivateKeyLength)
}
