package kmssigner

import (
	"context"
	"crypto/ecdsa"
	"encoding/asn1"
	"errors"
	"math/big"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/gct-hyperliquid/exchanges/hyperliquid"
	"go.uber.org/zap"
)

const testKeyID = "alias/hyperliquid-test"

var (
	oidECPublicKey = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidSecp256k1   = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
)

type derSig struct {
	R, S *big.Int
}

// fakeKMS signs with a local key and answers like KMS. highS flips s into
// the upper half of the curve order.
type fakeKMS struct {
	key     *ecdsa.PrivateKey
	highS   bool
	signErr error
}

func (f *fakeKMS) GetPublicKey(_ context.Context, in *kms.GetPublicKeyInput, _ ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error) {
	pub := crypto.FromECDSAPub(&f.key.PublicKey)
	der, err := asn1.Marshal(asn1EcPublicKey{
		EcPublicKeyInfo: asn1EcPublicKeyInfo{Algorithm: oidECPublicKey, Parameters: oidSecp256k1},
		PublicKey:       asn1.BitString{Bytes: pub, BitLength: 8 * len(pub)},
	})
	if err != nil {
		return nil, err
	}
	return &kms.GetPublicKeyOutput{KeyId: in.KeyId, PublicKey: der}, nil
}

func (f *fakeKMS) Sign(_ context.Context, in *kms.SignInput, _ ...func(*kms.Options)) (*kms.SignOutput, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	if in.MessageType != types.MessageTypeDigest || in.SigningAlgorithm != types.SigningAlgorithmSpecEcdsaSha256 {
		return nil, errors.New("unexpected signing parameters")
	}
	sig, err := crypto.Sign(in.Message, f.key)
	if err != nil {
		return nil, err
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if f.highS {
		s.Sub(secp256k1N, s)
	}
	der, err := asn1.Marshal(derSig{R: r, S: s})
	if err != nil {
		return nil, err
	}
	return &kms.SignOutput{KeyId: in.KeyId, Signature: der}, nil
}

func newTestKMS(t *testing.T) *fakeKMS {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &fakeKMS{key: key}
}

func TestSignDigest(t *testing.T) {
	t.Parallel()
	for _, highS := range []bool{false, true} {
		f := newTestKMS(t)
		f.highS = highS
		s, err := New(context.Background(), f, testKeyID, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, crypto.PubkeyToAddress(f.key.PublicKey), s.Address())

		for i := 0; i < 8; i++ {
			digest := crypto.Keccak256Hash([]byte{byte(i)})
			sig, err := s.SignDigest(context.Background(), digest)
			require.NoError(t, err)
			assert.LessOrEqual(t, sig.S.Big().Cmp(secp256k1HalfN), 0, "s must be normalised")
			got, err := hyperliquid.RecoverAddress(digest, sig)
			require.NoError(t, err)
			assert.Equal(t, s.Address(), got)
		}
	}
}

func TestSignsHyperliquidActions(t *testing.T) {
	t.Parallel()
	s, err := New(context.Background(), newTestKMS(t), testKeyID, nil)
	require.NoError(t, err)
	p, err := hyperliquid.Prepare(&hyperliquid.Noop{}, hyperliquid.Testnet, nil, nil, hyperliquid.FixedClock(1))
	require.NoError(t, err)
	signed, err := p.Sign(context.Background(), s)
	require.NoError(t, err)
	got, err := signed.RecoverSigner(hyperliquid.Testnet)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), got)
}

func TestSignerErrors(t *testing.T) {
	t.Parallel()
	_, err := New(context.Background(), nil, testKeyID, nil)
	assert.ErrorIs(t, err, errClientRequired)
	_, err = New(context.Background(), newTestKMS(t), "", nil)
	assert.ErrorIs(t, err, errKeyIDRequired)

	f := newTestKMS(t)
	s, err := New(context.Background(), f, testKeyID, zap.NewNop())
	require.NoError(t, err)
	f.signErr = errors.New("AccessDeniedException")
	_, err = s.SignDigest(context.Background(), common.Hash{1})
	assert.ErrorContains(t, err, "AccessDeniedException")

	f.signErr = nil
	other := newTestKMS(t)
	s.client = other
	_, err = s.SignDigest(context.Background(), common.Hash{1})
	assert.ErrorIs(t, err, errRecoveryIDUnknown, "a signature from another key must not be accepted")

	_, err = parsePublicKey([]byte{0x01})
	assert.Error(t, err)
}
