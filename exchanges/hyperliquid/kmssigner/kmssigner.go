// Package kmssigner signs Hyperliquid digests with a secp256k1 key held in
// AWS KMS.
package kmssigner

import (
	"context"
	"crypto/ecdsa"
	"encoding/asn1"
	"math/big"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/thrasher-corp/gct-hyperliquid/exchanges/hyperliquid"
	"github.com/thrasher-corp/gct-hyperliquid/log"
	"go.uber.org/zap"
)

var (
	secp256k1N     = crypto.S256().Params().N
	secp256k1HalfN = new(big.Int).Rsh(secp256k1N, 1)

	errKeyIDRequired     = errors.New("kms key id required")
	errClientRequired    = errors.New("kms client required")
	errRecoveryIDUnknown = errors.New("kms signature does not recover to the key address")
)

// API is the subset of the KMS client used for signing.
type API interface {
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
}

// Signer implements hyperliquid.AddressSigner with a KMS key.
type Signer struct {
	client  API
	keyID   string
	logger  *zap.Logger
	address common.Address
}

// NewFromConfig loads the default AWS configuration for region and returns a
// signer for keyID.
func NewFromConfig(ctx context.Context, region, keyID string, logger *zap.Logger) (*Signer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load aws config for region %s", region)
	}
	return New(ctx, kms.NewFromConfig(cfg), keyID, logger)
}

// New fetches the public key of keyID and derives its address. A nil logger
// uses the global logger.
func New(ctx context.Context, client API, keyID string, logger *zap.Logger) (*Signer, error) {
	if client == nil {
		return nil, errClientRequired
	}
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	if logger == nil {
		logger = log.Logger().With(zap.String("subsystem", log.KMSSys.Name()))
	}
	out, err := client.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: aws.String(keyID)})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get public key for key %s", keyID)
	}
	pub, err := parsePublicKey(out.PublicKey)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse public key for key %s", keyID)
	}
	s := &Signer{
		client:  client,
		keyID:   keyID,
		logger:  logger,
		address: crypto.PubkeyToAddress(*pub),
	}
	logger.Info("kms signer ready", zap.String("keyId", keyID), zap.String("address", s.address.Hex()))
	return s, nil
}

// Address implements hyperliquid.AddressSigner.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignDigest implements hyperliquid.Signer. KMS returns a DER signature
// without a recovery id, so s is normalised to the lower half of the curve
// order and the recovery id found by trial recovery.
func (s *Signer) SignDigest(ctx context.Context, digest common.Hash) (hyperliquid.Signature, error) {
	out, err := s.client.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(s.keyID),
		Message:          digest[:],
		MessageType:      types.MessageTypeDigest,
		SigningAlgorithm: types.SigningAlgorithmSpecEcdsaSha256,
	})
	if err != nil {
		return hyperliquid.Signature{}, errors.Wrapf(err, "kms sign with key %s", s.keyID)
	}
	var sig asn1EcSig
	if _, err := asn1.Unmarshal(out.Signature, &sig); err != nil {
		return hyperliquid.Signature{}, errors.Wrap(err, "failed to parse kms signature")
	}
	r := new(big.Int).SetBytes(sig.R.Bytes)
	sv := new(big.Int).SetBytes(sig.S.Bytes)
	if sv.Cmp(secp256k1HalfN) > 0 {
		sv.Sub(secp256k1N, sv)
	}
	candidate := hyperliquid.Signature{
		R: common.BigToHash(r),
		S: common.BigToHash(sv),
	}
	for v := uint8(0); v < 2; v++ {
		candidate.V = v
		addr, err := hyperliquid.RecoverAddress(digest, candidate)
		if err != nil {
			s.logger.Debug("recovery failed", zap.Uint8("recoveryId", v), zap.Error(err))
			continue
		}
		if addr == s.address {
			return candidate, nil
		}
	}
	return hyperliquid.Signature{}, errors.Wrapf(errRecoveryIDUnknown, "key %s address %s", s.keyID, s.address.Hex())
}

type asn1EcSig struct {
	R asn1.RawValue
	S asn1.RawValue
}

type asn1EcPublicKey struct {
	EcPublicKeyInfo asn1EcPublicKeyInfo
	PublicKey       asn1.BitString
}

type asn1EcPublicKeyInfo struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.ObjectIdentifier
}

// parsePublicKey parses a DER SubjectPublicKeyInfo holding a secp256k1 key.
func parsePublicKey(der []byte) (*ecdsa.PublicKey, error) {
	var pub asn1EcPublicKey
	if _, err := asn1.Unmarshal(der, &pub); err != nil {
		return nil, errors.Wrap(err, "failed to parse ASN.1 public key")
	}
	return crypto.UnmarshalPubkey(pub.PublicKey.Bytes)
}
