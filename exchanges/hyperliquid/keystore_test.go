package hyperliquid

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeystoreSigner(t *testing.T) {
	t.Parallel()
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(testPrivateKey, "0x"))
	require.NoError(t, err)
	keyJSON, err := keystore.EncryptKey(&keystore.Key{
		Address:    crypto.PubkeyToAddress(priv.PublicKey),
		PrivateKey: priv,
	}, "hunter2", keystore.LightScryptN, keystore.LightScryptP)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, keyJSON, 0o600))

	signer, err := LoadKeystoreSigner(path, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, testAddress, signer.HexAddress())

	_, err = LoadKeystoreSigner(path, "wrong")
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.ErrorIs(t, err, keystore.ErrDecrypt)

	_, err = LoadKeystoreSigner(filepath.Join(t.TempDir(), "missing.json"), "hunter2")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
