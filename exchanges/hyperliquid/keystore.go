package hyperliquid

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/keystore"
)

// LoadKeystoreSigner decrypts an encrypted JSON key file.
func LoadKeystoreSigner(path, passphrase string) (*LocalSigner, error) {
	keyJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read keystore: %w", ErrConfiguration, err)
	}
	return DecryptKeystoreSigner(keyJSON, passphrase)
}

// DecryptKeystoreSigner decrypts keyJSON with passphrase.
func DecryptKeystoreSigner(keyJSON []byte, passphrase string) (*LocalSigner, error) {
	key, err := keystore.DecryptKey(keyJSON, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypt keystore: %w", ErrConfiguration, err)
	}
	return NewLocalSignerFromKey(key.PrivateKey), nil
}
