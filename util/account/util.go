package account

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

func PrivateKeyFromKeystore(file string, password string) (*ecdsa.PrivateKey, error) {
	json, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("couldn't read keystore %s: %w", file, err)
	}
	key, err := keystore.DecryptKey(json, password)
	if err != nil {
		return nil, fmt.Errorf("couldn't decrypt keystore %s: %w", file, err)
	}
	return key.PrivateKey, nil
}

// KeystoreAddress reads the address stored in clear in a keystore file,
// without decrypting it.
func KeystoreAddress(file string) (common.Address, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return common.Address{}, fmt.Errorf("couldn't read keystore %s: %w", file, err)
	}
	var header struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(content, &header); err != nil {
		return common.Address{}, fmt.Errorf("couldn't parse keystore %s: %w", file, err)
	}
	if !common.IsHexAddress(header.Address) {
		return common.Address{}, fmt.Errorf("keystore %s has no valid address", file)
	}
	return common.HexToAddress(header.Address), nil
}

// works with both 0x prefix form and naked form
func PrivateKeyFromHex(hex string) (*ecdsa.PrivateKey, error) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "0x")
	privkey, err := crypto.HexToECDSA(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return privkey, nil
}
