package account

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeySigner signs with a private key held in memory.
type KeySigner struct {
	key *ecdsa.PrivateKey
}

func (ks *KeySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(ks.key, chainID)
	if err != nil {
		return nil, err
	}
	return opts.Signer(crypto.PubkeyToAddress(ks.key.PublicKey), tx)
}

func NewKeySigner(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{key}
}
