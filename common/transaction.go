package common

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	TxTypeLegacy     = "legacy"
	TxTypeDynamicFee = "dynamic-fee"
)

func RawTxToHash(data string) string {
	return crypto.Keccak256Hash(hexutil.MustDecode(data)).Hex()
}

// BuildExactTx builds an unsigned call to `to`. priceGwei is the gas price
// for legacy txs and the fee cap for dynamic fee txs.
func BuildExactTx(
	nonce uint64,
	to common.Address,
	value *big.Int,
	gasLimit uint64,
	priceGwei float64,
	tipGwei float64,
	data []byte,
	txType string,
	chainID int64,
) *types.Transaction {
	if value == nil {
		value = big.NewInt(0)
	}
	gasPrice := GweiToWei(priceGwei)
	if txType == TxTypeDynamicFee {
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   big.NewInt(chainID),
			Nonce:     nonce,
			GasTipCap: GweiToWei(tipGwei),
			GasFeeCap: gasPrice,
			Gas:       gasLimit,
			To:        &to,
			Value:     value,
			Data:      data,
		})
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &to,
		Value:    value,
		Data:     data,
	})
}
