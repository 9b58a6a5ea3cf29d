package reader

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type EthereumNode interface {
	NodeName() string
	NodeURL() string
	EstimateGas(
		ctx context.Context,
		from, to common.Address,
		value *big.Int,
		data []byte,
	) (gas uint64, err error)
	GetBalance(ctx context.Context, address common.Address) (balance *big.Int, err error)
	GetPendingNonce(ctx context.Context, address common.Address) (nonce uint64, err error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (receipt *types.Receipt, err error)
	TransactionByHash(ctx context.Context, txHash common.Hash) (tx *types.Transaction, isPending bool, err error)
	SuggestedGasPrice(ctx context.Context) (*big.Int, error)
	SuggestedGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number int64) (*types.Header, error)
	CallContract(ctx context.Context, from, to common.Address, data []byte) ([]byte, error)
}
