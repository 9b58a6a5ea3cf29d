package reader

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	pscommon "github.com/tranvictor/petshop/common"
)

var DEFAULT_ADDRESS = common.Address{}

var ErrNoNode = errors.New("reader has no node")

// EthReader sends every request to all of its nodes and returns the first
// successful answer.
type EthReader struct {
	nodes    []EthereumNode
	breakers map[string]*gobreaker.CircuitBreaker
	logger   *log.Entry
}

func NewEthReaderGeneric(nodes map[string]string, timeout time.Duration) *EthReader {
	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	ns := make([]EthereumNode, 0, len(nodes))
	for _, name := range names {
		ns = append(ns, NewOneNodeReader(name, nodes[name], timeout))
	}
	return NewEthReader(ns...)
}

func NewEthReader(nodes ...EthereumNode) *EthReader {
	breakers := map[string]*gobreaker.CircuitBreaker{}
	for _, n := range nodes {
		breakers[n.NodeName()] = NewCircuitBreaker(n.NodeName())
	}
	return &EthReader{
		nodes:    nodes,
		breakers: breakers,
		logger:   log.WithField("component", "reader"),
	}
}

func nodeName(n EthereumNode) string {
	return n.NodeName()
}

func readAny[T any](
	ctx context.Context,
	er *EthReader,
	what string,
	fn func(context.Context, EthereumNode) (T, error),
) (T, error) {
	var zero T
	if len(er.nodes) == 0 {
		return zero, ErrNoNode
	}
	result, err := pscommon.FirstSuccess(ctx, er.nodes, nodeName, func(ctx context.Context, n EthereumNode) (T, error) {
		res, err := er.breakers[n.NodeName()].Execute(func() (interface{}, error) {
			return fn(ctx, n)
		})
		if err != nil {
			er.logger.WithError(err).WithField("node", n.NodeName()).Debugf("%s failed", what)
			return zero, err
		}
		return res.(T), nil
	})
	if err != nil {
		return zero, fmt.Errorf("couldn't read from any nodes: %w", err)
	}
	return result, nil
}

// Call packs method with args, runs it as an eth_call against target and
// unpacks the outputs.
func (er *EthReader) Call(
	ctx context.Context,
	target common.Address,
	a *abi.ABI,
	method string,
	args ...interface{},
) ([]interface{}, error) {
	data, err := a.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("couldn't pack %s: %w", method, err)
	}
	raw, err := er.CallContract(ctx, DEFAULT_ADDRESS, target, data)
	if err != nil {
		return nil, err
	}
	return a.Unpack(method, raw)
}

func (er *EthReader) CallContract(ctx context.Context, from, to common.Address, data []byte) ([]byte, error) {
	return readAny(ctx, er, "eth_call", func(ctx context.Context, n EthereumNode) ([]byte, error) {
		return n.CallContract(ctx, from, to, data)
	})
}

func (er *EthReader) EstimateExactGas(
	ctx context.Context,
	from, to common.Address,
	value *big.Int,
	data []byte,
) (uint64, error) {
	return readAny(ctx, er, "estimate gas", func(ctx context.Context, n EthereumNode) (uint64, error) {
		return n.EstimateGas(ctx, from, to, value, data)
	})
}

func (er *EthReader) GetBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	return readAny(ctx, er, "balance", func(ctx context.Context, n EthereumNode) (*big.Int, error) {
		return n.GetBalance(ctx, address)
	})
}

func (er *EthReader) GetPendingNonce(ctx context.Context, address common.Address) (uint64, error) {
	return readAny(ctx, er, "pending nonce", func(ctx context.Context, n EthereumNode) (uint64, error) {
		return n.GetPendingNonce(ctx, address)
	})
}

func (er *EthReader) HeaderByNumber(ctx context.Context, number int64) (*types.Header, error) {
	return readAny(ctx, er, "header", func(ctx context.Context, n EthereumNode) (*types.Header, error) {
		return n.HeaderByNumber(ctx, number)
	})
}

// TransactionReceipt returns a nil receipt without error when no node has
// mined the tx yet. Not found is not a node failure and must not count
// against its breaker.
func (er *EthReader) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return readAny(ctx, er, "receipt", func(ctx context.Context, n EthereumNode) (*types.Receipt, error) {
		receipt, err := n.TransactionReceipt(ctx, hash)
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return receipt, err
	})
}

type txByHash struct {
	tx        *types.Transaction
	isPending bool
}

func (er *EthReader) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	res, err := readAny(ctx, er, "tx by hash", func(ctx context.Context, n EthereumNode) (txByHash, error) {
		tx, isPending, err := n.TransactionByHash(ctx, hash)
		if errors.Is(err, ethereum.NotFound) {
			return txByHash{}, nil
		}
		return txByHash{tx, isPending}, err
	})
	return res.tx, res.isPending, err
}

func (er *EthReader) TxInfoFromHash(ctx context.Context, hash common.Hash) (pscommon.TxInfo, error) {
	info := pscommon.TxInfo{Hash: hash.Hex()}
	tx, isPending, err := er.TransactionByHash(ctx, hash)
	if err != nil {
		info.Status = pscommon.TxStatusError
		return info, err
	}
	if tx == nil {
		info.Status = pscommon.TxStatusNotFound
		return info, nil
	}
	info.Tx = tx
	if isPending {
		info.Status = pscommon.TxStatusPending
		return info, nil
	}

	receipt, err := er.TransactionReceipt(ctx, hash)
	if receipt == nil {
		info.Status = pscommon.TxStatusPending
		return info, err
	}
	info.Receipt = receipt
	if receipt.Status == types.ReceiptStatusSuccessful {
		info.Status = pscommon.TxStatusDone
	} else {
		info.Status = pscommon.TxStatusReverted
	}
	return info, nil
}

func (er *EthReader) SuggestedGasSettings(ctx context.Context) (maxGasPriceGwei, maxTipGwei float64, err error) {
	isDynamicFeeAvailable, err := er.CheckDynamicFeeTxAvailable(ctx)
	if err != nil {
		return 0, 0, err
	}

	maxGasPriceGwei, err = er.RecommendedGasPrice(ctx)
	if err != nil {
		return 0, 0, err
	}

	if isDynamicFeeAvailable {
		maxTipGwei, err = er.GetSuggestedGasTipCap(ctx)
		if err != nil {
			return 0, 0, err
		}
	}

	return maxGasPriceGwei, maxTipGwei, nil
}

// CheckDynamicFeeTxAvailable checks whether the latest block has a base fee.
func (er *EthReader) CheckDynamicFeeTxAvailable(ctx context.Context) (bool, error) {
	header, err := er.HeaderByNumber(ctx, -1)
	if err != nil {
		return false, err
	}
	return header.BaseFee != nil && header.BaseFee.Cmp(common.Big0) > 0, nil
}

// add 20% tip to miners compared to what returned from the node
func (er *EthReader) GetSuggestedGasTipCap(ctx context.Context) (float64, error) {
	tip, err := readAny(ctx, er, "gas tip", func(ctx context.Context, n EthereumNode) (*big.Int, error) {
		return n.SuggestedGasTipCap(ctx)
	})
	if err != nil {
		return 0, err
	}
	return pscommon.BigToFloat(tip, 9) * 1.2, nil
}

// add 50% to max gas price because the next blocks based price can be increased
func (er *EthReader) RecommendedGasPrice(ctx context.Context) (float64, error) {
	price, err := readAny(ctx, er, "gas price", func(ctx context.Context, n EthereumNode) (*big.Int, error) {
		return n.SuggestedGasPrice(ctx)
	})
	if err != nil {
		return 0, err
	}
	return pscommon.BigToFloat(price, 9) * 1.5, nil
}
