package reader

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

const TIMEOUT time.Duration = 4 * time.Second

type OneNodeReader struct {
	nodeName  string
	nodeURL   string
	timeout   time.Duration
	client    *rpc.Client
	ethClient *ethclient.Client
	mu        sync.Mutex
}

func NewOneNodeReader(name, url string, timeout time.Duration) *OneNodeReader {
	if timeout <= 0 {
		timeout = TIMEOUT
	}
	return &OneNodeReader{
		nodeName: name,
		nodeURL:  url,
		timeout:  timeout,
	}
}

func (onr *OneNodeReader) NodeName() string {
	return onr.nodeName
}

func (onr *OneNodeReader) NodeURL() string {
	return onr.nodeURL
}

// EthClient dials the node on first use so a dead node doesn't slow down
// startup.
func (onr *OneNodeReader) EthClient() (*ethclient.Client, error) {
	onr.mu.Lock()
	defer onr.mu.Unlock()
	if onr.ethClient != nil {
		return onr.ethClient, nil
	}
	client, err := rpc.Dial(onr.NodeURL())
	if err != nil {
		return nil, fmt.Errorf("couldn't connect to %s: %w", onr.nodeName, err)
	}
	onr.client = client
	onr.ethClient = ethclient.NewClient(client)
	return onr.ethClient, nil
}

func (onr *OneNodeReader) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, onr.timeout)
}

func (onr *OneNodeReader) EstimateGas(
	ctx context.Context,
	from, to common.Address,
	value *big.Int,
	data []byte,
) (uint64, error) {
	ethcli, err := onr.EthClient()
	if err != nil {
		return 0, err
	}
	timeout, cancel := onr.withTimeout(ctx)
	defer cancel()
	return ethcli.EstimateGas(timeout, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  data,
	})
}

func (onr *OneNodeReader) GetBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	ethcli, err := onr.EthClient()
	if err != nil {
		return nil, err
	}
	timeout, cancel := onr.withTimeout(ctx)
	defer cancel()
	return ethcli.BalanceAt(timeout, address, nil)
}

func (onr *OneNodeReader) GetPendingNonce(ctx context.Context, address common.Address) (uint64, error) {
	ethcli, err := onr.EthClient()
	if err != nil {
		return 0, err
	}
	timeout, cancel := onr.withTimeout(ctx)
	defer cancel()
	return ethcli.PendingNonceAt(timeout, address)
}

func (onr *OneNodeReader) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ethcli, err := onr.EthClient()
	if err != nil {
		return nil, err
	}
	timeout, cancel := onr.withTimeout(ctx)
	defer cancel()
	return ethcli.TransactionReceipt(timeout, txHash)
}

func (onr *OneNodeReader) TransactionByHash(ctx context.Context, txHash common.Hash) (*types.Transaction, bool, error) {
	ethcli, err := onr.EthClient()
	if err != nil {
		return nil, false, err
	}
	timeout, cancel := onr.withTimeout(ctx)
	defer cancel()
	return ethcli.TransactionByHash(timeout, txHash)
}

func (onr *OneNodeReader) SuggestedGasPrice(ctx context.Context) (*big.Int, error) {
	ethcli, err := onr.EthClient()
	if err != nil {
		return nil, err
	}
	timeout, cancel := onr.withTimeout(ctx)
	defer cancel()
	return ethcli.SuggestGasPrice(timeout)
}

func (onr *OneNodeReader) SuggestedGasTipCap(ctx context.Context) (*big.Int, error) {
	ethcli, err := onr.EthClient()
	if err != nil {
		return nil, err
	}
	timeout, cancel := onr.withTimeout(ctx)
	defer cancel()
	return ethcli.SuggestGasTipCap(timeout)
}

// HeaderByNumber returns the latest header when number is negative.
func (onr *OneNodeReader) HeaderByNumber(ctx context.Context, number int64) (*types.Header, error) {
	ethcli, err := onr.EthClient()
	if err != nil {
		return nil, err
	}
	var numberBig *big.Int
	if number >= 0 {
		numberBig = big.NewInt(number)
	}
	timeout, cancel := onr.withTimeout(ctx)
	defer cancel()
	return ethcli.HeaderByNumber(timeout, numberBig)
}

func (onr *OneNodeReader) CallContract(ctx context.Context, from, to common.Address, data []byte) ([]byte, error) {
	ethcli, err := onr.EthClient()
	if err != nil {
		return nil, err
	}
	timeout, cancel := onr.withTimeout(ctx)
	defer cancel()
	return ethcli.CallContract(timeout, ethereum.CallMsg{
		From: from,
		To:   &to,
		Data: data,
	}, nil)
}
