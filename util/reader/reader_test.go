package reader_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pscommon "github.com/tranvictor/petshop/common"
	"github.com/tranvictor/petshop/util/reader"
)

// fakeNode answers eth_call with a fixed payload after an optional delay.
type fakeNode struct {
	name    string
	delay   time.Duration
	callOut []byte
	err     error
	calls   atomic.Int64

	tx        *types.Transaction
	isPending bool
	receipt   *types.Receipt
	baseFee   *big.Int
}

func (f *fakeNode) NodeName() string { return f.name }
func (f *fakeNode) NodeURL() string  { return "http://" + f.name }

func (f *fakeNode) wait(ctx context.Context) error {
	f.calls.Add(1)
	select {
	case <-time.After(f.delay):
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeNode) EstimateGas(ctx context.Context, from, to common.Address, value *big.Int, data []byte) (uint64, error) {
	return 21000, f.wait(ctx)
}

func (f *fakeNode) GetBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	return big.NewInt(42), f.wait(ctx)
}

func (f *fakeNode) GetPendingNonce(ctx context.Context, address common.Address) (uint64, error) {
	return 7, f.wait(ctx)
}

func (f *fakeNode) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.receipt == nil {
		return nil, ethereum.NotFound
	}
	return f.receipt, nil
}

func (f *fakeNode) TransactionByHash(ctx context.Context, txHash common.Hash) (*types.Transaction, bool, error) {
	if err := f.wait(ctx); err != nil {
		return nil, false, err
	}
	if f.tx == nil {
		return nil, false, ethereum.NotFound
	}
	return f.tx, f.isPending, nil
}

func (f *fakeNode) SuggestedGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(2e9), f.wait(ctx)
}

func (f *fakeNode) SuggestedGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1e9), f.wait(ctx)
}

func (f *fakeNode) HeaderByNumber(ctx context.Context, number int64) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1), BaseFee: f.baseFee}, f.wait(ctx)
}

func (f *fakeNode) CallContract(ctx context.Context, from, to common.Address, data []byte) ([]byte, error) {
	return f.callOut, f.wait(ctx)
}

const balanceABI = `[{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}]`

func mustABI(t *testing.T) *abi.ABI {
	a, err := abi.JSON(strings.NewReader(balanceABI))
	require.NoError(t, err)
	return &a
}

func TestCallTakesFirstSuccessfulNode(t *testing.T) {
	a := mustABI(t)
	out, err := a.Methods["balanceOf"].Outputs.Pack(big.NewInt(3))
	require.NoError(t, err)

	slow := &fakeNode{name: "slow", delay: 200 * time.Millisecond, callOut: out}
	broken := &fakeNode{name: "broken", err: errors.New("502 bad gateway")}
	fast := &fakeNode{name: "fast", delay: time.Millisecond, callOut: out}
	r := reader.NewEthReader(slow, broken, fast)

	start := time.Now()
	res, err := r.Call(context.Background(), common.HexToAddress("0x01"), a, "balanceOf", common.HexToAddress("0x02"))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
	require.Len(t, res, 1)
	assert.Equal(t, int64(3), res[0].(*big.Int).Int64())
}

func TestCallJoinsEveryNodeError(t *testing.T) {
	r := reader.NewEthReader(
		&fakeNode{name: "a", err: errors.New("execution reverted")},
		&fakeNode{name: "b", err: errors.New("rate limited")},
	)
	_, err := r.CallContract(context.Background(), common.Address{}, common.HexToAddress("0x01"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "couldn't read from any nodes")
	assert.Contains(t, err.Error(), "a: execution reverted")
	assert.Contains(t, err.Error(), "b: rate limited")
}

func TestNoNode(t *testing.T) {
	_, err := reader.NewEthReader().GetBalance(context.Background(), common.Address{})
	assert.ErrorIs(t, err, reader.ErrNoNode)
}

func TestBreakerSkipsFailingNode(t *testing.T) {
	broken := &fakeNode{name: "broken", err: errors.New("down")}
	healthy := &fakeNode{name: "healthy"}
	r := reader.NewEthReader(broken, healthy)

	for i := 0; i < 20; i++ {
		_, err := r.GetPendingNonce(context.Background(), common.Address{})
		require.NoError(t, err)
	}
	assert.Less(t, broken.calls.Load(), int64(20))
	assert.Equal(t, int64(20), healthy.calls.Load())
}

func TestTxInfoFromHash(t *testing.T) {
	tx := types.NewTx(&types.LegacyTx{Nonce: 1, Gas: 21000, GasPrice: big.NewInt(1), To: &common.Address{}, Value: big.NewInt(0)})
	tests := []struct {
		name string
		node *fakeNode
		want string
	}{
		{"unknown", &fakeNode{name: "n"}, pscommon.TxStatusNotFound},
		{"in mempool", &fakeNode{name: "n", tx: tx, isPending: true}, pscommon.TxStatusPending},
		{"mined", &fakeNode{name: "n", tx: tx, receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful}}, pscommon.TxStatusDone},
		{"reverted", &fakeNode{name: "n", tx: tx, receipt: &types.Receipt{Status: types.ReceiptStatusFailed}}, pscommon.TxStatusReverted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := reader.NewEthReader(tt.node).TxInfoFromHash(context.Background(), tx.Hash())
			require.NoError(t, err)
			assert.Equal(t, tt.want, info.Status)
		})
	}
}

func TestSuggestedGasSettings(t *testing.T) {
	r := reader.NewEthReader(&fakeNode{name: "london", baseFee: big.NewInt(7)})
	price, tip, err := r.SuggestedGasSettings(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 3.0, price, 1e-9)
	assert.InDelta(t, 1.2, tip, 1e-9)

	r = reader.NewEthReader(&fakeNode{name: "legacy"})
	dynamic, err := r.CheckDynamicFeeTxAvailable(context.Background())
	require.NoError(t, err)
	assert.False(t, dynamic)
	_, tip, err = r.SuggestedGasSettings(context.Background())
	require.NoError(t, err)
	assert.Zero(t, tip)
}
