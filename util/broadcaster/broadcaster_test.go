package broadcaster_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/petshop/util/broadcaster"
)

type fakeNode struct {
	mu     sync.Mutex
	err    error
	method string
	raw    string
}

func (f *fakeNode) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.method = method
	f.raw = args[0].(string)
	return f.err
}

func legacyTx() *types.Transaction {
	return types.NewTx(&types.LegacyTx{
		Nonce:    1,
		GasPrice: big.NewInt(1),
		Gas:      21000,
		To:       &common.Address{},
		Value:    big.NewInt(0),
	})
}

func TestOneAcceptingNodeIsEnough(t *testing.T) {
	ok := &fakeNode{}
	down := &fakeNode{err: errors.New("connection refused")}
	b := broadcaster.NewBroadcaster(map[string]broadcaster.RPCClient{"a": ok, "b": down}, time.Second)

	tx := legacyTx()
	hash, err := b.BroadcastTx(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, tx.Hash(), hash)
	assert.Equal(t, "eth_sendRawTransaction", ok.method)
	assert.Equal(t, ok.raw, down.raw)
}

func TestEveryNodeRefusing(t *testing.T) {
	b := broadcaster.NewBroadcaster(map[string]broadcaster.RPCClient{
		"a": &fakeNode{err: errors.New("nonce too low")},
		"b": &fakeNode{err: errors.New("timeout")},
	}, time.Second)

	_, err := b.BroadcastTx(context.Background(), legacyTx())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonce too low")
	assert.Contains(t, err.Error(), "timeout")
}

func TestNoNode(t *testing.T) {
	b := broadcaster.NewBroadcaster(map[string]broadcaster.RPCClient{}, 0)
	_, err := b.BroadcastTx(context.Background(), legacyTx())
	assert.ErrorIs(t, err, broadcaster.ErrNoNode)
}
