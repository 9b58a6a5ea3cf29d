package broadcaster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	log "github.com/sirupsen/logrus"

	pscommon "github.com/tranvictor/petshop/common"
)

const TIMEOUT = 4 * time.Second

var ErrNoNode = errors.New("broadcaster has no node")

// RPCClient is the part of rpc.Client used to push raw txs.
type RPCClient interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// Broadcaster takes a signed tx and tries to broadcast it to all
// nodes that it manages as fast as possible. It succeeds as soon as
// at least 1 node accepted the tx.
type Broadcaster struct {
	clients map[string]RPCClient
	timeout time.Duration
	logger  *log.Entry
}

func NewBroadcaster(clients map[string]RPCClient, timeout time.Duration) *Broadcaster {
	if timeout <= 0 {
		timeout = TIMEOUT
	}
	return &Broadcaster{
		clients: clients,
		timeout: timeout,
		logger:  log.WithField("component", "broadcaster"),
	}
}

// NewGenericBroadcaster dials every node. Nodes that can't be dialed are
// skipped and logged.
func NewGenericBroadcaster(nodes map[string]string, timeout time.Duration) *Broadcaster {
	b := NewBroadcaster(map[string]RPCClient{}, timeout)
	for name, url := range nodes {
		client, err := rpc.Dial(url)
		if err != nil {
			b.logger.WithError(err).WithField("node", name).Warn("couldn't connect")
			continue
		}
		b.clients[name] = client
	}
	return b
}

func (b *Broadcaster) NumNodes() int {
	return len(b.clients)
}

func (b *Broadcaster) BroadcastTx(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	data, err := tx.MarshalBinary()
	if err != nil {
		return common.Hash{}, fmt.Errorf("tx is not valid, couldn't encode it: %w", err)
	}
	return b.Broadcast(ctx, hexutil.Encode(data))
}

// Broadcast sends data, the hex encoded signed tx, to every node. The
// error joins every node failure and is only returned when all of them
// refused the tx.
func (b *Broadcaster) Broadcast(ctx context.Context, data string) (common.Hash, error) {
	hash := common.HexToHash(pscommon.RawTxToHash(data))
	if len(b.clients) == 0 {
		return hash, ErrNoNode
	}
	timeout, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	parallelTasks := []func() error{}
	for name := range b.clients {
		name, cli := name, b.clients[name]
		parallelTasks = append(parallelTasks, func() error {
			if err := cli.CallContext(timeout, nil, "eth_sendRawTransaction", data); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}
	err, numErrs := pscommon.RunParallel(parallelTasks...)
	logger := b.logger.WithFields(log.Fields{"hash": hash.Hex(), "failed": numErrs, "nodes": len(b.clients)})
	if numErrs == len(b.clients) {
		logger.WithError(err).Warn("no node accepted the tx")
		return hash, fmt.Errorf("couldn't broadcast to any nodes: %w", err)
	}
	if err != nil {
		logger.WithError(err).Debug("some nodes refused the tx")
	}
	logger.Info("broadcasted")
	return hash, nil
}
