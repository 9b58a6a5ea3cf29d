package query

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/tranvictor/petshop/metrics"
	"github.com/tranvictor/petshop/util/cache"
)

// SharedReadTimeout bounds a read shared by several callers. It runs
// detached from the caller that started it so cancelling one caller doesn't
// fail the others.
const SharedReadTimeout = 30 * time.Second

// Client is a read-through ContractReader backed by a cache.Store. Identical
// reads in flight at the same time are sent to the nodes once, as long as
// no invalidation happened in between. Client never invalidates anything,
// that is left to the transaction coordinator.
type Client struct {
	reader   ContractReader
	balances BalanceReader
	store    *cache.Store
	group    singleflight.Group
	timeout  time.Duration
	logger   *log.Entry
}

// NewClient wraps r. If r can also read ETH balances, Balance is served
// through the same cache.
func NewClient(r ContractReader, store *cache.Store) *Client {
	c := &Client{
		reader:  r,
		store:   store,
		timeout: SharedReadTimeout,
		logger:  log.WithField("component", "query"),
	}
	if br, ok := r.(BalanceReader); ok {
		c.balances = br
	}
	return c
}

func (c *Client) Store() *cache.Store {
	return c.store
}

func (c *Client) Call(
	ctx context.Context,
	target common.Address,
	a *abi.ABI,
	method string,
	args ...interface{},
) ([]interface{}, error) {
	key := cache.Key(target, method, args...)
	v, err := c.readThrough(ctx, key, method, func(ctx context.Context) (interface{}, error) {
		out, err := c.reader.Call(ctx, target, a, method, args...)
		if err != nil {
			return nil, &RPCError{Target: target, Method: method, Err: err}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]interface{}), nil
}

// Balance returns the ETH balance of owner.
func (c *Client) Balance(ctx context.Context, owner common.Address) (*big.Int, error) {
	if c.balances == nil {
		return nil, &RPCError{Target: owner, Method: "balance", Err: errNoBalanceReader}
	}
	key := cache.NativeBalanceKey(owner)
	v, err := c.readThrough(ctx, key, "balance", func(ctx context.Context) (interface{}, error) {
		b, err := c.balances.GetBalance(ctx, owner)
		if err != nil {
			return nil, &RPCError{Target: owner, Method: "balance", Err: err}
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*big.Int), nil
}

type freshKey struct{}

// Fresh marks ctx so reads made with it skip the cached value and refresh
// it from the nodes. Polls use it, one shot reads don't.
func Fresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, freshKey{}, true)
}

func isFresh(ctx context.Context) bool {
	fresh, _ := ctx.Value(freshKey{}).(bool)
	return fresh
}

func (c *Client) readThrough(
	ctx context.Context,
	key, method string,
	fetch func(context.Context) (interface{}, error),
) (interface{}, error) {
	if !isFresh(ctx) {
		if v, found := c.store.Get(key); found {
			metrics.ObserveRead(method, "hit")
			return v, nil
		}
	}
	// A read started before an invalidation must not be joined by one
	// started after it.
	gen := c.store.Generation()
	flightKey := fmt.Sprintf("%d/%s", gen, key)
	ch := c.group.DoChan(flightKey, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		start := time.Now()
		v, err := fetch(fctx)
		metrics.ObserveReadDuration(method, time.Since(start))
		if err != nil {
			metrics.ObserveRead(method, "error")
			c.logger.WithError(err).WithField("key", key).Debug("read failed")
			return nil, err
		}
		metrics.ObserveRead(method, "miss")
		if !c.store.SetAt(key, v, gen) {
			c.logger.WithField("key", key).Debug("dropped result fetched before invalidation")
		}
		return v, nil
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
