// Package txcoord runs user writes through validate, sign, broadcast and
// wait, one at a time per action, and invalidates the reads the write
// affected once it is mined.
package txcoord

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	pscommon "github.com/tranvictor/petshop/common"
	"github.com/tranvictor/petshop/metrics"
)

type State int

const (
	Idle State = iota
	Pending
	Success
	Error
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "idle"
	}
}

// Sender signs and broadcasts a call.
type Sender interface {
	Send(ctx context.Context, call Call) (common.Hash, error)
}

// ReceiptWaiter blocks until the tx is final. Only done, reverted and lost
// are final statuses.
type ReceiptWaiter interface {
	Wait(ctx context.Context, hash common.Hash) (pscommon.TxInfo, error)
}

// Invalidator drops cached reads, *cache.Store implements it.
type Invalidator interface {
	InvalidatePrefix(prefix string) int
}

// Status is the last known outcome of an action.
type Status struct {
	State State
	Hash  common.Hash
	Err   error
}

type Coordinator struct {
	sender Sender
	waiter ReceiptWaiter
	cache  Invalidator
	logger *log.Entry

	mu           sync.Mutex
	statuses     map[string]Status
	listeners    map[int]func(action string, s Status)
	nextListener int
}

func New(sender Sender, waiter ReceiptWaiter, cache Invalidator) *Coordinator {
	return &Coordinator{
		sender:    sender,
		waiter:    waiter,
		cache:     cache,
		logger:    log.WithField("component", "txcoord"),
		statuses:  map[string]Status{},
		listeners: map[int]func(string, Status){},
	}
}

func (c *Coordinator) State(action string) State {
	return c.Status(action).State
}

func (c *Coordinator) Status(action string) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statuses[action]
}

// OnChange registers fn to be called on every state transition. fn is
// called from the submitting goroutine.
func (c *Coordinator) OnChange(fn func(action string, s Status)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Coordinator) set(action string, s Status) {
	c.mu.Lock()
	c.statuses[action] = s
	listeners := make([]func(string, Status), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(action, s)
	}
}

// Submit validates the intent, sends it and waits for it to be mined. It
// returns the final state of the action.
//
// A validation failure returns a *ValidationError and leaves the action
// state untouched. Submitting an action that is still pending returns
// ErrAlreadyPending. Nothing is invalidated unless the tx succeeded.
func (c *Coordinator) Submit(ctx context.Context, in Intent) (State, error) {
	call, err := in.Pack()
	if err != nil {
		metrics.ObserveTx(in.Action, "invalid")
		return c.State(in.Action), err
	}
	call.ID = uuid.New().String()
	logger := c.logger.WithFields(log.Fields{
		"action": in.Action,
		"id":     call.ID,
		"to":     in.Target.Hex(),
		"method": in.Method,
	})

	c.mu.Lock()
	if c.statuses[in.Action].State == Pending {
		c.mu.Unlock()
		return Pending, ErrAlreadyPending
	}
	c.statuses[in.Action] = Status{State: Pending}
	c.mu.Unlock()
	c.set(in.Action, Status{State: Pending})
	logger.Info("submitting")

	hash, err := c.sender.Send(ctx, call)
	if err != nil {
		return c.fail(logger, in.Action, common.Hash{}, fmt.Errorf("%w: %w", ErrTxRejected, err))
	}
	logger = logger.WithField("hash", hash.Hex())
	c.set(in.Action, Status{State: Pending, Hash: hash})
	logger.Info("broadcasted")

	info, err := c.waiter.Wait(ctx, hash)
	if err != nil {
		return c.fail(logger, in.Action, hash, fmt.Errorf("couldn't get receipt of %s: %w", hash.Hex(), err))
	}
	switch info.Status {
	case pscommon.TxStatusDone:
	case pscommon.TxStatusReverted:
		return c.fail(logger, in.Action, hash, fmt.Errorf("%w: %s", ErrTxReverted, hash.Hex()))
	default:
		return c.fail(logger, in.Action, hash, fmt.Errorf("%w: %s is %s", ErrTxRejected, hash.Hex(), info.Status))
	}

	for _, prefix := range in.Invalidates {
		c.cache.InvalidatePrefix(prefix)
		metrics.ObserveInvalidation()
	}
	metrics.ObserveTx(in.Action, "success")
	c.set(in.Action, Status{State: Success, Hash: hash})
	logger.WithField("invalidated", len(in.Invalidates)).Info("mined")
	return Success, nil
}

func (c *Coordinator) fail(logger *log.Entry, action string, hash common.Hash, err error) (State, error) {
	metrics.ObserveTx(action, "error")
	c.set(action, Status{State: Error, Hash: hash, Err: err})
	logger.WithError(err).Warn("failed")
	return Error, err
}
