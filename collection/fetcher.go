// Package collection discovers collections that contracts only expose as a
// count plus a lookup by index, such as ERC721Enumerable's balanceOf and
// tokenOfOwnerByIndex.
package collection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/errgroup"

	"github.com/tranvictor/petshop/query"
)

// ErrStaleResult marks a completion that belongs to an older refresh, to a
// previous owner or to a closed fetcher. Such results are dropped.
var ErrStaleResult = errors.New("stale result")

// ErrCountTooLarge is reported instead of discovering a collection bigger
// than the configured maximum.
var ErrCountTooLarge = errors.New("collection is too large")

const (
	DefaultConcurrency = 16
	DefaultMaxCount    = 10000
)

type CountFunc func(ctx context.Context, owner common.Address) (uint64, error)

type ItemFunc[T any] func(ctx context.Context, owner common.Address, index uint64) (T, error)

type SlotState int

const (
	SlotPending SlotState = iota
	SlotResolved
	SlotFailed
)

func (s SlotState) String() string {
	switch s {
	case SlotResolved:
		return "resolved"
	case SlotFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Slot is one index of the collection.
type Slot[T any] struct {
	Index uint64
	State SlotState
	Item  T
	Err   error
}

// Result is a consistent snapshot of a fetcher.
//
// Items only holds resolved slots, in index order. Loading is true while
// the count or any item query is outstanding. Err is the count error if the
// count failed, otherwise the error of the lowest failing index.
type Result[T any] struct {
	Owner   *common.Address
	Count   query.Optional[uint64]
	Slots   []Slot[T]
	Items   []T
	Loading bool
	Err     error
}

// Disabled reports that no owner is set. A disabled result is never loading
// and never failing, which tells "no wallet" apart from "owns nothing".
func (r Result[T]) Disabled() bool {
	return r.Owner == nil
}

type Option func(*options)

type options struct {
	limiter     ratelimit.Limiter
	concurrency int
	maxCount    uint64
}

// WithRateLimit caps item queries to perSecond. Zero or less disables it.
func WithRateLimit(perSecond int) Option {
	return func(o *options) {
		if perSecond > 0 {
			o.limiter = ratelimit.New(perSecond)
		}
	}
}

// WithConcurrency caps the item queries in flight at once.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithMaxCount refuses counts above n.
func WithMaxCount(n uint64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxCount = n
		}
	}
}

// Fetcher keeps the latest known state of one collection for one owner.
// Refresh re-reads the count and issues every index query concurrently.
type Fetcher[T any] struct {
	name    string
	count   CountFunc
	item    ItemFunc[T]
	limiter     ratelimit.Limiter
	concurrency int
	maxCount    uint64
	logger      *log.Entry

	emitMu sync.Mutex

	mu           sync.Mutex
	owner        *common.Address
	generation   uint64
	closed       bool
	countState   query.Optional[uint64]
	countLoading bool
	countErr     error
	slots        []Slot[T]
	inflight     int
	listeners    map[int]func(Result[T])
	nextListener int
}

func New[T any](name string, count CountFunc, item ItemFunc[T], opts ...Option) *Fetcher[T] {
	o := options{concurrency: DefaultConcurrency, maxCount: DefaultMaxCount}
	for _, opt := range opts {
		opt(&o)
	}
	return &Fetcher[T]{
		name:        name,
		count:       count,
		item:        item,
		limiter:     o.limiter,
		concurrency: o.concurrency,
		maxCount:    o.maxCount,
		logger:      log.WithFields(log.Fields{"component": "collection", "collection": name}),
		listeners:   map[int]func(Result[T]){},
	}
}

func (f *Fetcher[T]) Name() string {
	return f.name
}

// SetOwner switches the owner. Whatever was known about the previous owner
// is voided immediately and its in-flight queries become stale.
func (f *Fetcher[T]) SetOwner(owner *common.Address) {
	f.mu.Lock()
	if sameOwner(f.owner, owner) || f.closed {
		f.mu.Unlock()
		return
	}
	if owner != nil {
		o := *owner
		f.owner = &o
	} else {
		f.owner = nil
	}
	f.generation++
	f.resetLocked()
	f.mu.Unlock()
	f.publish()
}

func sameOwner(a, b *common.Address) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (f *Fetcher[T]) resetLocked() {
	f.countState = query.Pending[uint64]()
	f.countLoading = false
	f.countErr = nil
	f.slots = nil
	f.inflight = 0
}

// Refresh reads the count and then every index. It returns once every
// query of this refresh completed, with the resulting Err. Completions that
// turned stale while running are dropped and Refresh returns nil for them.
func (f *Fetcher[T]) Refresh(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	if f.owner == nil {
		f.mu.Unlock()
		f.publish()
		return nil
	}
	f.generation++
	gen := f.generation
	owner := *f.owner
	f.countLoading = true
	f.countErr = nil
	f.inflight = 0
	f.mu.Unlock()
	f.publish()

	n, err := f.count(ctx, owner)
	if err == nil && n > f.maxCount {
		err = fmt.Errorf("%s has %d items, more than %d: %w", f.name, n, f.maxCount, ErrCountTooLarge)
	}

	f.mu.Lock()
	if f.staleLocked(gen) {
		f.mu.Unlock()
		f.logger.WithError(ErrStaleResult).Debug("dropped count")
		return nil
	}
	f.countLoading = false
	if err != nil {
		f.countErr = err
		f.mu.Unlock()
		f.publish()
		return err
	}
	if prev, ok := f.countState.Get(); !ok || prev != n {
		f.slots = make([]Slot[T], n)
		for i := range f.slots {
			f.slots[i] = Slot[T]{Index: uint64(i), State: SlotPending}
		}
	}
	f.countState = query.Resolved(n)
	f.inflight = int(n)
	f.mu.Unlock()
	f.publish()

	if n == 0 {
		return nil
	}

	// errors stay in their slot, the group only bounds the workers
	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i := uint64(0); i < n; i++ {
		index := i
		g.Go(func() error {
			if f.limiter != nil {
				f.limiter.Take()
			}
			item, err := f.item(ctx, owner, index)
			f.complete(gen, index, item, err)
			return nil
		})
	}
	_ = g.Wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.staleLocked(gen) {
		return nil
	}
	return f.errLocked()
}

func (f *Fetcher[T]) staleLocked(gen uint64) bool {
	return f.closed || gen != f.generation
}

func (f *Fetcher[T]) complete(gen, index uint64, item T, err error) {
	f.mu.Lock()
	if f.staleLocked(gen) {
		f.mu.Unlock()
		f.logger.WithError(ErrStaleResult).WithField("index", index).Debug("dropped item")
		return
	}
	slot := Slot[T]{Index: index, State: SlotResolved, Item: item}
	if err != nil {
		var zero T
		slot = Slot[T]{Index: index, State: SlotFailed, Item: zero, Err: err}
		f.logger.WithError(err).WithField("index", index).Debug("item failed")
	}
	f.slots[index] = slot
	f.inflight--
	f.mu.Unlock()
	f.publish()
}

func (f *Fetcher[T]) errLocked() error {
	if f.countErr != nil {
		return f.countErr
	}
	for _, s := range f.slots {
		if s.State == SlotFailed {
			return s.Err
		}
	}
	return nil
}

// Snapshot returns the current state.
func (f *Fetcher[T]) Snapshot() Result[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Fetcher[T]) snapshotLocked() Result[T] {
	if f.owner == nil {
		return Result[T]{}
	}
	owner := *f.owner
	res := Result[T]{
		Owner:   &owner,
		Count:   f.countState,
		Slots:   make([]Slot[T], len(f.slots)),
		Items:   make([]T, 0, len(f.slots)),
		Loading: f.countLoading || f.inflight > 0,
		Err:     f.errLocked(),
	}
	copy(res.Slots, f.slots)
	for _, s := range f.slots {
		if s.State == SlotResolved {
			res.Items = append(res.Items, s.Item)
		}
	}
	return res
}

// OnUpdate registers fn to receive every new snapshot, in the order the
// snapshots were taken. fn must not call Refresh synchronously.
func (f *Fetcher[T]) OnUpdate(fn func(Result[T])) (cancel func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextListener
	f.nextListener++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *Fetcher[T]) publish() {
	f.emitMu.Lock()
	defer f.emitMu.Unlock()

	f.mu.Lock()
	if f.closed || len(f.listeners) == 0 {
		f.mu.Unlock()
		return
	}
	snapshot := f.snapshotLocked()
	listeners := make([]func(Result[T]), 0, len(f.listeners))
	for _, fn := range f.listeners {
		listeners = append(listeners, fn)
	}
	f.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

// Close drops all listeners and makes every in-flight completion stale.
func (f *Fetcher[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.generation++
	f.listeners = map[int]func(Result[T]){}
}
