// Package aggregate merges independently fetched contract fields into
// records.
package aggregate

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

var ErrStaleResult = errors.New("stale result")

// Field is one detail query run against every entity address.
// An Optional field may fail or be missing without holding the record back.
type Field struct {
	Name     string
	Read     func(ctx context.Context, addr common.Address) (interface{}, error)
	Optional bool
}

// AssembleFunc builds the record once every required field resolved.
// Optional fields that never resolved are absent from values.
type AssembleFunc[R any] func(addr common.Address, values map[string]interface{}) (R, error)

type FieldState struct {
	Name     string
	Value    interface{}
	Resolved bool
	Loading  bool
	Err      error
}

func (fs FieldState) pending() bool {
	return fs.Loading || (!fs.Resolved && fs.Err == nil)
}

// Detail is the merged view of one entity. Record is only meaningful when
// Loaded is true.
type Detail[R any] struct {
	Address common.Address
	Record  R
	Loaded  bool
	Loading bool
	Err     error
	Fields  []FieldState
}

type Snapshot[R any] struct {
	Details []Detail[R]
	Loading bool
	Err     error
}

// Aggregator runs a fixed set of field queries against a set of entity
// addresses. Field values survive refreshes, so a record that loaded once
// stays loaded while it is being refreshed.
type Aggregator[R any] struct {
	name     string
	fields   []Field
	assemble AssembleFunc[R]
	logger   *log.Entry

	emitMu sync.Mutex

	mu           sync.Mutex
	addresses    []common.Address
	state        map[common.Address][]FieldState
	generation   uint64
	closed       bool
	listeners    map[int]func(Snapshot[R])
	nextListener int
}

func NewAggregator[R any](name string, fields []Field, assemble AssembleFunc[R]) *Aggregator[R] {
	return &Aggregator[R]{
		name:      name,
		fields:    fields,
		assemble:  assemble,
		logger:    log.WithFields(log.Fields{"component": "aggregate", "aggregate": name}),
		state:     map[common.Address][]FieldState{},
		listeners: map[int]func(Snapshot[R]){},
	}
}

// SetAddresses replaces the entity set. Known entities keep their state,
// removed ones are forgotten.
func (a *Aggregator[R]) SetAddresses(addrs []common.Address) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	next := map[common.Address][]FieldState{}
	ordered := make([]common.Address, 0, len(addrs))
	for _, addr := range addrs {
		if _, dup := next[addr]; dup {
			continue
		}
		if fs, found := a.state[addr]; found {
			next[addr] = fs
		} else {
			next[addr] = a.emptyFields()
		}
		ordered = append(ordered, addr)
	}
	a.addresses = ordered
	a.state = next
	a.mu.Unlock()
	a.publish()
}

func (a *Aggregator[R]) emptyFields() []FieldState {
	fs := make([]FieldState, len(a.fields))
	for i, f := range a.fields {
		fs[i] = FieldState{Name: f.Name}
	}
	return fs
}

// Refresh runs every address x field query concurrently and returns once all
// of them completed, with the first error in address then field order.
func (a *Aggregator[R]) Refresh(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.generation++
	gen := a.generation
	addrs := append([]common.Address(nil), a.addresses...)
	for _, addr := range addrs {
		fs := a.state[addr]
		for i := range fs {
			fs[i].Loading = true
		}
	}
	a.mu.Unlock()
	a.publish()

	var wg sync.WaitGroup
	for _, addr := range addrs {
		for i, f := range a.fields {
			wg.Add(1)
			go func(addr common.Address, i int, f Field) {
				defer wg.Done()
				v, err := f.Read(ctx, addr)
				a.complete(gen, addr, i, v, err)
			}(addr, i, f)
		}
	}
	wg.Wait()

	snapshot := a.Snapshot()
	return snapshot.Err
}

func (a *Aggregator[R]) complete(gen uint64, addr common.Address, i int, v interface{}, err error) {
	a.mu.Lock()
	fs, found := a.state[addr]
	if a.closed || gen != a.generation || !found {
		a.mu.Unlock()
		a.logger.WithError(ErrStaleResult).WithFields(log.Fields{
			"address": addr.Hex(),
			"field":   a.fields[i].Name,
		}).Debug("dropped field")
		return
	}
	fs[i].Loading = false
	if err != nil {
		fs[i].Err = err
	} else {
		fs[i].Value = v
		fs[i].Resolved = true
		fs[i].Err = nil
	}
	a.mu.Unlock()
	a.publish()
}

func (a *Aggregator[R]) detailLocked(addr common.Address) Detail[R] {
	fs := a.state[addr]
	d := Detail[R]{
		Address: addr,
		Fields:  append([]FieldState(nil), fs...),
	}
	values := map[string]interface{}{}
	complete := true
	for i, f := range fs {
		if f.pending() {
			d.Loading = true
		}
		if f.Err != nil && d.Err == nil && !a.fields[i].Optional {
			d.Err = f.Err
		}
		if f.Resolved {
			values[f.Name] = f.Value
		} else if !a.fields[i].Optional {
			complete = false
		}
	}
	if !complete {
		return d
	}
	record, err := a.assemble(addr, values)
	if err != nil {
		if d.Err == nil {
			d.Err = err
		}
		return d
	}
	d.Record = record
	d.Loaded = true
	return d
}

// Detail returns the merged view of addr, false if addr is not tracked.
func (a *Aggregator[R]) Detail(addr common.Address) (Detail[R], bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, found := a.state[addr]; !found {
		return Detail[R]{}, false
	}
	return a.detailLocked(addr), true
}

// Snapshot returns every detail in address order. Loading and Err are the
// OR over all entities and fields.
func (a *Aggregator[R]) Snapshot() Snapshot[R] {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *Aggregator[R]) snapshotLocked() Snapshot[R] {
	s := Snapshot[R]{Details: make([]Detail[R], 0, len(a.addresses))}
	for _, addr := range a.addresses {
		d := a.detailLocked(addr)
		s.Loading = s.Loading || d.Loading
		if s.Err == nil {
			s.Err = d.Err
		}
		s.Details = append(s.Details, d)
	}
	return s
}

// OnUpdate registers fn to receive every new snapshot in order.
func (a *Aggregator[R]) OnUpdate(fn func(Snapshot[R])) (cancel func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextListener
	a.nextListener++
	a.listeners[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.listeners, id)
	}
}

func (a *Aggregator[R]) publish() {
	a.emitMu.Lock()
	defer a.emitMu.Unlock()

	a.mu.Lock()
	if a.closed || len(a.listeners) == 0 {
		a.mu.Unlock()
		return
	}
	snapshot := a.snapshotLocked()
	listeners := make([]func(Snapshot[R]), 0, len(a.listeners))
	for _, fn := range a.listeners {
		listeners = append(listeners, fn)
	}
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

func (a *Aggregator[R]) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.generation++
	a.listeners = map[int]func(Snapshot[R]){}
}
