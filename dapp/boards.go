package dapp

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/petshop/aggregate"
	"github.com/tranvictor/petshop/query"
)

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

type TradeRow struct {
	Address common.Address `json:"address" yaml:"address"`
	Trade   *Trade         `json:"trade,omitempty" yaml:"trade,omitempty"`
	Loading bool           `json:"loading" yaml:"loading"`
	Error   string         `json:"error,omitempty" yaml:"error,omitempty"`
	Role    string         `json:"role" yaml:"role"`
	// RoleLoading is set while a party needed to decide the role is unknown.
	RoleLoading bool          `json:"role_loading" yaml:"role_loading"`
	Actions     []TradeAction `json:"actions" yaml:"actions"`
}

type TradeBoardView struct {
	Rows    []TradeRow `json:"rows" yaml:"rows"`
	Loading bool       `json:"loading" yaml:"loading"`
	Error   string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// TradeBoard is the list of trades of one user with the details of each
// trade and the role the user plays in it.
type TradeBoard struct {
	dapp *Dapp
	agg  *aggregate.Aggregator[Trade]

	mu          sync.Mutex
	owner       *common.Address
	generation  uint64
	listed      bool
	listLoading bool
	listErr     error
	addrs       []common.Address
}

func (d *Dapp) NewTradeBoard() *TradeBoard {
	return &TradeBoard{dapp: d, agg: d.TradeAggregator()}
}

// SetOwner switches the user, nil disables the board.
func (b *TradeBoard) SetOwner(owner *common.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if owner == nil {
		b.owner = nil
	} else {
		o := *owner
		b.owner = &o
	}
	b.generation++
	b.listLoading = false
	b.listed = false
	b.listErr = nil
	b.addrs = nil
	b.agg.SetAddresses(nil)
}

// Refresh re-reads the trade list and every trade of it. A refresh that
// was overtaken by an owner switch or by a later refresh drops its results.
func (b *TradeBoard) Refresh(ctx context.Context) error {
	b.mu.Lock()
	owner := b.owner
	b.generation++
	gen := b.generation
	b.listLoading = owner != nil
	b.mu.Unlock()
	if owner == nil {
		return nil
	}

	addrs, err := b.dapp.UserTrades(ctx, *owner)

	b.mu.Lock()
	if gen != b.generation {
		b.mu.Unlock()
		b.dapp.logger.WithError(aggregate.ErrStaleResult).Debug("dropped trade list")
		return nil
	}
	b.listLoading = false
	b.listErr = err
	if err == nil {
		b.listed = true
		b.addrs = addrs
		b.agg.SetAddresses(addrs)
	}
	b.mu.Unlock()

	aggErr := b.agg.Refresh(ctx)
	return errors.Join(err, aggErr)
}

func (b *TradeBoard) Snapshot(now time.Time) TradeBoardView {
	b.mu.Lock()
	owner := b.owner
	addrs := append([]common.Address(nil), b.addrs...)
	view := TradeBoardView{
		Loading: b.listLoading || (owner != nil && !b.listed && b.listErr == nil),
		Error:   errString(b.listErr),
	}
	b.mu.Unlock()
	if owner == nil {
		return TradeBoardView{}
	}

	snap := b.agg.Snapshot()
	view.Loading = view.Loading || snap.Loading
	if view.Error == "" {
		view.Error = errString(snap.Err)
	}
	view.Rows = make([]TradeRow, 0, len(addrs))
	for _, addr := range addrs {
		row := TradeRow{Address: addr, Loading: true}
		detail, found := b.agg.Detail(addr)
		if found {
			row.Loading = detail.Loading
			row.Error = errString(detail.Err)
			role := aggregate.ResolveRole(TradeParties(detail), owner)
			row.Role = role.Role.String()
			row.RoleLoading = role.Loading
			if detail.Loaded {
				t := detail.Record
				row.Trade = &t
				if !role.Loading {
					row.Actions = t.AvailableActions(role.Role, now)
				}
			}
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

// Trade returns the loaded detail of one trade of the board.
func (b *TradeBoard) Trade(addr common.Address) (Trade, aggregate.Role, bool) {
	b.mu.Lock()
	owner := b.owner
	b.mu.Unlock()
	detail, found := b.agg.Detail(addr)
	if !found || !detail.Loaded {
		return Trade{}, aggregate.RoleUnknown, false
	}
	return detail.Record, TradeRole(detail, owner), true
}

func (b *TradeBoard) Close() {
	b.agg.Close()
}

type ProposalRow struct {
	Proposal `yaml:",inline"`
	Loading  bool             `json:"loading" yaml:"loading"`
	Loaded   bool             `json:"loaded" yaml:"loaded"`
	Error    string           `json:"error,omitempty" yaml:"error,omitempty"`
	Actions  []ProposalAction `json:"actions" yaml:"actions"`
}

type ProposalBoardView struct {
	Rows     []ProposalRow        `json:"rows" yaml:"rows"`
	IsMember query.Optional[bool] `json:"is_member" yaml:"is_member"`
	Loading  bool                 `json:"loading" yaml:"loading"`
	Error    string               `json:"error,omitempty" yaml:"error,omitempty"`
}

// ProposalBoard is the merged active and historical proposal list with the
// info of every proposal and the membership of the acting address.
type ProposalBoard struct {
	dapp *Dapp
	agg  *aggregate.Aggregator[Proposal]

	mu          sync.Mutex
	acting      *common.Address
	actingGen   uint64
	generation  uint64
	listLoading bool
	listErr     error
	// each list keeps its last good value when a later read of it fails
	active     query.Optional[[]common.Address]
	historical query.Optional[[]common.Address]
	isMember   query.Optional[bool]
}

func (d *Dapp) NewProposalBoard() *ProposalBoard {
	return &ProposalBoard{dapp: d, agg: d.ProposalAggregator()}
}

// SetActing sets the address whose membership gates voting. The list
// itself doesn't depend on it.
func (b *ProposalBoard) SetActing(acting *common.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if acting == nil {
		b.acting = nil
	} else {
		a := *acting
		b.acting = &a
	}
	b.actingGen++
	b.isMember = query.Pending[bool]()
}

// Refresh re-reads both proposal lists, the membership of the acting
// address and the info of every listed proposal. Results of a refresh
// overtaken by a later one are dropped.
func (b *ProposalBoard) Refresh(ctx context.Context) error {
	b.mu.Lock()
	acting := b.acting
	actingGen := b.actingGen
	b.generation++
	gen := b.generation
	b.listLoading = true
	b.mu.Unlock()

	lists, err := b.dapp.ReadProposalLists(ctx)
	var memberErr error
	isMember := query.Pending[bool]()
	if acting != nil {
		var m bool
		if m, memberErr = b.dapp.IsMember(ctx, *acting); memberErr == nil {
			isMember = query.Resolved(m)
		}
	}

	b.mu.Lock()
	if gen != b.generation {
		b.mu.Unlock()
		b.dapp.logger.WithError(aggregate.ErrStaleResult).Debug("dropped proposal lists")
		return nil
	}
	if actingGen == b.actingGen {
		b.isMember = isMember
	}
	b.listLoading = false
	if err == nil {
		if lists.ActiveErr == nil {
			b.active = query.Resolved(lists.Active)
		}
		if lists.HistoricalErr == nil {
			b.historical = query.Resolved(lists.Historical)
		}
		err = lists.Err()
	}
	b.listErr = err
	tagged := b.taggedLocked()
	b.agg.SetAddresses(aggregate.Addresses(tagged))
	b.mu.Unlock()

	aggErr := b.agg.Refresh(ctx)
	return errors.Join(err, memberErr, aggErr)
}

func (b *ProposalBoard) taggedLocked() []aggregate.Tagged {
	active, _ := b.active.Get()
	historical, _ := b.historical.Get()
	return aggregate.Merge(active, historical)
}

func (b *ProposalBoard) listedLocked() bool {
	_, a := b.active.Get()
	_, h := b.historical.Get()
	return a || h
}

func (b *ProposalBoard) Snapshot() ProposalBoardView {
	b.mu.Lock()
	tagged := b.taggedLocked()
	view := ProposalBoardView{
		IsMember: b.isMember,
		Loading:  b.listLoading || (!b.listedLocked() && b.listErr == nil),
		Error:    errString(b.listErr),
	}
	b.mu.Unlock()

	snap := b.agg.Snapshot()
	view.Loading = view.Loading || snap.Loading
	if view.Error == "" {
		view.Error = errString(snap.Err)
	}
	isMember, _ := view.IsMember.Get()
	view.Rows = make([]ProposalRow, 0, len(tagged))
	for _, t := range tagged {
		row := ProposalRow{Proposal: Proposal{Address: t.Address, Active: t.Active}, Loading: true}
		if detail, found := b.agg.Detail(t.Address); found {
			row.Loading = detail.Loading
			row.Loaded = detail.Loaded
			row.Error = errString(detail.Err)
			if detail.Loaded {
				row.Proposal = detail.Record
				row.Proposal.Active = t.Active
			}
		}
		row.Actions = ProposalActions(row.Proposal, isMember)
		view.Rows = append(view.Rows, row)
	}
	return view
}

func (b *ProposalBoard) Close() {
	b.agg.Close()
}
