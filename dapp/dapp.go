// Package dapp binds the generic fetchers, aggregators and the transaction
// coordinator to the petshop contracts.
package dapp

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"

	"github.com/tranvictor/petshop/aggregate"
	"github.com/tranvictor/petshop/collection"
	"github.com/tranvictor/petshop/networks"
	"github.com/tranvictor/petshop/query"
)

// Dapp reads the petshop contracts through a cached client.
type Dapp struct {
	client    *query.Client
	contracts networks.ContractTable
	rateLimit   int
	concurrency int
	maxCount    uint64
	logger      *log.Entry
}

type Option func(*Dapp)

// WithRateLimit caps the per collection item queries per second.
func WithRateLimit(perSecond int) Option {
	return func(d *Dapp) { d.rateLimit = perSecond }
}

// WithCollectionLimits bounds the item queries in flight and the largest
// collection discovered. Zero keeps the collection defaults.
func WithCollectionLimits(concurrency int, maxCount uint64) Option {
	return func(d *Dapp) {
		d.concurrency = concurrency
		d.maxCount = maxCount
	}
}

func New(client *query.Client, contracts networks.ContractTable, opts ...Option) *Dapp {
	d := &Dapp{
		client:    client,
		contracts: contracts,
		logger:    log.WithField("component", "dapp"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dapp) Contracts() networks.ContractTable {
	return d.contracts
}

func (d *Dapp) Client() *query.Client {
	return d.client
}

func (d *Dapp) require(name string, addr common.Address) (common.Address, error) {
	return networks.Require(name, addr)
}

// OwnedPets discovers pets through balanceOf and tokenOfOwnerByIndex, then
// reads each token URI. A failing tokenURI leaves the URI pending but keeps
// the pet.
func (d *Dapp) OwnedPets() (*collection.Fetcher[Asset], error) {
	pet, err := d.require("CustomPet", d.contracts.CustomPet)
	if err != nil {
		return nil, err
	}
	count := func(ctx context.Context, owner common.Address) (uint64, error) {
		n, err := query.One[*big.Int](ctx, d.client, pet, CustomPetABI, "balanceOf", owner)
		if err != nil {
			return 0, err
		}
		if !n.IsUint64() {
			return 0, fmt.Errorf("balanceOf returned %s", n)
		}
		return n.Uint64(), nil
	}
	item := func(ctx context.Context, owner common.Address, index uint64) (Asset, error) {
		id, err := query.One[*big.Int](ctx, d.client, pet, CustomPetABI, "tokenOfOwnerByIndex", owner, new(big.Int).SetUint64(index))
		if err != nil {
			return Asset{}, err
		}
		asset := Asset{TokenID: id, Owner: owner}
		uri, err := query.One[string](ctx, d.client, pet, CustomPetABI, "tokenURI", id)
		if err != nil {
			d.logger.WithError(err).WithField("token", id.String()).Debug("token uri unavailable")
		} else {
			asset.MetadataURI = query.Resolved(uri)
		}
		return asset, nil
	}
	opts := []collection.Option{
		collection.WithRateLimit(d.rateLimit),
		collection.WithConcurrency(d.concurrency),
		collection.WithMaxCount(d.maxCount),
	}
	return collection.New[Asset]("owned-pets", count, item, opts...), nil
}

// ViewerOwnedPets reads the pets of owner in one Viewer call.
func (d *Dapp) ViewerOwnedPets(ctx context.Context, owner common.Address) ([]Asset, error) {
	viewer, err := d.require("Viewer", d.contracts.Viewer)
	if err != nil {
		return nil, err
	}
	out, err := d.client.Call(ctx, viewer, ViewerABI, "getOwnedCPs", owner)
	if err != nil {
		return nil, err
	}
	ids, err := query.Nth[[]*big.Int]("getOwnedCPs", out, 0)
	if err != nil {
		return nil, err
	}
	uris, err := query.Nth[[]string]("getOwnedCPs", out, 1)
	if err != nil {
		return nil, err
	}
	assets := make([]Asset, len(ids))
	for i, id := range ids {
		assets[i] = Asset{TokenID: id, Owner: owner}
		if i < len(uris) {
			assets[i].MetadataURI = query.Resolved(uris[i])
		}
	}
	return assets, nil
}

func (d *Dapp) UserTrades(ctx context.Context, owner common.Address) ([]common.Address, error) {
	viewer, err := d.require("Viewer", d.contracts.Viewer)
	if err != nil {
		return nil, err
	}
	return query.One[[]common.Address](ctx, d.client, viewer, ViewerABI, "getUserAllTrades", owner)
}

func (d *Dapp) tradeField(method string, optional bool) aggregate.Field {
	return aggregate.Field{
		Name:     method,
		Optional: optional,
		Read: func(ctx context.Context, addr common.Address) (interface{}, error) {
			out, err := d.client.Call(ctx, addr, TradeABI, method)
			if err != nil {
				return nil, err
			}
			if len(out) != 1 {
				return nil, fmt.Errorf("%s returned %d values", method, len(out))
			}
			return out[0], nil
		},
	}
}

// TradeAggregator reads every field of a set of trade contracts.
// getDepositedCPs is optional, older trades don't expose it.
func (d *Dapp) TradeAggregator() *aggregate.Aggregator[Trade] {
	return aggregate.NewAggregator("trades", []aggregate.Field{
		d.tradeField("seller", false),
		d.tradeField("buyer", false),
		d.tradeField("expiration", false),
		d.tradeField("priceCT", false),
		d.tradeField("active", false),
		d.tradeField("getDepositedCPs", true),
	}, assembleTrade)
}

func assembleTrade(addr common.Address, values map[string]interface{}) (Trade, error) {
	t := Trade{Address: addr}
	var ok bool
	if t.Seller, ok = values["seller"].(common.Address); !ok {
		return t, fmt.Errorf("seller is %T", values["seller"])
	}
	if t.Buyer, ok = values["buyer"].(common.Address); !ok {
		return t, fmt.Errorf("buyer is %T", values["buyer"])
	}
	exp, ok := values["expiration"].(*big.Int)
	if !ok {
		return t, fmt.Errorf("expiration is %T", values["expiration"])
	}
	t.Expiration = time.Unix(exp.Int64(), 0).UTC()
	if t.PriceCT, ok = values["priceCT"].(*big.Int); !ok {
		return t, fmt.Errorf("priceCT is %T", values["priceCT"])
	}
	if t.Active, ok = values["active"].(bool); !ok {
		return t, fmt.Errorf("active is %T", values["active"])
	}
	if ids, found := values["getDepositedCPs"].([]*big.Int); found {
		t.DepositedTokenIDs = ids
	}
	return t, nil
}

// TradeParties extracts the seller and buyer fields of a detail, resolved
// or not, for role resolution.
func TradeParties(detail aggregate.Detail[Trade]) aggregate.Parties {
	p := aggregate.Parties{}
	for _, f := range detail.Fields {
		addr, ok := f.Value.(common.Address)
		if !f.Resolved || !ok {
			continue
		}
		switch f.Name {
		case "seller":
			p.Seller = query.Resolved(addr)
		case "buyer":
			p.Buyer = query.Resolved(addr)
		}
	}
	return p
}

// TradeRole is the role acting plays in the trade of detail. It is
// RoleUnknown while the parties needed to decide are loading.
func TradeRole(detail aggregate.Detail[Trade], acting *common.Address) aggregate.Role {
	return aggregate.ResolveRole(TradeParties(detail), acting).Role
}

func (d *Dapp) Members(ctx context.Context) ([]CommitteeMember, error) {
	committee, err := d.require("Committee", d.contracts.Committee)
	if err != nil {
		return nil, err
	}
	// Same shape as the tuple the abi decoder builds for getMembers.
	type stake = struct {
		Member common.Address `json:"member"`
		Amount *big.Int       `json:"amount"`
	}
	stakes, err := query.One[[]stake](ctx, d.client, committee, CommitteeABI, "getMembers")
	if err != nil {
		return nil, err
	}
	members := make([]CommitteeMember, len(stakes))
	for i, s := range stakes {
		members[i] = CommitteeMember{Address: s.Member, StakedAmount: s.Amount}
	}
	return members, nil
}

func (d *Dapp) IsMember(ctx context.Context, addr common.Address) (bool, error) {
	committee, err := d.require("Committee", d.contracts.Committee)
	if err != nil {
		return false, err
	}
	return query.One[bool](ctx, d.client, committee, CommitteeABI, "isMember", addr)
}

// CommitteeView is the member listing plus the membership of the acting
// address. The two are read independently and may disagree for a poll, a
// failure of one leaves the other in place.
type CommitteeView struct {
	Members       []CommitteeMember    `json:"members" yaml:"members"`
	MembersError  string               `json:"members_error,omitempty" yaml:"members_error,omitempty"`
	IsMember      query.Optional[bool] `json:"is_member" yaml:"is_member"`
	IsMemberError string               `json:"is_member_error,omitempty" yaml:"is_member_error,omitempty"`
}

// Committee reads the members and the membership of acting. The returned
// error joins the failed parts, the view still holds the others.
func (d *Dapp) Committee(ctx context.Context, acting *common.Address) (CommitteeView, error) {
	view := CommitteeView{}
	if _, err := d.require("Committee", d.contracts.Committee); err != nil {
		return view, err
	}
	var membersErr, memberErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		view.Members, membersErr = d.Members(ctx)
	}()
	if acting != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var isMember bool
			if isMember, memberErr = d.IsMember(ctx, *acting); memberErr == nil {
				view.IsMember = query.Resolved(isMember)
			}
		}()
	}
	wg.Wait()
	view.MembersError = errString(membersErr)
	view.IsMemberError = errString(memberErr)
	return view, errors.Join(membersErr, memberErr)
}

// ProposalLists holds the active and historical proposal lists. Each list
// is read on its own, one failing doesn't blank the other.
type ProposalLists struct {
	Active        []common.Address
	ActiveErr     error
	Historical    []common.Address
	HistoricalErr error
}

// Merged is the active then historical list of whatever resolved.
func (l ProposalLists) Merged() []aggregate.Tagged {
	return aggregate.Merge(l.Active, l.Historical)
}

func (l ProposalLists) Err() error {
	return errors.Join(l.ActiveErr, l.HistoricalErr)
}

func (d *Dapp) ReadProposalLists(ctx context.Context) (ProposalLists, error) {
	lists := ProposalLists{}
	factory, err := d.require("ProposalFactory", d.contracts.ProposalFactory)
	if err != nil {
		return lists, err
	}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		lists.Active, lists.ActiveErr = query.One[[]common.Address](ctx, d.client, factory, ProposalFactoryABI, "getActiveProposals")
	}()
	go func() {
		defer wg.Done()
		lists.Historical, lists.HistoricalErr = query.One[[]common.Address](ctx, d.client, factory, ProposalFactoryABI, "getHistoricalProposals")
	}()
	wg.Wait()
	return lists, nil
}

// ProposalList reads the active and historical proposals and merges them,
// active first. When one list fails the other is still returned, along
// with the error.
func (d *Dapp) ProposalList(ctx context.Context) ([]aggregate.Tagged, error) {
	lists, err := d.ReadProposalLists(ctx)
	if err != nil {
		return nil, err
	}
	return lists.Merged(), lists.Err()
}

// ProposalAggregator reads getProposalInfo of every proposal. The Active
// flag is not part of the record, see ProposalBoard.
func (d *Dapp) ProposalAggregator() *aggregate.Aggregator[Proposal] {
	return aggregate.NewAggregator("proposals", []aggregate.Field{{
		Name: "getProposalInfo",
		Read: func(ctx context.Context, addr common.Address) (interface{}, error) {
			return d.client.Call(ctx, addr, ProposalABI, "getProposalInfo")
		},
	}}, assembleProposal)
}

func assembleProposal(addr common.Address, values map[string]interface{}) (Proposal, error) {
	const method = "getProposalInfo"
	p := Proposal{Address: addr}
	out, ok := values[method].([]interface{})
	if !ok {
		return p, fmt.Errorf("%s is %T", method, values[method])
	}
	var err error
	if p.Initiator, err = query.Nth[common.Address](method, out, 0); err != nil {
		return p, err
	}
	start, err := query.Nth[*big.Int](method, out, 1)
	if err != nil {
		return p, err
	}
	end, err := query.Nth[*big.Int](method, out, 2)
	if err != nil {
		return p, err
	}
	p.StartTime = time.Unix(start.Int64(), 0).UTC()
	p.EndTime = time.Unix(end.Int64(), 0).UTC()
	if p.Kind, err = query.Nth[string](method, out, 3); err != nil {
		return p, err
	}
	if p.YesWeight, err = query.Nth[*big.Int](method, out, 4); err != nil {
		return p, err
	}
	if p.NoWeight, err = query.Nth[*big.Int](method, out, 5); err != nil {
		return p, err
	}
	if p.Executed, err = query.Nth[bool](method, out, 6); err != nil {
		return p, err
	}
	return p, nil
}

// ExchangeView is the rate and the balances of the acting address. K is
// the wei price of one CT. Each part is read on its own.
type ExchangeView struct {
	K               *big.Int                 `json:"k" yaml:"k"`
	KError          string                   `json:"k_error,omitempty" yaml:"k_error,omitempty"`
	CTBalance       query.Optional[*big.Int] `json:"ct_balance" yaml:"ct_balance"`
	CTBalanceError  string                   `json:"ct_balance_error,omitempty" yaml:"ct_balance_error,omitempty"`
	ETHBalance      query.Optional[*big.Int] `json:"eth_balance" yaml:"eth_balance"`
	ETHBalanceError string                   `json:"eth_balance_error,omitempty" yaml:"eth_balance_error,omitempty"`
}

func (d *Dapp) K(ctx context.Context) (*big.Int, error) {
	exchange, err := d.require("Exchange", d.contracts.Exchange)
	if err != nil {
		return nil, err
	}
	return query.One[*big.Int](ctx, d.client, exchange, ExchangeABI, "k")
}

func (d *Dapp) Exchange(ctx context.Context, acting *common.Address) (ExchangeView, error) {
	view := ExchangeView{}
	if _, err := d.require("Exchange", d.contracts.Exchange); err != nil {
		return view, err
	}
	var token common.Address
	if acting != nil {
		var err error
		if token, err = d.require("CustomToken", d.contracts.CustomToken); err != nil {
			return view, err
		}
	}
	var kErr, ctErr, ethErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		view.K, kErr = d.K(ctx)
	}()
	if acting != nil {
		wg.Add(2)
		go func() {
			defer wg.Done()
			var ct *big.Int
			if ct, ctErr = query.One[*big.Int](ctx, d.client, token, CustomTokenABI, "balanceOf", *acting); ctErr == nil {
				view.CTBalance = query.Resolved(ct)
			}
		}()
		go func() {
			defer wg.Done()
			var eth *big.Int
			if eth, ethErr = d.client.Balance(ctx, *acting); ethErr == nil {
				view.ETHBalance = query.Resolved(eth)
			}
		}()
	}
	wg.Wait()
	view.KError = errString(kErr)
	view.CTBalanceError = errString(ctErr)
	view.ETHBalanceError = errString(ethErr)
	return view, errors.Join(kErr, ctErr, ethErr)
}
