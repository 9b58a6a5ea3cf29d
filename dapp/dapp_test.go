package dapp_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/petshop/dapp"
	"github.com/tranvictor/petshop/networks"
	"github.com/tranvictor/petshop/query"
	"github.com/tranvictor/petshop/util/cache"
)

var (
	contracts = networks.ContractTable{
		CustomToken:     common.HexToAddress("0x6649E782bB5EcBF1C9F979E789c82Eb94Cdf02a4"),
		CustomPet:       common.HexToAddress("0x4fB609EE829751bA212F11E2B60b99Ad0FF1b772"),
		Exchange:        common.HexToAddress("0x10045DE72c17a0799dF471EF4229160eA5C35C12"),
		TradeFactory:    common.HexToAddress("0x3Be14C82F9951b2B6221B7A30e50F031CB0CA8d2"),
		Viewer:          common.HexToAddress("0x12aA9244081eAC654C6C0Af4C2795a3810e32627"),
		Committee:       common.HexToAddress("0x00000000000000000000000000000000000c0111"),
		ProposalFactory: common.HexToAddress("0x0000000000000000000000000000000000000fac"),
	}
	alice = common.HexToAddress("0x000000000000000000000000000000000000a11c")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol = common.HexToAddress("0x0000000000000000000000000000000000000ca1")
)

type handler func(args ...interface{}) ([]interface{}, error)

// chain answers calls from handlers keyed by target and method.
type chain struct {
	mu       sync.Mutex
	handlers map[string]handler
	balances map[common.Address]*big.Int
	calls    map[string]int
}

func newChain() *chain {
	return &chain{
		handlers: map[string]handler{},
		balances: map[common.Address]*big.Int{},
		calls:    map[string]int{},
	}
}

func key(target common.Address, method string) string {
	return fmt.Sprintf("%s.%s", target.Hex(), method)
}

func (c *chain) on(target common.Address, method string, h handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[key(target, method)] = h
}

func (c *chain) returns(target common.Address, method string, out ...interface{}) {
	c.on(target, method, func(...interface{}) ([]interface{}, error) { return out, nil })
}

func (c *chain) count(target common.Address, method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[key(target, method)]
}

func (c *chain) Call(
	ctx context.Context,
	target common.Address,
	a *abi.ABI,
	method string,
	args ...interface{},
) ([]interface{}, error) {
	c.mu.Lock()
	c.calls[key(target, method)]++
	h, found := c.handlers[key(target, method)]
	c.mu.Unlock()
	if !found {
		return nil, fmt.Errorf("execution reverted: %s", method)
	}
	return h(args...)
}

func (c *chain) GetBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, found := c.balances[address]
	if !found {
		return nil, errors.New("unknown account")
	}
	return b, nil
}

func newDapp(c *chain) *dapp.Dapp {
	return dapp.New(query.NewClient(c, cache.New()), contracts)
}

func TestOwnedPetsKeepsPetWithoutURI(t *testing.T) {
	c := newChain()
	c.returns(contracts.CustomPet, "balanceOf", big.NewInt(2))
	c.on(contracts.CustomPet, "tokenOfOwnerByIndex", func(args ...interface{}) ([]interface{}, error) {
		i := args[1].(*big.Int).Int64()
		return []interface{}{big.NewInt(10 + i)}, nil
	})
	c.on(contracts.CustomPet, "tokenURI", func(args ...interface{}) ([]interface{}, error) {
		if args[0].(*big.Int).Int64() == 11 {
			return nil, errors.New("not pinned yet")
		}
		return []interface{}{"ipfs://cat"}, nil
	})

	f, err := newDapp(c).OwnedPets()
	require.NoError(t, err)
	defer f.Close()
	f.SetOwner(&alice)
	require.NoError(t, f.Refresh(context.Background()))

	res := f.Snapshot()
	assert.False(t, res.Loading)
	require.Len(t, res.Items, 2)
	assert.Equal(t, int64(10), res.Items[0].TokenID.Int64())
	uri, resolved := res.Items[0].MetadataURI.Get()
	assert.True(t, resolved)
	assert.Equal(t, "ipfs://cat", uri)
	assert.Equal(t, int64(11), res.Items[1].TokenID.Int64())
	_, resolved = res.Items[1].MetadataURI.Get()
	assert.False(t, resolved)
}

func TestOwnedPetsNeedsTheContract(t *testing.T) {
	d := dapp.New(query.NewClient(newChain(), cache.New()), networks.ContractTable{})
	_, err := d.OwnedPets()
	assert.ErrorIs(t, err, networks.ErrContractNotConfigured)
}

func TestViewerOwnedPets(t *testing.T) {
	c := newChain()
	c.returns(contracts.Viewer, "getOwnedCPs",
		[]*big.Int{big.NewInt(1), big.NewInt(4)},
		[]string{"ipfs://a", "ipfs://b"},
	)
	assets, err := newDapp(c).ViewerOwnedPets(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, int64(4), assets[1].TokenID.Int64())
	assert.Equal(t, alice, assets[1].Owner)
	assert.Equal(t, query.Resolved("ipfs://b"), assets[1].MetadataURI)
}

func stubTrade(c *chain, addr, seller, buyer common.Address, expiration time.Time, active bool) {
	c.returns(addr, "seller", seller)
	c.returns(addr, "buyer", buyer)
	c.returns(addr, "expiration", big.NewInt(expiration.Unix()))
	c.returns(addr, "priceCT", big.NewInt(100))
	c.returns(addr, "active", active)
}

func TestTradeBoardRolesAndActions(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	sold := common.HexToAddress("0x0000000000000000000000000000000000001111")
	bought := common.HexToAddress("0x0000000000000000000000000000000000002222")
	late := common.HexToAddress("0x0000000000000000000000000000000000003333")

	c := newChain()
	c.returns(contracts.Viewer, "getUserAllTrades", []common.Address{sold, bought, late})
	stubTrade(c, sold, alice, bob, now.Add(time.Hour), true)
	c.returns(sold, "getDepositedCPs", []*big.Int{big.NewInt(3)})
	stubTrade(c, bought, bob, alice, now.Add(time.Hour), true)
	stubTrade(c, late, carol, bob, now.Add(-time.Hour), true)

	board := newDapp(c).NewTradeBoard()
	defer board.Close()
	board.SetOwner(&alice)
	require.NoError(t, board.Refresh(context.Background()))

	view := board.Snapshot(now)
	assert.False(t, view.Loading)
	assert.Empty(t, view.Error)
	require.Len(t, view.Rows, 3)

	assert.Equal(t, "seller", view.Rows[0].Role)
	assert.Equal(t, []dapp.TradeAction{dapp.ActionCancel, dapp.ActionDeposit}, view.Rows[0].Actions)
	require.NotNil(t, view.Rows[0].Trade)
	assert.Len(t, view.Rows[0].Trade.DepositedTokenIDs, 1)

	assert.Equal(t, "buyer", view.Rows[1].Role)
	assert.Equal(t, []dapp.TradeAction{dapp.ActionConfirm}, view.Rows[1].Actions)
	// getDepositedCPs is not deployed on this trade, it still loads
	assert.False(t, view.Rows[1].Loading)
	assert.Empty(t, view.Rows[1].Trade.DepositedTokenIDs)

	assert.Equal(t, "unknown", view.Rows[2].Role)
	assert.Equal(t, []dapp.TradeAction{dapp.ActionExpire}, view.Rows[2].Actions)

	trade, role, found := board.Trade(bought)
	require.True(t, found)
	assert.Equal(t, "buyer", role.String())
	assert.Equal(t, alice, trade.Buyer)
}

func TestTradeBoardFailedTradeStaysLocal(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	good := common.HexToAddress("0x0000000000000000000000000000000000001111")
	broken := common.HexToAddress("0x0000000000000000000000000000000000002222")

	c := newChain()
	c.returns(contracts.Viewer, "getUserAllTrades", []common.Address{good, broken})
	stubTrade(c, good, alice, bob, now.Add(time.Hour), true)
	c.returns(broken, "seller", alice)

	board := newDapp(c).NewTradeBoard()
	defer board.Close()
	board.SetOwner(&alice)
	assert.Error(t, board.Refresh(context.Background()))

	view := board.Snapshot(now)
	require.Len(t, view.Rows, 2)
	assert.NotNil(t, view.Rows[0].Trade)
	assert.Empty(t, view.Rows[0].Error)
	assert.Nil(t, view.Rows[1].Trade)
	assert.NotEmpty(t, view.Rows[1].Error)
	assert.Empty(t, view.Rows[1].Actions)
}

func TestTradeBoardWithoutOwnerIsEmpty(t *testing.T) {
	c := newChain()
	board := newDapp(c).NewTradeBoard()
	defer board.Close()
	require.NoError(t, board.Refresh(context.Background()))
	assert.Equal(t, dapp.TradeBoardView{}, board.Snapshot(time.Now()))
	assert.Zero(t, c.count(contracts.Viewer, "getUserAllTrades"))
}

func proposalInfo(kind string, executed bool) []interface{} {
	return []interface{}{
		alice,
		big.NewInt(1_700_000_000),
		big.NewInt(1_700_086_400),
		kind,
		big.NewInt(5),
		big.NewInt(2),
		executed,
	}
}

func TestProposalBoardMergesAndGatesVoting(t *testing.T) {
	p1 := common.HexToAddress("0x0000000000000000000000000000000000000001")
	p2 := common.HexToAddress("0x0000000000000000000000000000000000000002")

	c := newChain()
	c.returns(contracts.ProposalFactory, "getActiveProposals", []common.Address{p1})
	c.returns(contracts.ProposalFactory, "getHistoricalProposals", []common.Address{p2, p1})
	c.returns(contracts.Committee, "isMember", true)
	c.returns(p1, "getProposalInfo", proposalInfo("adjust-k", false)...)
	c.returns(p2, "getProposalInfo", proposalInfo("mint-cp", true)...)

	board := newDapp(c).NewProposalBoard()
	defer board.Close()
	board.SetActing(&bob)
	require.NoError(t, board.Refresh(context.Background()))

	view := board.Snapshot()
	assert.False(t, view.Loading)
	assert.Equal(t, query.Resolved(true), view.IsMember)
	require.Len(t, view.Rows, 3)

	assert.Equal(t, p1, view.Rows[0].Address)
	assert.True(t, view.Rows[0].Active)
	assert.Equal(t, "adjust-k", view.Rows[0].Kind)
	assert.Equal(t, []dapp.ProposalAction{dapp.ActionVote, dapp.ActionEnd}, view.Rows[0].Actions)

	assert.Equal(t, p2, view.Rows[1].Address)
	assert.False(t, view.Rows[1].Active)
	assert.True(t, view.Rows[1].Executed)
	assert.Equal(t, []dapp.ProposalAction{dapp.ActionEnd}, view.Rows[1].Actions)

	// the same proposal listed twice keeps both entries
	assert.Equal(t, p1, view.Rows[2].Address)
	assert.False(t, view.Rows[2].Active)
	assert.Equal(t, "adjust-k", view.Rows[2].Kind)
	assert.Equal(t, 1, c.count(p1, "getProposalInfo"))
}

func TestProposalBoardNonMemberCannotVote(t *testing.T) {
	p1 := common.HexToAddress("0x0000000000000000000000000000000000000001")
	c := newChain()
	c.returns(contracts.ProposalFactory, "getActiveProposals", []common.Address{p1})
	c.returns(contracts.ProposalFactory, "getHistoricalProposals", []common.Address{})
	c.returns(contracts.Committee, "isMember", false)
	c.returns(p1, "getProposalInfo", proposalInfo("burn-cp", false)...)

	board := newDapp(c).NewProposalBoard()
	defer board.Close()
	board.SetActing(&carol)
	require.NoError(t, board.Refresh(context.Background()))

	view := board.Snapshot()
	require.Len(t, view.Rows, 1)
	assert.Equal(t, []dapp.ProposalAction{dapp.ActionEnd}, view.Rows[0].Actions)
}

func TestCommitteeView(t *testing.T) {
	c := newChain()
	c.returns(contracts.Committee, "getMembers", []struct {
		Member common.Address `json:"member"`
		Amount *big.Int       `json:"amount"`
	}{
		{Member: alice, Amount: big.NewInt(1e18)},
		{Member: bob, Amount: big.NewInt(2e18)},
	})
	c.on(contracts.Committee, "isMember", func(args ...interface{}) ([]interface{}, error) {
		return []interface{}{args[0].(common.Address) == bob}, nil
	})
	d := newDapp(c)

	view, err := d.Committee(context.Background(), &bob)
	require.NoError(t, err)
	require.Len(t, view.Members, 2)
	assert.Equal(t, bob, view.Members[1].Address)
	assert.Equal(t, big.NewInt(2e18), view.Members[1].StakedAmount)
	assert.Equal(t, query.Resolved(true), view.IsMember)

	view, err = d.Committee(context.Background(), nil)
	require.NoError(t, err)
	_, resolved := view.IsMember.Get()
	assert.False(t, resolved)
}

func TestExchangeView(t *testing.T) {
	c := newChain()
	c.returns(contracts.Exchange, "k", big.NewInt(1e15))
	c.returns(contracts.CustomToken, "balanceOf", big.NewInt(42))
	c.balances[alice] = big.NewInt(3e18)

	view, err := newDapp(c).Exchange(context.Background(), &alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1e15), view.K)
	assert.Equal(t, query.Resolved(big.NewInt(42)), view.CTBalance)
	assert.Equal(t, query.Resolved(big.NewInt(3e18)), view.ETHBalance)
}

func TestExchangeViewWithoutCommitteeStillWorks(t *testing.T) {
	c := newChain()
	c.returns(contracts.Exchange, "k", big.NewInt(7))
	table := contracts
	table.Committee = common.Address{}
	d := dapp.New(query.NewClient(c, cache.New()), table)

	view, err := d.Exchange(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7), view.K.Int64())

	_, err = d.Committee(context.Background(), nil)
	assert.ErrorIs(t, err, networks.ErrContractNotConfigured)
}

func TestProposalListKeepsTheListThatLoaded(t *testing.T) {
	p1 := common.HexToAddress("0x0000000000000000000000000000000000000001")
	c := newChain()
	c.returns(contracts.ProposalFactory, "getActiveProposals", []common.Address{p1})

	tagged, err := newDapp(c).ProposalList(context.Background())
	assert.ErrorContains(t, err, "getHistoricalProposals")
	require.Len(t, tagged, 1)
	assert.Equal(t, p1, tagged[0].Address)
	assert.True(t, tagged[0].Active)
}

func TestProposalBoardKeepsLastGoodListOnFailure(t *testing.T) {
	p1 := common.HexToAddress("0x0000000000000000000000000000000000000001")
	p2 := common.HexToAddress("0x0000000000000000000000000000000000000002")
	c := newChain()
	c.returns(contracts.ProposalFactory, "getActiveProposals", []common.Address{p1})
	c.returns(p1, "getProposalInfo", proposalInfo("adjust-k", false)...)
	c.returns(p2, "getProposalInfo", proposalInfo("mint-cp", true)...)

	board := newDapp(c).NewProposalBoard()
	defer board.Close()
	ctx := query.Fresh(context.Background())

	// historical is not answered yet, active still shows
	assert.Error(t, board.Refresh(ctx))
	view := board.Snapshot()
	assert.False(t, view.Loading)
	assert.Contains(t, view.Error, "getHistoricalProposals")
	require.Len(t, view.Rows, 1)
	assert.Equal(t, p1, view.Rows[0].Address)

	// now active breaks and historical answers, the last active list stays
	c.on(contracts.ProposalFactory, "getActiveProposals", func(...interface{}) ([]interface{}, error) {
		return nil, errors.New("header not found")
	})
	c.returns(contracts.ProposalFactory, "getHistoricalProposals", []common.Address{p2})
	assert.Error(t, board.Refresh(ctx))
	view = board.Snapshot()
	assert.Contains(t, view.Error, "getActiveProposals")
	require.Len(t, view.Rows, 2)
	assert.Equal(t, p1, view.Rows[0].Address)
	assert.True(t, view.Rows[0].Active)
	assert.Equal(t, p2, view.Rows[1].Address)
	assert.True(t, view.Rows[1].Loaded)
}

func TestCommitteeMembersSurviveMembershipFailure(t *testing.T) {
	c := newChain()
	c.on(contracts.Committee, "getMembers", func(...interface{}) ([]interface{}, error) {
		time.Sleep(50 * time.Millisecond)
		return []interface{}{[]struct {
			Member common.Address `json:"member"`
			Amount *big.Int       `json:"amount"`
		}{{Member: alice, Amount: big.NewInt(1e18)}}}, nil
	})
	c.on(contracts.Committee, "isMember", func(...interface{}) ([]interface{}, error) {
		return nil, errors.New("connection reset")
	})

	view, err := newDapp(c).Committee(context.Background(), &bob)
	assert.ErrorContains(t, err, "isMember")
	require.Len(t, view.Members, 1)
	assert.Equal(t, alice, view.Members[0].Address)
	assert.Empty(t, view.MembersError)
	assert.NotEmpty(t, view.IsMemberError)
	_, resolved := view.IsMember.Get()
	assert.False(t, resolved)
}

func TestExchangeBalancesSurviveRateFailure(t *testing.T) {
	c := newChain()
	c.returns(contracts.CustomToken, "balanceOf", big.NewInt(42))
	c.balances[alice] = big.NewInt(3e18)

	view, err := newDapp(c).Exchange(context.Background(), &alice)
	assert.ErrorContains(t, err, "k")
	assert.Nil(t, view.K)
	assert.NotEmpty(t, view.KError)
	assert.Equal(t, query.Resolved(big.NewInt(42)), view.CTBalance)
	assert.Equal(t, query.Resolved(big.NewInt(3e18)), view.ETHBalance)
	assert.Empty(t, view.CTBalanceError)
}

func TestExchangeWithoutTokenStartsNoRead(t *testing.T) {
	c := newChain()
	c.returns(contracts.Exchange, "k", big.NewInt(7))
	table := contracts
	table.CustomToken = common.Address{}
	d := dapp.New(query.NewClient(c, cache.New()), table)

	_, err := d.Exchange(context.Background(), &alice)
	assert.ErrorIs(t, err, networks.ErrContractNotConfigured)
	assert.Zero(t, c.count(contracts.Exchange, "k"))
}

func TestTradeBoardDropsListOfPreviousOwner(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	alicesTrade := common.HexToAddress("0x0000000000000000000000000000000000001111")
	gate := make(chan struct{})

	c := newChain()
	c.on(contracts.Viewer, "getUserAllTrades", func(args ...interface{}) ([]interface{}, error) {
		if args[0].(common.Address) == alice {
			<-gate
			return []interface{}{[]common.Address{alicesTrade}}, nil
		}
		return []interface{}{[]common.Address{}}, nil
	})
	stubTrade(c, alicesTrade, alice, bob, now.Add(time.Hour), true)

	board := newDapp(c).NewTradeBoard()
	defer board.Close()
	board.SetOwner(&alice)
	done := make(chan error, 1)
	go func() { done <- board.Refresh(context.Background()) }()
	require.Eventually(t, func() bool {
		return c.count(contracts.Viewer, "getUserAllTrades") == 1
	}, time.Second, time.Millisecond)

	board.SetOwner(&bob)
	close(gate)
	require.NoError(t, <-done)

	view := board.Snapshot(now)
	assert.Empty(t, view.Rows)
	assert.True(t, view.Loading)
	assert.Zero(t, c.count(alicesTrade, "seller"))

	require.NoError(t, board.Refresh(context.Background()))
	view = board.Snapshot(now)
	assert.Empty(t, view.Rows)
	assert.False(t, view.Loading)
}
