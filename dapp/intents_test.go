package dapp_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/petshop/dapp"
	"github.com/tranvictor/petshop/query"
	"github.com/tranvictor/petshop/txcoord"
	"github.com/tranvictor/petshop/util/cache"
)

func validationField(t *testing.T, err error) string {
	t.Helper()
	var ve *txcoord.ValidationError
	require.True(t, errors.As(err, &ve), "expected a validation error, got %v", err)
	return ve.Field
}

func TestTradeWritesInvalidateTheTradeAndInventories(t *testing.T) {
	d := newDapp(newChain())
	trade := common.HexToAddress("0x0000000000000000000000000000000000001111")

	in, err := d.TradeAction(trade, dapp.ActionConfirm)
	require.NoError(t, err)
	call, err := in.Pack()
	require.NoError(t, err)
	assert.Equal(t, trade, call.To)
	assert.Equal(t, dapp.TradeABI.Methods["confirm"].ID, call.Data[:4])
	assert.ElementsMatch(t, []string{
		cache.ContractPrefix(trade),
		cache.MethodPrefix(contracts.Viewer, "getUserAllTrades"),
		cache.MethodPrefix(contracts.Viewer, "getOwnedCPs"),
		cache.ContractPrefix(contracts.CustomPet),
		cache.ContractPrefix(contracts.CustomToken),
	}, in.Invalidates)

	_, err = d.TradeAction(trade, dapp.ActionDeposit)
	assert.True(t, txcoord.IsValidationError(err))
}

func TestCreateTradeOnlyInvalidatesTheTradeList(t *testing.T) {
	d := newDapp(newChain())
	in := d.CreateTrade(bob.Hex(), "3600", "100")
	_, err := in.Pack()
	require.NoError(t, err)
	assert.Equal(t, []string{cache.MethodPrefix(contracts.Viewer, "getUserAllTrades")}, in.Invalidates)

	_, err = d.CreateTrade("0xnope", "3600", "100").Pack()
	assert.Equal(t, "buyer", validationField(t, err))
	_, err = d.CreateTrade(bob.Hex(), "-1", "100").Pack()
	assert.Equal(t, "duration", validationField(t, err))
}

func TestDepositPetsRejectsTokenZero(t *testing.T) {
	d := newDapp(newChain())
	trade := common.HexToAddress("0x0000000000000000000000000000000000001111")

	_, err := d.DepositPets(trade, "1,0,2")
	assert.Equal(t, "token-ids", validationField(t, err))
	_, err = d.DepositPets(trade, "1,,2")
	assert.Equal(t, "token-ids", validationField(t, err))

	in, err := d.DepositPets(trade, "1, 2")
	require.NoError(t, err)
	call, err := in.Pack()
	require.NoError(t, err)
	assert.Equal(t, dapp.TradeABI.Methods["depositCP"].ID, call.Data[:4])
}

func TestCommitteeWritesCarryTheStake(t *testing.T) {
	d := newDapp(newChain())

	call, err := d.JoinCommittee("1.5").Pack()
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", call.Value.String())

	call, err = d.RemoveStake("0.5").Pack()
	require.NoError(t, err)
	assert.Zero(t, call.Value.Sign())

	_, err = d.AddStake("0").Pack()
	assert.Equal(t, "amount", validationField(t, err))

	assert.Contains(t, d.AddStake("1").Invalidates, cache.NativeBalancePrefix())
}

func TestVoteAcceptsYesAndNo(t *testing.T) {
	d := newDapp(newChain())
	p := common.HexToAddress("0x0000000000000000000000000000000000000001")

	yes, err := d.Vote(p, "yes").Pack()
	require.NoError(t, err)
	no, err := d.Vote(p, "N").Pack()
	require.NoError(t, err)
	assert.NotEqual(t, yes.Data, no.Data)

	_, err = d.Vote(p, "maybe").Pack()
	assert.Equal(t, "support", validationField(t, err))

	in := d.EndProposal(p)
	assert.Contains(t, in.Invalidates, cache.ContractPrefix(p))
	assert.Contains(t, in.Invalidates, cache.MethodPrefix(contracts.ProposalFactory, "getActiveProposals"))
}

func TestCreateProposal(t *testing.T) {
	d := newDapp(newChain())

	in, err := d.CreateProposal("mintcp", []string{alice.Hex(), "ipfs://cat"})
	require.NoError(t, err)
	assert.Equal(t, "createMintCPProposal", in.Method)
	_, err = in.Pack()
	require.NoError(t, err)

	in, err = d.CreateProposal("toggle-store", nil)
	require.NoError(t, err)
	_, err = in.Pack()
	require.NoError(t, err)

	_, err = d.CreateProposal("adjust-k", nil)
	assert.Equal(t, "args", validationField(t, err))
	_, err = d.CreateProposal("xyzzy", nil)
	assert.Equal(t, "kind", validationField(t, err))
}

func TestProposalWritesNeedTheFactory(t *testing.T) {
	table := contracts
	table.ProposalFactory = common.Address{}
	d := dapp.New(query.NewClient(newChain(), cache.New()), table)

	in, err := d.CreateProposal("toggle-store", nil)
	require.NoError(t, err)
	_, err = in.Pack()
	assert.Equal(t, "target", validationField(t, err))
}

func TestExchangeIntents(t *testing.T) {
	d := newDapp(newChain())
	k := big.NewInt(1e15)

	in, err := d.BuyCT("3", k)
	require.NoError(t, err)
	call, err := in.Pack()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(3e15), call.Value)

	in, err = d.SellCT("2")
	require.NoError(t, err)
	call, err = in.Pack()
	require.NoError(t, err)
	args, err := dapp.ExchangeABI.Methods["exchangeCTToETH"].Inputs.Unpack(call.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, "2000000000000000000", args[0].(*big.Int).String())

	_, err = d.BuyCT("0", k)
	assert.Equal(t, "ct", validationField(t, err))
	_, err = d.BuyCT("1", nil)
	assert.Equal(t, "k", validationField(t, err))
	_, err = d.SellCT("1.5")
	assert.Equal(t, "ct", validationField(t, err))

	assert.Equal(t, big.NewInt(6), dapp.ExchangeValue(big.NewInt(2), big.NewInt(3)))
}

func TestPetWrites(t *testing.T) {
	d := newDapp(newChain())
	in := d.MintPet(alice.Hex(), "ipfs://cat")
	_, err := in.Pack()
	require.NoError(t, err)
	assert.Contains(t, in.Invalidates, cache.MethodPrefix(contracts.Viewer, "getOwnedCPs"))

	_, err = d.MintPet(alice.Hex(), "  ").Pack()
	assert.Equal(t, "uri", validationField(t, err))
	_, err = d.BurnPet("abc").Pack()
	assert.Equal(t, "token-id", validationField(t, err))
}
