package dapp

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	pscommon "github.com/tranvictor/petshop/common"
	"github.com/tranvictor/petshop/txcoord"
)

var oneEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func arg(name string, kind txcoord.Kind, raw string) txcoord.Arg {
	return txcoord.Arg{Name: name, Kind: kind, Raw: raw}
}

func invalid(action, field, format string, args ...interface{}) error {
	return &txcoord.ValidationError{Action: action, Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (d *Dapp) MintPet(to, uri string) txcoord.Intent {
	return txcoord.Intent{
		Action:      "pet.mint",
		Target:      d.contracts.CustomPet,
		ABI:         CustomPetABI,
		Method:      "mint",
		Args:        []txcoord.Arg{arg("to", txcoord.KindAddress, to), arg("uri", txcoord.KindString, uri)},
		Invalidates: d.petWriteDeps(),
	}
}

func (d *Dapp) BurnPet(tokenID string) txcoord.Intent {
	return txcoord.Intent{
		Action:      "pet.burn",
		Target:      d.contracts.CustomPet,
		ABI:         CustomPetABI,
		Method:      "burn",
		Args:        []txcoord.Arg{arg("token-id", txcoord.KindUint256, tokenID)},
		Invalidates: d.petWriteDeps(),
	}
}

func (d *Dapp) CreateTrade(buyer, durationSecs, priceCT string) txcoord.Intent {
	return txcoord.Intent{
		Action: "trade.create",
		Target: d.contracts.TradeFactory,
		ABI:    TradeFactoryABI,
		Method: "createTrade",
		Args: []txcoord.Arg{
			arg("buyer", txcoord.KindAddress, buyer),
			arg("duration", txcoord.KindUint256, durationSecs),
			arg("price", txcoord.KindUint256, priceCT),
		},
		Invalidates: d.createTradeDeps(),
	}
}

// TradeAction builds confirm, cancel or expire on trade. Deposits take
// token ids, see DepositPets.
func (d *Dapp) TradeAction(trade common.Address, action TradeAction) (txcoord.Intent, error) {
	switch action {
	case ActionConfirm, ActionCancel, ActionExpire:
	default:
		return txcoord.Intent{}, invalid("trade."+string(action), "action", "unsupported trade action")
	}
	return txcoord.Intent{
		Action:      fmt.Sprintf("trade.%s.%s", action, pscommon.LowerHex(trade)),
		Target:      trade,
		ABI:         TradeABI,
		Method:      string(action),
		Invalidates: d.tradeWriteDeps(trade),
	}, nil
}

// DepositPets deposits the comma separated token ids into trade. Zero is
// not a valid token id.
func (d *Dapp) DepositPets(trade common.Address, csv string) (txcoord.Intent, error) {
	action := fmt.Sprintf("trade.deposit.%s", pscommon.LowerHex(trade))
	ids, err := pscommon.StringsToUint256s(csv)
	if err != nil {
		return txcoord.Intent{}, invalid(action, "token-ids", "%s", err)
	}
	for _, id := range ids {
		if id.Sign() == 0 {
			return txcoord.Intent{}, invalid(action, "token-ids", "token id 0 doesn't exist")
		}
	}
	return txcoord.Intent{
		Action:      action,
		Target:      trade,
		ABI:         TradeABI,
		Method:      "depositCP",
		Args:        []txcoord.Arg{arg("token-ids", txcoord.KindUint256CSV, csv)},
		Invalidates: d.tradeWriteDeps(trade),
	}, nil
}

// JoinCommittee stakes eth, a decimal ETH amount.
func (d *Dapp) JoinCommittee(eth string) txcoord.Intent {
	v := arg("amount", txcoord.KindEther, eth)
	return txcoord.Intent{
		Action:      "committee.join",
		Target:      d.contracts.Committee,
		ABI:         CommitteeABI,
		Method:      "join",
		Value:       &v,
		Invalidates: d.committeeWriteDeps(),
	}
}

func (d *Dapp) AddStake(eth string) txcoord.Intent {
	v := arg("amount", txcoord.KindEther, eth)
	return txcoord.Intent{
		Action:      "committee.add-stake",
		Target:      d.contracts.Committee,
		ABI:         CommitteeABI,
		Method:      "addStake",
		Value:       &v,
		Invalidates: d.committeeWriteDeps(),
	}
}

func (d *Dapp) RemoveStake(eth string) txcoord.Intent {
	return txcoord.Intent{
		Action:      "committee.remove-stake",
		Target:      d.contracts.Committee,
		ABI:         CommitteeABI,
		Method:      "removeStake",
		Args:        []txcoord.Arg{arg("amount", txcoord.KindEther, eth)},
		Invalidates: d.committeeWriteDeps(),
	}
}

// Vote accepts yes/no as well as anything strconv.ParseBool does.
func (d *Dapp) Vote(proposal common.Address, support string) txcoord.Intent {
	switch strings.ToLower(strings.TrimSpace(support)) {
	case "yes", "y":
		support = "true"
	case "no", "n":
		support = "false"
	}
	return txcoord.Intent{
		Action:      "proposal.vote." + pscommon.LowerHex(proposal),
		Target:      proposal,
		ABI:         ProposalABI,
		Method:      "vote",
		Args:        []txcoord.Arg{arg("support", txcoord.KindBool, support)},
		Invalidates: d.proposalWriteDeps(proposal),
	}
}

func (d *Dapp) EndProposal(proposal common.Address) txcoord.Intent {
	return txcoord.Intent{
		Action:      "proposal.end." + pscommon.LowerHex(proposal),
		Target:      proposal,
		ABI:         ProposalABI,
		Method:      "endProposal",
		Invalidates: d.proposalWriteDeps(proposal),
	}
}

// CreateProposal builds a create*Proposal call. kind is looked up with
// LookupProposalKind and values are matched to its params in order.
func (d *Dapp) CreateProposal(kind string, values []string) (txcoord.Intent, error) {
	k, err := LookupProposalKind(kind)
	if err != nil {
		return txcoord.Intent{}, invalid("proposal.create", "kind", "%s", err)
	}
	action := "proposal.create." + k.Name
	if len(values) != len(k.Params) {
		return txcoord.Intent{}, invalid(action, "args", "usage: %s", k.Usage())
	}
	args := make([]txcoord.Arg, len(values))
	for i, p := range k.Params {
		args[i] = arg(p.Name, p.Kind, values[i])
	}
	return txcoord.Intent{
		Action:      action,
		Target:      d.contracts.ProposalFactory,
		ABI:         ProposalFactoryABI,
		Method:      k.Method,
		Args:        args,
		Invalidates: d.proposalListDeps(),
	}, nil
}

func parseCT(action, ct string) (*big.Int, error) {
	n, err := pscommon.StringToUint256(ct)
	if err != nil {
		return nil, invalid(action, "ct", "%s", err)
	}
	if n.Sign() == 0 {
		return nil, invalid(action, "ct", "must be greater than zero")
	}
	return n, nil
}

// BuyCT swaps ETH for ct whole CT, paying ct * k wei.
func (d *Dapp) BuyCT(ct string, k *big.Int) (txcoord.Intent, error) {
	const action = "exchange.buy"
	n, err := parseCT(action, ct)
	if err != nil {
		return txcoord.Intent{}, err
	}
	if k == nil || k.Sign() == 0 {
		return txcoord.Intent{}, invalid(action, "k", "exchange rate is not known yet")
	}
	v := arg("value", txcoord.KindUint256, new(big.Int).Mul(n, k).String())
	return txcoord.Intent{
		Action:      action,
		Target:      d.contracts.Exchange,
		ABI:         ExchangeABI,
		Method:      "exchangeETHToCT",
		Value:       &v,
		Invalidates: d.exchangeWriteDeps(),
	}, nil
}

// SellCT swaps ct whole CT back to ETH. The contract takes the amount in
// CT base units.
func (d *Dapp) SellCT(ct string) (txcoord.Intent, error) {
	const action = "exchange.sell"
	n, err := parseCT(action, ct)
	if err != nil {
		return txcoord.Intent{}, err
	}
	return txcoord.Intent{
		Action:      action,
		Target:      d.contracts.Exchange,
		ABI:         ExchangeABI,
		Method:      "exchangeCTToETH",
		Args:        []txcoord.Arg{arg("amount", txcoord.KindUint256, new(big.Int).Mul(n, oneEther).String())},
		Invalidates: d.exchangeWriteDeps(),
	}, nil
}

// ExchangeValue is what BuyCT pays for ct, or what SellCT returns, in wei.
func ExchangeValue(ct, k *big.Int) *big.Int {
	if ct == nil || k == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Mul(ct, k)
}
