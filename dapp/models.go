package dapp

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/petshop/aggregate"
	"github.com/tranvictor/petshop/query"
)

// Asset is one CustomPet token.
type Asset struct {
	TokenID     *big.Int              `json:"token_id" yaml:"token_id"`
	Owner       common.Address        `json:"owner" yaml:"owner"`
	MetadataURI query.Optional[string] `json:"metadata_uri" yaml:"metadata_uri"`
}

type TradePhase string

const (
	PhaseOpen      TradePhase = "open"
	PhaseExpirable TradePhase = "expirable"
	PhaseClosed    TradePhase = "closed"
)

type TradeAction string

const (
	ActionConfirm TradeAction = "confirm"
	ActionCancel  TradeAction = "cancel"
	ActionExpire  TradeAction = "expire"
	ActionDeposit TradeAction = "deposit"
)

// Trade is the state of one p2p trade contract. It is only ever re-read,
// never changed locally.
type Trade struct {
	Address           common.Address `json:"address" yaml:"address"`
	Seller            common.Address `json:"seller" yaml:"seller"`
	Buyer             common.Address `json:"buyer" yaml:"buyer"`
	Expiration        time.Time      `json:"expiration" yaml:"expiration"`
	PriceCT           *big.Int       `json:"price_ct" yaml:"price_ct"`
	Active            bool           `json:"active" yaml:"active"`
	DepositedTokenIDs []*big.Int     `json:"deposited_token_ids,omitempty" yaml:"deposited_token_ids,omitempty"`
}

func (t Trade) Phase(now time.Time) TradePhase {
	if !t.Active {
		return PhaseClosed
	}
	if now.After(t.Expiration) {
		return PhaseExpirable
	}
	return PhaseOpen
}

// AvailableActions lists what role may do on the trade at now. The buyer
// confirms, the seller cancels or deposits pets, anyone expires an active
// trade past its expiration.
func (t Trade) AvailableActions(role aggregate.Role, now time.Time) []TradeAction {
	if !t.Active {
		return nil
	}
	actions := []TradeAction{}
	switch role {
	case aggregate.RoleBuyer:
		actions = append(actions, ActionConfirm)
	case aggregate.RoleSeller:
		actions = append(actions, ActionCancel, ActionDeposit)
	}
	if t.Phase(now) == PhaseExpirable {
		actions = append(actions, ActionExpire)
	}
	return actions
}

// Proposal is one governance proposal. Active comes from the list the
// address was discovered in, the rest from getProposalInfo.
type Proposal struct {
	Address   common.Address `json:"address" yaml:"address"`
	Initiator common.Address `json:"initiator" yaml:"initiator"`
	StartTime time.Time      `json:"start_time" yaml:"start_time"`
	EndTime   time.Time      `json:"end_time" yaml:"end_time"`
	Kind      string         `json:"kind" yaml:"kind"`
	YesWeight *big.Int       `json:"yes_weight" yaml:"yes_weight"`
	NoWeight  *big.Int       `json:"no_weight" yaml:"no_weight"`
	Executed  bool           `json:"executed" yaml:"executed"`
	Active    bool           `json:"active" yaml:"active"`
}

type ProposalAction string

const (
	ActionVote ProposalAction = "vote"
	ActionEnd  ProposalAction = "end"
)

// ProposalActions mirrors what the contracts accept: only members vote and
// only on active proposals, ending is open to anyone.
func ProposalActions(p Proposal, isMember bool) []ProposalAction {
	actions := []ProposalAction{}
	if p.Active && isMember {
		actions = append(actions, ActionVote)
	}
	return append(actions, ActionEnd)
}

type CommitteeMember struct {
	Address      common.Address `json:"address" yaml:"address"`
	StakedAmount *big.Int       `json:"staked_amount" yaml:"staked_amount"`
}
