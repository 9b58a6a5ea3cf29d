package dapp

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/tranvictor/petshop/txcoord"
)

type ProposalParam struct {
	Name string
	Kind txcoord.Kind
}

// ProposalKind is one create*Proposal function of the proposal factory.
type ProposalKind struct {
	Name        string
	Method      string
	Description string
	Params      []ProposalParam
}

func (k ProposalKind) Usage() string {
	names := make([]string, len(k.Params))
	for i, p := range k.Params {
		names[i] = fmt.Sprintf("<%s>", p.Name)
	}
	return strings.TrimSpace(k.Name + " " + strings.Join(names, " "))
}

var ProposalKinds = []ProposalKind{
	{"adjust-k", "createAdjustKProposal", "change the exchange rate k", []ProposalParam{
		{"k", txcoord.KindUint256},
	}},
	{"mint-cp", "createMintCPProposal", "mint a pet from the store", []ProposalParam{
		{"to", txcoord.KindAddress},
		{"uri", txcoord.KindString},
	}},
	{"burn-cp", "createBurnCPProposal", "burn a pet", []ProposalParam{
		{"token-id", txcoord.KindUint256},
	}},
	{"change-voting-time", "createChangeVotingTimeProposal", "change the voting period", []ProposalParam{
		{"seconds", txcoord.KindUint256},
	}},
	{"toggle-store", "createToggleStoreProposal", "open or close the store", nil},
	{"toggle-store-buying", "createToggleStoreBuyingProposal", "enable or disable store buying", nil},
	{"toggle-store-selling", "createToggleStoreSellingProposal", "enable or disable store selling", nil},
	{"list-cp", "createListCPProposal", "list a store pet for sale", []ProposalParam{
		{"token-id", txcoord.KindUint256},
		{"price", txcoord.KindUint256},
	}},
	{"extract", "createExtractProposal", "move an asset out of the treasury", []ProposalParam{
		{"to", txcoord.KindAddress},
		{"asset-type", txcoord.KindString},
		{"amount-or-id", txcoord.KindUint256},
	}},
}

func proposalKindNames() []string {
	names := make([]string, len(ProposalKinds))
	for i, k := range ProposalKinds {
		names[i] = k.Name
	}
	return names
}

// LookupProposalKind finds a kind by exact name first, then by fuzzy
// matching so "mintcp" or "votingtime" are understood. A tie between the
// best matches is an error.
func LookupProposalKind(name string) (ProposalKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, k := range ProposalKinds {
		if k.Name == name {
			return k, nil
		}
	}
	matches := fuzzy.Find(name, proposalKindNames())
	if name == "" || len(matches) == 0 {
		return ProposalKind{}, fmt.Errorf("unknown proposal kind %q, expected one of %s", name, strings.Join(proposalKindNames(), ", "))
	}
	if len(matches) > 1 && matches[0].Score == matches[1].Score {
		return ProposalKind{}, fmt.Errorf("proposal kind %q is ambiguous: %s or %s", name, matches[0].Str, matches[1].Str)
	}
	return ProposalKinds[matches[0].Index], nil
}
