package dapp

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/petshop/util/cache"
)

// The functions below list which cached reads a write may change. A
// successful tx invalidates exactly these prefixes, and views polling the
// same prefixes refresh right away.

func (d *Dapp) petWriteDeps() []string {
	return []string{
		cache.ContractPrefix(d.contracts.CustomPet),
		cache.MethodPrefix(d.contracts.Viewer, "getOwnedCPs"),
	}
}

func (d *Dapp) tradeWriteDeps(trade common.Address) []string {
	return []string{
		cache.ContractPrefix(trade),
		cache.MethodPrefix(d.contracts.Viewer, "getUserAllTrades"),
		cache.MethodPrefix(d.contracts.Viewer, "getOwnedCPs"),
		cache.ContractPrefix(d.contracts.CustomPet),
		cache.ContractPrefix(d.contracts.CustomToken),
	}
}

func (d *Dapp) createTradeDeps() []string {
	return []string{cache.MethodPrefix(d.contracts.Viewer, "getUserAllTrades")}
}

func (d *Dapp) committeeWriteDeps() []string {
	return []string{
		cache.ContractPrefix(d.contracts.Committee),
		cache.NativeBalancePrefix(),
	}
}

func (d *Dapp) proposalListDeps() []string {
	return []string{
		cache.MethodPrefix(d.contracts.ProposalFactory, "getActiveProposals"),
		cache.MethodPrefix(d.contracts.ProposalFactory, "getHistoricalProposals"),
	}
}

func (d *Dapp) proposalWriteDeps(proposal common.Address) []string {
	return append([]string{cache.ContractPrefix(proposal)}, d.proposalListDeps()...)
}

func (d *Dapp) exchangeWriteDeps() []string {
	return []string{
		cache.ContractPrefix(d.contracts.Exchange),
		cache.ContractPrefix(d.contracts.CustomToken),
		cache.NativeBalancePrefix(),
	}
}

// The *ReadDeps functions are what each view reads, pollers use them to
// refresh as soon as a write invalidates any of it.

func (d *Dapp) PetsReadDeps() []string {
	return []string{cache.ContractPrefix(d.contracts.CustomPet)}
}

func (d *Dapp) OwnedReadDeps() []string {
	return []string{cache.MethodPrefix(d.contracts.Viewer, "getOwnedCPs")}
}

// TradesReadDeps also covers the trade contracts themselves, whose
// addresses are only known once listed.
func (d *Dapp) TradesReadDeps(trades ...common.Address) []string {
	deps := []string{cache.MethodPrefix(d.contracts.Viewer, "getUserAllTrades")}
	for _, t := range trades {
		deps = append(deps, cache.ContractPrefix(t))
	}
	return deps
}

func (d *Dapp) ProposalsReadDeps() []string {
	return append(d.proposalListDeps(), cache.MethodPrefix(d.contracts.Committee, "isMember"))
}

func (d *Dapp) CommitteeReadDeps() []string {
	return []string{cache.ContractPrefix(d.contracts.Committee)}
}

func (d *Dapp) ExchangeReadDeps() []string {
	return d.exchangeWriteDeps()
}
