package addrbook

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/petshop/networks"
)

// Map is the simplest AddressResolver, anything not in it is unnamed.
type Map map[common.Address]string

func (m Map) Name(addr common.Address) (string, bool) {
	name, ok := m[addr]
	return name, ok
}

// With returns a copy of m that also names addr.
func (m Map) With(addr common.Address, name string) Map {
	res := make(Map, len(m)+1)
	for a, n := range m {
		res[a] = n
	}
	res[addr] = name
	return res
}

// FromContracts names every deployed contract of the table. Contracts
// that are not configured are left out.
func FromContracts(t networks.ContractTable) Map {
	m := Map{}
	for _, c := range []struct {
		name string
		addr common.Address
	}{
		{"CustomToken", t.CustomToken},
		{"CustomPet", t.CustomPet},
		{"Exchange", t.Exchange},
		{"TradeFactory", t.TradeFactory},
		{"Viewer", t.Viewer},
		{"Committee", t.Committee},
		{"ProposalFactory", t.ProposalFactory},
	} {
		if c.addr != (common.Address{}) {
			m[c.addr] = c.name
		}
	}
	return m
}
