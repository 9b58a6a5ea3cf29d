package aggregate

import "github.com/ethereum/go-ethereum/common"

// Tagged is an address annotated with the discovery list it came from.
type Tagged struct {
	Address common.Address
	Active  bool
}

// Merge lists active entries before historical ones, keeping the order of
// each list. Addresses present in both lists are emitted twice, reconciling
// them is up to the contract.
func Merge(active, historical []common.Address) []Tagged {
	result := make([]Tagged, 0, len(active)+len(historical))
	for _, addr := range active {
		result = append(result, Tagged{Address: addr, Active: true})
	}
	for _, addr := range historical {
		result = append(result, Tagged{Address: addr, Active: false})
	}
	return result
}

// Addresses returns the addresses of tagged in order, duplicates included.
func Addresses(tagged []Tagged) []common.Address {
	result := make([]common.Address, len(tagged))
	for i, t := range tagged {
		result[i] = t.Address
	}
	return result
}
