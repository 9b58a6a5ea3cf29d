package aggregate

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/petshop/query"
)

type Role int

const (
	RoleUnknown Role = iota
	RoleSeller
	RoleBuyer
)

func (r Role) String() string {
	switch r {
	case RoleSeller:
		return "seller"
	case RoleBuyer:
		return "buyer"
	default:
		return "unknown"
	}
}

// Parties are the two sides of a trade, each read on its own.
type Parties struct {
	Seller query.Optional[common.Address]
	Buyer  query.Optional[common.Address]
}

type RoleResult struct {
	Role    Role
	Loading bool
}

// ResolveRole compares acting against the seller first, then the buyer.
// A buyer match while the seller is still pending is not final because the
// seller would win, so it reports Unknown and loading. Unknown without
// loading means both parties resolved and none matched.
func ResolveRole(p Parties, acting *common.Address) RoleResult {
	if acting == nil {
		return RoleResult{Role: RoleUnknown}
	}
	seller, sellerOK := p.Seller.Get()
	buyer, buyerOK := p.Buyer.Get()

	if sellerOK && seller == *acting {
		return RoleResult{Role: RoleSeller}
	}
	if !sellerOK {
		return RoleResult{Role: RoleUnknown, Loading: true}
	}
	if buyerOK && buyer == *acting {
		return RoleResult{Role: RoleBuyer}
	}
	if !buyerOK {
		return RoleResult{Role: RoleUnknown, Loading: true}
	}
	return RoleResult{Role: RoleUnknown}
}
