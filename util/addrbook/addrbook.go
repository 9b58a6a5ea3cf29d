package addrbook

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	pscommon "github.com/tranvictor/petshop/common"
)

// AddressResolver names addresses the user is expected to recognize.
type AddressResolver interface {
	Name(addr common.Address) (string, bool)
}

// Label renders addr as "Name (0x1234..abcd)" when r knows it and as the
// full checksummed hex otherwise.
func Label(r AddressResolver, addr common.Address) string {
	if r != nil {
		if name, ok := r.Name(addr); ok {
			return fmt.Sprintf("%s (%s)", name, pscommon.ShortHex(addr))
		}
	}
	return addr.Hex()
}
