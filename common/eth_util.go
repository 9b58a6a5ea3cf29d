package common

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseAddress accepts a 0x prefixed 20 byte hex address. Unlike
// common.HexToAddress it refuses malformed input instead of padding it.
func ParseAddress(hex string) (common.Address, error) {
	s := strings.TrimSpace(hex)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%q is not a valid address", hex)
	}
	return common.HexToAddress(s), nil
}

// LowerHex is the canonical textual form used in cache keys.
func LowerHex(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

func ShortHex(addr common.Address) string {
	h := addr.Hex()
	return h[:6] + ".." + h[len(h)-4:]
}
