package cache

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const nativeTarget = "native"

// Key is <target>/<method>/<canonical args>. Addresses are lowercase hex
// and integers are base 10 so the same call always maps to the same key.
func Key(target common.Address, method string, args ...interface{}) string {
	return MethodPrefix(target, method) + CanonicalArgs(args...)
}

// ContractPrefix matches every read against target.
func ContractPrefix(target common.Address) string {
	return strings.ToLower(target.Hex()) + "/"
}

// MethodPrefix matches every read of method on target, whatever the args.
func MethodPrefix(target common.Address, method string) string {
	return ContractPrefix(target) + method + "/"
}

// NativeBalanceKey is the key of an account's ETH balance.
func NativeBalanceKey(owner common.Address) string {
	return NativeBalancePrefix() + CanonicalArgs(owner)
}

func NativeBalancePrefix() string {
	return nativeTarget + "/balance/"
}

func CanonicalArgs(args ...interface{}) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = canonical(a)
	}
	return strings.Join(parts, ",")
}

func canonical(a interface{}) string {
	switch v := a.(type) {
	case common.Address:
		return strings.ToLower(v.Hex())
	case *common.Address:
		if v == nil {
			return "nil"
		}
		return strings.ToLower(v.Hex())
	case *big.Int:
		if v == nil {
			return "nil"
		}
		return v.String()
	case string:
		return fmt.Sprintf("%q", v)
	case []*big.Int:
		items := make([]string, len(v))
		for i, x := range v {
			items[i] = canonical(x)
		}
		return "[" + strings.Join(items, ",") + "]"
	case []common.Address:
		items := make([]string, len(v))
		for i, x := range v {
			items[i] = canonical(x)
		}
		return "[" + strings.Join(items, ",") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}
