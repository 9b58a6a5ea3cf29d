package common

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// FloatToBigInt converts a float to a big int with specific decimal
// Example:
// - FloatToBigInt(1, 4) = 10000
// - FloatToBigInt(1.234, 4) = 12340
func FloatToBigInt(amount float64, decimals uint64) *big.Int {
	d := decimal.NewFromFloat(amount).Shift(int32(decimals))
	return d.Truncate(0).BigInt()
}

// BigToFloat converts a big int to float according to its number of decimal digits
// Example:
// - BigToFloat(1100, 3) = 1.1
// - BigToFloat(1100, 5) = 0.011
func BigToFloat(b *big.Int, decimals uint64) float64 {
	if b == nil {
		return 0
	}
	f, _ := decimal.NewFromBigInt(b, -int32(decimals)).Float64()
	return f
}

// GweiToWei converts Gwei as a float to Wei as a big int
func GweiToWei(n float64) *big.Int {
	return FloatToBigInt(n, 9)
}

// StringToUint256 parses a base 10 integer and rejects anything outside
// the uint256 domain.
func StringToUint256(str string) (*big.Int, error) {
	s := strings.TrimSpace(str)
	if s == "" {
		return nil, fmt.Errorf("empty number")
	}
	result, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not an integer", str)
	}
	if result.Sign() < 0 {
		return nil, fmt.Errorf("%q is negative", str)
	}
	if result.Cmp(maxUint256) > 0 {
		return nil, fmt.Errorf("%q overflows uint256", str)
	}
	return result, nil
}

// StringsToUint256s parses a comma separated list such as "1, 2,3".
// Empty entries are rejected.
func StringsToUint256s(csv string) ([]*big.Int, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, fmt.Errorf("empty list")
	}
	parts := strings.Split(csv, ",")
	result := make([]*big.Int, 0, len(parts))
	for i, p := range parts {
		n, err := StringToUint256(p)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		result = append(result, n)
	}
	return result, nil
}

// DecimalStringToBig converts a human amount such as "1.5" into its integer
// representation with the given number of decimals. Precision beyond
// decimals is an error rather than a silent truncation.
func DecimalStringToBig(value string, decimals uint64) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("couldn't parse %q as a number: %w", value, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%q is negative", value)
	}
	shifted := d.Shift(int32(decimals))
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("%q has more than %d decimals", value, decimals)
	}
	return shifted.BigInt(), nil
}

// BigToDecimalString is the inverse of DecimalStringToBig.
// Example: BigToDecimalString(1500000000000000000, 18) = "1.5"
func BigToDecimalString(value *big.Int, decimals uint64) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).String()
}
