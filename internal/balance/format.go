package balance

import (
	"math/big"
	"strings"
)

// maxFractionDigits is how many fractional digits FormatBalance shows.
const maxFractionDigits = 6

// FormatBalance renders an integer balance in a token's smallest unit as a
// whole-unit decimal string. The fractional part is zero-padded to the
// token's decimals and truncated, never rounded, to six digits:
//
//	FormatBalance(1234567890123456789, 18) == "1.234567"
func FormatBalance(balance *big.Int, decimals int) string {
	if decimals <= 0 {
		return balance.String()
	}

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, remainder := new(big.Int).QuoRem(balance, divisor, new(big.Int))
	remainder.Abs(remainder)

	frac := remainder.String()
	if pad := decimals - len(frac); pad > 0 {
		frac = strings.Repeat("0", pad) + frac
	}
	if len(frac) > maxFractionDigits {
		frac = frac[:maxFractionDigits]
	}

	return whole.String() + "." + frac
}
