package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// FormatUnits renders value as a fixed point decimal with the given number of
// fractional digits. The fraction is zero-padded and never trimmed, so
// FormatUnits(1234567890123456789, 18) is "1.234567890123456789" and
// FormatUnits(5, 0) is "5".
func FormatUnits(value *big.Int, decimals uint) string {
	if decimals == 0 {
		return value.String()
	}
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	abs := new(big.Int).Abs(value)
	whole, fraction := new(big.Int).QuoRem(abs, divisor, new(big.Int))
	sign := ""
	if value.Sign() < 0 {
		sign = "-"
	}
	frac := fraction.String()
	frac = strings.Repeat("0", int(decimals)-len(frac)) + frac
	return fmt.Sprintf("%s%s.%s", sign, whole.String(), frac)
}

// ParseUnits is the inverse of FormatUnits: "1.5" with 18 decimals is
// 1500000000000000000. Digits beyond the requested precision are truncated.
func ParseUnits(amount string, decimals uint) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" || strings.HasPrefix(amount, "-") {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	whole, fraction, _ := strings.Cut(amount, ".")
	if whole == "" {
		whole = "0"
	}
	if uint(len(fraction)) > decimals {
		fraction = fraction[:decimals]
	}
	fraction += strings.Repeat("0", int(decimals)-len(fraction))
	value, ok := new(big.Int).SetString(whole+fraction, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	return value, nil
}
