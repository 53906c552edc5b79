package accrual

import (
	"fmt"
	"math/big"
	"strings"
)

// minorUnitScale converts between decimal currency strings and the integer
// minor units used internally. Two fractional digits cover the settlement
// currencies the platform reports.
var minorUnitScale = big.NewInt(100)

// ParseDecimal converts a decimal currency string ("123.45") into minor units.
// Fractional digits beyond the minor-unit scale are rejected rather than
// silently truncated.
func ParseDecimal(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("empty amount")
	}
	rat, ok := new(big.Rat).SetString(trimmed)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", value)
	}
	scaled := new(big.Rat).Mul(rat, new(big.Rat).SetInt(minorUnitScale))
	if !scaled.IsInt() {
		return nil, fmt.Errorf("amount %s exceeds minor-unit precision", value)
	}
	return new(big.Int).Set(scaled.Num()), nil
}

// FormatMinor renders a minor-unit amount as a decimal currency string.
func FormatMinor(amount *big.Int) string {
	v := valueOrZero(amount)
	neg := v.Sign() < 0
	if neg {
		v.Neg(v)
	}
	units, cents := new(big.Int).QuoRem(v, minorUnitScale, new(big.Int))
	out := fmt.Sprintf("%s.%02d", units.String(), cents.Int64())
	if neg {
		out = "-" + out
	}
	return out
}
