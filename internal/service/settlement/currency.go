package settlement

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// minorUnitExponent lists ISO 4217 currencies whose minor unit is not 1/100.
var minorUnitExponent = map[string]int32{
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0, "KRW": 0,
	"PYG": 0, "RWF": 0, "UGX": 0, "VND": 0, "VUV": 0, "XAF": 0, "XOF": 0, "XPF": 0,
	"BHD": 3, "JOD": 3, "KWD": 3, "OMR": 3, "TND": 3,
}

func normalizeCurrency(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) != 3 {
		return "", invalid("currency", "must be a three-letter ISO 4217 code")
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", invalid("currency", "must be a three-letter ISO 4217 code")
		}
	}
	return c, nil
}

func exponent(currency string) int32 {
	if e, ok := minorUnitExponent[currency]; ok {
		return e
	}
	return 2
}

// ToMinorUnits converts a decimal price to integer minor units, rounding
// half up. currency must already be normalized.
func ToMinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	if !amount.IsPositive() {
		return 0, invalid("total_price", "must be greater than zero")
	}
	minor := amount.Shift(exponent(currency)).Round(0)
	if minor.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, invalid("total_price", "is too large")
	}
	if !minor.IsPositive() {
		return 0, invalid("total_price", "is below the smallest currency unit")
	}
	return minor.IntPart(), nil
}
