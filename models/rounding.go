package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds v to two decimal places, half away from zero.
// The value is taken at its shortest decimal representation first, so 150.005
// rounds to 150.01 even though its binary form sits just below the tie.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Percent returns (current - previous) / previous * 100, or zero when previous is zero.
func Percent(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}
