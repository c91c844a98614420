// Package money provides shared currency and percentage rounding helpers.
//
// All emitted monetary amounts are rounded to 2 decimal places using
// round-half-up; percentages are rounded the same way. Intermediate math is
// kept at full precision and only the final values pass through here.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

const currencyPlaces = 2

// Round2 rounds an amount to currency precision (2 decimals, half-up).
func Round2(d decimal.Decimal) decimal.Decimal {
	// decimal.Round is round-half-away-from-zero, which for the
	// non-negative amounts handled here is round-half-up.
	return d.Round(currencyPlaces)
}

// Share returns round2(pct/100 * amount).
func Share(amount decimal.Decimal, pct float64) decimal.Decimal {
	return Round2(amount.Mul(decimal.NewFromFloat(pct)).Div(decimal.NewFromInt(100)))
}

// RoundPct rounds a percentage to 2 decimal places, half-up.
func RoundPct(p float64) float64 {
	return math.Floor(p*100+0.5) / 100
}

// Clamp bounds v to the [lo, hi] interval.
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
