package utils

import (
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// ApplyRate computes round-half-up(amountPence * ratePercent / 100) in integer
// pence. Fractional pence are never returned: 333 at 15% is 50, not 49.
func ApplyRate(amountPence int64, ratePercent float64) int64 {
	amount := decimal.NewFromInt(amountPence)
	rate := decimal.NewFromFloat(ratePercent)
	// decimal.Round is half-away-from-zero, which is half-up for the
	// non-negative amounts handled here.
	return amount.Mul(rate).Div(oneHundred).Round(0).IntPart()
}

// PoundsString renders integer pence as a decimal pounds string ("12.50").
// Used only at the presentation edge; pence stay integers everywhere else.
func PoundsString(pence int64) string {
	return decimal.NewFromInt(pence).Div(oneHundred).StringFixed(2)
}
