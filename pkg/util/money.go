package util

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var billion = decimal.NewFromInt(1_000_000_000)

// FormatUSD renders a currency amount as whole dollars, no separators.
// Example: 250000000.4 -> "250000000"
func FormatUSD(d decimal.Decimal) string {
	return d.RoundBank(0).StringFixed(0)
}

// FormatPercent renders a percentage with one decimal place.
// Example: 25 -> "25.0"
func FormatPercent(d decimal.Decimal) string {
	return d.StringFixed(1)
}

// FormatBillions renders an amount in billions for console summaries,
// rounding half to even. Example: 2505199225 -> "$2.51bn"
func FormatBillions(d decimal.Decimal) string {
	return fmt.Sprintf("$%sbn", d.Div(billion).RoundBank(2).StringFixed(2))
}
