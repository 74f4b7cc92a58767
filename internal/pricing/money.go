package pricing

import "github.com/shopspring/decimal"

// Money rounds an engine amount to cents for persistence and display.
// The engine itself keeps full float precision; rounding happens only at the edges.
func Money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(NonNegative(v)).Round(2)
}
