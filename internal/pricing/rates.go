package pricing

import "math"

// RateConfiguration holds the rates that parameterize every calculation on an estimate.
// Missing values are zero, which prices to a zero-cost but still meaningful estimate.
type RateConfiguration struct {
	CostPerLabourDay  float64 `json:"costPerLabourDay" mapstructure:"costPerLabourDay" validate:"gte=0"`
	MaterialPct       float64 `json:"materialPct" mapstructure:"materialPct" validate:"gte=0"`
	OverheadPct       float64 `json:"overheadPct" mapstructure:"overheadPct" validate:"gte=0"`
	ProfitPct         float64 `json:"profitPct" mapstructure:"profitPct" validate:"gte=0"`
	SubtradeMarkupPct float64 `json:"subtradeMarkupPct" mapstructure:"subtradeMarkupPct" validate:"gte=0"`
}

// Sanitized returns a copy with NaN, infinite and negative values replaced by zero
func (r RateConfiguration) Sanitized() RateConfiguration {
	return RateConfiguration{
		CostPerLabourDay:  NonNegative(r.CostPerLabourDay),
		MaterialPct:       NonNegative(r.MaterialPct),
		OverheadPct:       NonNegative(r.OverheadPct),
		ProfitPct:         NonNegative(r.ProfitPct),
		SubtradeMarkupPct: NonNegative(r.SubtradeMarkupPct),
	}
}

// Valid reports whether every rate is finite and non-negative
func (r RateConfiguration) Valid() bool {
	for _, v := range []float64{r.CostPerLabourDay, r.MaterialPct, r.OverheadPct, r.ProfitPct, r.SubtradeMarkupPct} {
		if !IsNonNegative(v) {
			return false
		}
	}
	return true
}

// NonNegative clamps NaN, infinite and negative inputs to zero.
// Callers use it to sanitize numbers before they reach the engine.
func NonNegative(v float64) float64 {
	if !IsNonNegative(v) {
		return 0
	}
	return v
}

// IsNonNegative reports whether v is a finite number >= 0
func IsNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
