package takeoff

import (
	"fmt"
	"strings"
)

// FlatRateLine is one row of a simple per-item pricing sheet
type FlatRateLine struct {
	Description string  `json:"description" validate:"required,max=500"`
	Quantity    float64 `json:"quantity" validate:"gte=0"`
	Unit        string  `json:"unit" validate:"max=32"`
	Rate        float64 `json:"rate" validate:"gte=0"`
}

// FromFlatRate converts a flat-rate sheet into takeoff entries. The quoted rate
// is kept in the notes and becomes the unit cost when a row lands on a subtrade.
func FromFlatRate(lines []FlatRateLine) []Entry {
	entries := make([]Entry, 0, len(lines))
	for _, l := range lines {
		e := Entry{
			Description: l.Description,
			Quantity:    l.Quantity,
			Unit:        l.Unit,
			UnitCost:    l.Rate,
		}
		if l.Rate > 0 {
			unit := strings.TrimSpace(l.Unit)
			if unit == "" {
				unit = "unit"
			}
			e.Notes = fmt.Sprintf("flat rate %.2f/%s", l.Rate, unit)
		}
		entries = append(entries, e)
	}
	return entries
}
