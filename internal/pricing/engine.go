// Package pricing is the estimate cost rollup. Every function is pure: the
// same inputs always produce the same outputs and nothing is mutated.
//
// Own-forces lines are priced from labour days:
//
//	labourCost = quantity / productionRate * costPerLabourDay
//	materialCost = labourCost * materialPct (site setup lines carry none)
//	total = base + base*overheadPct + base*profitPct
//
// Overhead and profit are both taken on the same base and summed, never
// compounded. Subtrades use a separate flat formula with their own markup.
package pricing

import (
	"github.com/straye-as/bid-estimator/internal/catalog"
)

// LineCalc is the full cost breakdown of one line item
type LineCalc struct {
	LabourDays   float64 `json:"labourDays"`
	LabourCost   float64 `json:"labourCost"`
	MaterialCost float64 `json:"materialCost"`
	BaseCost     float64 `json:"baseCost"`
	Overhead     float64 `json:"overhead"`
	Profit       float64 `json:"profit"`
	Total        float64 `json:"total"`
	RatePerUnit  float64 `json:"ratePerUnit"`
}

// CalcLine prices a single own-forces line. Inputs are assumed to be finite
// and non-negative; a zero production rate yields zero labour.
func CalcLine(quantity, productionRate float64, hasMaterialCost bool, rates RateConfiguration) LineCalc {
	var labourDays float64
	if productionRate > 0 {
		labourDays = quantity / productionRate
	}
	labourCost := labourDays * rates.CostPerLabourDay

	var materialCost float64
	if hasMaterialCost {
		materialCost = labourCost * (rates.MaterialPct / 100)
	}

	baseCost := labourCost + materialCost
	overhead := baseCost * (rates.OverheadPct / 100)
	profit := baseCost * (rates.ProfitPct / 100)
	total := baseCost + overhead + profit

	var ratePerUnit float64
	if quantity > 0 {
		ratePerUnit = total / quantity
	}

	return LineCalc{
		LabourDays:   labourDays,
		LabourCost:   labourCost,
		MaterialCost: materialCost,
		BaseCost:     baseCost,
		Overhead:     overhead,
		Profit:       profit,
		Total:        total,
		RatePerUnit:  ratePerUnit,
	}
}

// CalcItem prices a catalog line item with its own production rate and material flag
func CalcItem(item catalog.LineItem, rates RateConfiguration) LineCalc {
	return CalcLine(item.Quantity, item.ProductionRate, item.HasMaterialCost, rates)
}

// CalcSubtrade prices a flat-rate subtrade: quantity x unit cost plus markup.
// It is independent of the overhead and profit percentages.
func CalcSubtrade(quantity, unitCost, markupPct float64) float64 {
	return quantity * unitCost * (1 + markupPct/100)
}

// SectionTotal sums the line totals of every active item with a positive quantity
func SectionTotal(section catalog.Section, rates RateConfiguration) float64 {
	var total float64
	for _, item := range section.Items {
		if !item.Priced() {
			continue
		}
		total += CalcItem(item, rates).Total
	}
	return total
}

// SubtradeTotal prices one subtrade, or zero when it is inactive or empty
func SubtradeTotal(item catalog.SubtradeItem, rates RateConfiguration) float64 {
	if !item.Priced() {
		return 0
	}
	return CalcSubtrade(item.Quantity, item.UnitCost, rates.SubtradeMarkupPct)
}

// GrandTotal is the single authoritative estimate total: all section totals
// followed by all subtrade totals, summed in slice order.
func GrandTotal(sections []catalog.Section, subtrades []catalog.SubtradeItem, rates RateConfiguration) float64 {
	var total float64
	for _, section := range sections {
		total += SectionTotal(section, rates)
	}
	for _, item := range subtrades {
		total += SubtradeTotal(item, rates)
	}
	return total
}
