package pricing

import "github.com/straye-as/bid-estimator/internal/catalog"

// PricedLine is one priced own-forces line with its breakdown
type PricedLine struct {
	SectionID   string           `json:"sectionId"`
	ItemID      string           `json:"itemId"`
	PhaseCode   string           `json:"phaseCode"`
	Description string           `json:"description"`
	UnitType    catalog.UnitType `json:"unitType"`
	Quantity    float64          `json:"quantity"`
	Calc        LineCalc         `json:"calc"`
}

// SectionSummary is the priced view of one section
type SectionSummary struct {
	SectionID string       `json:"sectionId"`
	Name      string       `json:"name"`
	Lines     []PricedLine `json:"lines"`
	Total     float64      `json:"total"`
}

// PricedSubtrade is one priced subtrade line
type PricedSubtrade struct {
	ItemID      string           `json:"itemId"`
	PhaseCode   string           `json:"phaseCode"`
	Description string           `json:"description"`
	UnitType    catalog.UnitType `json:"unitType"`
	Quantity    float64          `json:"quantity"`
	UnitCost    float64          `json:"unitCost"`
	Cost        float64          `json:"cost"`
	Markup      float64          `json:"markup"`
	Total       float64          `json:"total"`
}

// Summary is the full labour/material/overhead/profit breakdown of an estimate.
// GrandTotal is always taken from GrandTotal, never re-derived from the parts.
type Summary struct {
	Sections      []SectionSummary `json:"sections"`
	Subtrades     []PricedSubtrade `json:"subtrades"`
	LabourDays    float64          `json:"labourDays"`
	LabourCost    float64          `json:"labourCost"`
	MaterialCost  float64          `json:"materialCost"`
	Overhead      float64          `json:"overhead"`
	Profit        float64          `json:"profit"`
	OwnForces     float64          `json:"ownForces"`
	SubtradeTotal float64          `json:"subtradeTotal"`
	GrandTotal    float64          `json:"grandTotal"`
}

// Summarize prices every active line and subtrade and aggregates the components
func Summarize(sections []catalog.Section, subtrades []catalog.SubtradeItem, rates RateConfiguration) Summary {
	summary := Summary{
		Sections:  make([]SectionSummary, 0, len(sections)),
		Subtrades: make([]PricedSubtrade, 0),
	}

	for _, section := range sections {
		ss := SectionSummary{
			SectionID: section.ID,
			Name:      section.Name,
			Lines:     make([]PricedLine, 0),
			Total:     SectionTotal(section, rates),
		}
		for _, item := range section.Items {
			if !item.Priced() {
				continue
			}
			calc := CalcItem(item, rates)
			ss.Lines = append(ss.Lines, PricedLine{
				SectionID:   section.ID,
				ItemID:      item.ID,
				PhaseCode:   item.PhaseCode,
				Description: item.Description,
				UnitType:    item.UnitType,
				Quantity:    item.Quantity,
				Calc:        calc,
			})
			summary.LabourDays += calc.LabourDays
			summary.LabourCost += calc.LabourCost
			summary.MaterialCost += calc.MaterialCost
			summary.Overhead += calc.Overhead
			summary.Profit += calc.Profit
		}
		summary.OwnForces += ss.Total
		summary.Sections = append(summary.Sections, ss)
	}

	for _, item := range subtrades {
		if !item.Priced() {
			continue
		}
		cost := item.Quantity * item.UnitCost
		total := SubtradeTotal(item, rates)
		summary.Subtrades = append(summary.Subtrades, PricedSubtrade{
			ItemID:      item.ID,
			PhaseCode:   item.PhaseCode,
			Description: item.Description,
			UnitType:    item.UnitType,
			Quantity:    item.Quantity,
			UnitCost:    item.UnitCost,
			Cost:        cost,
			Markup:      total - cost,
			Total:       total,
		})
		summary.SubtradeTotal += total
	}

	summary.GrandTotal = GrandTotal(sections, subtrades, rates)
	return summary
}
