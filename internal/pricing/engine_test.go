package pricing

import (
	"math"
	"testing"

	"github.com/straye-as/bid-estimator/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var referenceRates = RateConfiguration{
	CostPerLabourDay:  296,
	MaterialPct:       18,
	OverheadPct:       12,
	ProfitPct:         30,
	SubtradeMarkupPct: 20,
}

func TestCalcLine_StandardLine(t *testing.T) {
	calc := CalcLine(250, 250, true, referenceRates)

	assert.InDelta(t, 1.0, calc.LabourDays, 1e-9)
	assert.InDelta(t, 296.0, calc.LabourCost, 1e-9)
	assert.InDelta(t, 53.28, calc.MaterialCost, 1e-9)
	assert.InDelta(t, 349.28, calc.BaseCost, 1e-9)
	assert.InDelta(t, 41.91, calc.Overhead, 0.01)
	assert.InDelta(t, 104.78, calc.Profit, 0.01)
	assert.InDelta(t, 495.98, calc.Total, 0.01)
	assert.InDelta(t, calc.Total/250, calc.RatePerUnit, 1e-9)
}

func TestCalcLine_Mobilization(t *testing.T) {
	calc := CalcLine(1, 1, false, referenceRates)

	assert.Equal(t, 0.0, calc.MaterialCost)
	assert.InDelta(t, 296.0, calc.LabourCost, 1e-9)
	assert.InDelta(t, 420.32, calc.Total, 1e-9)
}

func TestCalcLine_NoMaterialRegardlessOfPercent(t *testing.T) {
	for _, pct := range []float64{0, 18, 100, 250} {
		rates := referenceRates
		rates.MaterialPct = pct
		calc := CalcLine(40, 8, false, rates)
		assert.Equal(t, 0.0, calc.MaterialCost, "materialPct=%v", pct)
	}
}

func TestCalcLine_ZeroProductionRate(t *testing.T) {
	for _, qty := range []float64{0, 1, 250, 1e9} {
		calc := CalcLine(qty, 0, true, referenceRates)

		assert.Equal(t, 0.0, calc.LabourDays)
		assert.Equal(t, 0.0, calc.Total)
		assert.False(t, math.IsNaN(calc.RatePerUnit))
		assert.False(t, math.IsInf(calc.RatePerUnit, 0))
	}
}

func TestCalcLine_ZeroQuantity(t *testing.T) {
	calc := CalcLine(0, 250, true, referenceRates)

	assert.Equal(t, LineCalc{}, calc)
}

func TestCalcLine_OverheadAndProfitAreAdditive(t *testing.T) {
	cases := []struct {
		qty, rate float64
		material  bool
		rates     RateConfiguration
	}{
		{250, 250, true, referenceRates},
		{1200, 300, true, RateConfiguration{CostPerLabourDay: 410, MaterialPct: 7, OverheadPct: 25, ProfitPct: 15}},
		{3, 1, false, RateConfiguration{CostPerLabourDay: 520, OverheadPct: 40, ProfitPct: 60}},
	}

	for _, tc := range cases {
		calc := CalcLine(tc.qty, tc.rate, tc.material, tc.rates)
		want := calc.BaseCost * (1 + (tc.rates.OverheadPct+tc.rates.ProfitPct)/100)
		assert.InDelta(t, want, calc.Total, 1e-9)

		compounded := calc.BaseCost * (1 + tc.rates.OverheadPct/100) * (1 + tc.rates.ProfitPct/100)
		if tc.rates.OverheadPct > 0 && tc.rates.ProfitPct > 0 {
			assert.Greater(t, compounded-calc.Total, 1e-6)
		}
	}
}

func TestCalcLine_MissingRatesPriceToZero(t *testing.T) {
	calc := CalcLine(500, 250, true, RateConfiguration{})

	assert.InDelta(t, 2.0, calc.LabourDays, 1e-9)
	assert.Equal(t, 0.0, calc.Total)
	assert.Equal(t, 0.0, calc.RatePerUnit)
}

func TestCalcSubtrade(t *testing.T) {
	assert.InDelta(t, 3360.0, CalcSubtrade(1, 2800, 20), 1e-9)
	assert.InDelta(t, 1300.0, CalcSubtrade(2, 650, 0), 1e-9)
	assert.Equal(t, 0.0, CalcSubtrade(0, 2800, 20))
}

func TestSubtradeTotal_IgnoresOverheadAndProfit(t *testing.T) {
	item := catalog.SubtradeItem{ID: "st_electrical", Quantity: 1, UnitCost: 2800, Active: true}

	base := SubtradeTotal(item, referenceRates)
	rates := referenceRates
	rates.OverheadPct = 90
	rates.ProfitPct = 90

	assert.Equal(t, base, SubtradeTotal(item, rates))
	assert.InDelta(t, 3360.0, base, 1e-9)
}

func TestSectionTotal_ExcludesInactiveAndZeroLines(t *testing.T) {
	section := catalog.Section{
		ID: "floor_tile",
		Items: []catalog.LineItem{
			line("a", 250, 250, true, true),
			line("b", 0, 250, true, true),
			line("c", 5000, 250, true, false),
			line("d", 1, 1, false, true),
		},
	}

	got := SectionTotal(section, referenceRates)

	want := CalcLine(250, 250, true, referenceRates).Total + CalcLine(1, 1, false, referenceRates).Total
	assert.InDelta(t, want, got, 1e-9)
}

func TestGrandTotal_Idempotent(t *testing.T) {
	sections := catalog.Default().NewSections()
	sections[0] = sections[0].WithItem(sections[0].Items[0].WithQuantity(1234.5))
	sections[2] = sections[2].WithItem(sections[2].Items[1].WithQuantity(77))
	subtrades := catalog.Default().NewSubtrades()
	subtrades[0].Quantity = 3

	first := GrandTotal(sections, subtrades, referenceRates)
	second := GrandTotal(sections, subtrades, referenceRates)

	assert.Equal(t, math.Float64bits(first), math.Float64bits(second))
}

func TestGrandTotal_SumsSectionsAndSubtrades(t *testing.T) {
	sections := []catalog.Section{
		{ID: "a", Items: []catalog.LineItem{line("a1", 250, 250, true, true)}},
		{ID: "b", Items: []catalog.LineItem{line("b1", 1, 1, false, true)}},
	}
	subtrades := []catalog.SubtradeItem{
		{ID: "s1", Quantity: 1, UnitCost: 2800, Active: true},
		{ID: "s2", Quantity: 4, UnitCost: 100, Active: false},
	}

	total := GrandTotal(sections, subtrades, referenceRates)

	assert.InDelta(t, 495.98+420.32+3360, total, 0.01)
}

func TestSummarize_GrandTotalMatchesEngine(t *testing.T) {
	sections := []catalog.Section{
		{ID: "a", Name: "A", Items: []catalog.LineItem{
			line("a1", 250, 250, true, true),
			line("a2", 0, 100, true, true),
		}},
		{ID: "b", Name: "B", Items: []catalog.LineItem{line("b1", 1, 1, false, true)}},
	}
	subtrades := []catalog.SubtradeItem{{ID: "s1", Quantity: 1, UnitCost: 2800, Active: true}}

	summary := Summarize(sections, subtrades, referenceRates)

	assert.Equal(t, GrandTotal(sections, subtrades, referenceRates), summary.GrandTotal)
	require.Len(t, summary.Sections, 2)
	assert.Len(t, summary.Sections[0].Lines, 1)
	assert.InDelta(t, 296.0*2, summary.LabourCost, 1e-9)
	assert.InDelta(t, 53.28, summary.MaterialCost, 1e-9)
	require.Len(t, summary.Subtrades, 1)
	assert.InDelta(t, 560.0, summary.Subtrades[0].Markup, 1e-9)
	assert.InDelta(t, summary.OwnForces+summary.SubtradeTotal, summary.GrandTotal, 1e-9)
}

func TestMoney_RoundsToCents(t *testing.T) {
	assert.Equal(t, "495.98", Money(495.9776).StringFixed(2))
	assert.Equal(t, "0.00", Money(math.NaN()).StringFixed(2))
	assert.Equal(t, "0.00", Money(-12).StringFixed(2))
}

func TestRateConfiguration_Sanitized(t *testing.T) {
	rates := RateConfiguration{CostPerLabourDay: math.NaN(), MaterialPct: -4, OverheadPct: math.Inf(1), ProfitPct: 30}

	assert.False(t, rates.Valid())
	clean := rates.Sanitized()
	assert.True(t, clean.Valid())
	assert.Equal(t, RateConfiguration{ProfitPct: 30}, clean)
}

func line(id string, qty, rate float64, material, active bool) catalog.LineItem {
	return catalog.LineItem{
		LineItemTemplate: catalog.LineItemTemplate{ID: id, HasMaterialCost: material, DefaultProductionRate: rate},
		Quantity:         qty,
		ProductionRate:   rate,
		Active:           active,
	}
}
