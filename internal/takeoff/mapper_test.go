package takeoff

import (
	"testing"

	"github.com/straye-as/bid-estimator/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findItem(t *testing.T, sections []catalog.Section, sectionID, itemID string) (catalog.Section, catalog.LineItem) {
	t.Helper()
	for _, s := range sections {
		if s.ID != sectionID {
			continue
		}
		idx := s.ItemIndex(itemID)
		require.GreaterOrEqual(t, idx, 0, "item %s not in section %s", itemID, sectionID)
		return s, s.Items[idx]
	}
	t.Fatalf("section %s not found", sectionID)
	return catalog.Section{}, catalog.LineItem{}
}

func findSubtrade(t *testing.T, subtrades []catalog.SubtradeItem, id string) catalog.SubtradeItem {
	t.Helper()
	for _, s := range subtrades {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("subtrade %s not found", id)
	return catalog.SubtradeItem{}
}

func TestDefaultRules_FitEmbeddedCatalog(t *testing.T) {
	_, err := NewMapper(catalog.Default(), DefaultRules())
	require.NoError(t, err)
}

func TestMap_VCTRemoval(t *testing.T) {
	m := NewDefaultMapper()

	res := m.Map([]Entry{{Description: "VCT removal", Quantity: 500, Unit: "SF"}}, Options{})

	require.Len(t, res.Mapped, 1)
	assert.Equal(t, catalog.SectionFloorTile, res.Mapped[0].SectionID)
	assert.Equal(t, "ft_vct", res.Mapped[0].ItemID)
	assert.Equal(t, 0, res.UnmappedCount())
	assert.Empty(t, res.UnitMismatches)

	section, item := findItem(t, res.Sections, catalog.SectionFloorTile, "ft_vct")
	assert.Equal(t, 500.0, item.Quantity)
	assert.True(t, item.Active)
	assert.True(t, section.Expanded)
}

func TestMap_Deterministic(t *testing.T) {
	m := NewDefaultMapper()
	entries := []Entry{
		{Description: "VCT removal", Quantity: 500, Unit: "SF"},
		{Description: "Remove drywall partitions", Quantity: 1200, Unit: "SF", Notes: "level 2"},
		{Description: "Carpet removal", Quantity: 3000, Unit: "SF"},
		{Description: "Dumpster", Quantity: 3, Unit: "EA"},
		{Description: "Mobilization", Quantity: 1, Unit: "LS"},
		{Description: "xyz unknown scope", Quantity: 10},
	}

	first := m.Map(entries, Options{DeriveWasteHandling: true})
	second := m.Map(entries, Options{DeriveWasteHandling: true})

	assert.Equal(t, first, second)
}

func TestMap_UnmappedEntryLeavesCatalogUntouched(t *testing.T) {
	m := NewDefaultMapper()
	entry := Entry{Description: "xyz unknown scope", Quantity: 42, Unit: "SF"}

	res := m.Map([]Entry{entry}, Options{})

	assert.Equal(t, 1, res.UnmappedCount())
	assert.Equal(t, entry, res.Unmapped[0])
	assert.Empty(t, res.Mapped)
	assert.Equal(t, catalog.Default().NewSections(), res.Sections)
	assert.Equal(t, catalog.Default().NewSubtrades(), res.Subtrades)
	assert.False(t, res.MobilizationForced)
}

func TestMap_FirstMatchWins(t *testing.T) {
	m := NewDefaultMapper()

	cases := []struct {
		description string
		section     string
		item        string
	}{
		{"Demobilization", catalog.SectionStructuralDemo, "sd_demob"},
		{"Ceramic wall tile in washrooms", catalog.SectionWashroom, "wr_wall_tile"},
		{"Ceramic floor tile", catalog.SectionFlooring, "fl_ceramic"},
		{"Asbestos ceiling tile", catalog.SectionAsbestosCeiling, "ac_tile"},
		{"Asbestos pipe lagging", catalog.SectionAsbestosCeiling, "ac_tile"},
		{"Washroom demolition", catalog.SectionWashroom, "wr_fixtures"},
		{"Remove kitchen cabinets", catalog.SectionStructuralDemo, "sd_millwork"},
		{"Poly sheeting containment", catalog.SectionAsbestosCeiling, "ac_enclosure"},
		{"Mastic grinding", catalog.SectionFloorTile, "ft_mastic_grind"},
		{"Sheet vinyl", catalog.SectionFloorTile, "ft_sheet"},
		{"General interior demolition", catalog.SectionStructuralDemo, "sd_drywall"},
	}

	for _, tc := range cases {
		t.Run(tc.description, func(t *testing.T) {
			res := m.Map([]Entry{{Description: tc.description, Quantity: 10}}, Options{})
			require.Len(t, res.Mapped, 1)
			assert.Equal(t, tc.section, res.Mapped[0].SectionID)
			assert.Equal(t, tc.item, res.Mapped[0].ItemID)
		})
	}
}

func TestMap_RuleOrderIsPriority(t *testing.T) {
	reg := catalog.Default()
	rules := []Rule{
		{Keywords: []string{"tile"}, SectionID: catalog.SectionFloorTile, ItemID: "ft_sheet"},
		{Keywords: []string{"vct"}, SectionID: catalog.SectionFloorTile, ItemID: "ft_vct"},
	}
	m, err := NewMapper(reg, rules)
	require.NoError(t, err)

	res := m.Map([]Entry{{Description: "VCT tile", Quantity: 5}}, Options{})

	require.Len(t, res.Mapped, 1)
	assert.Equal(t, "ft_sheet", res.Mapped[0].ItemID)
	assert.Equal(t, "tile", res.Mapped[0].Keyword)
}

func TestMap_SectionOnlyRuleTargetsFirstItem(t *testing.T) {
	m := NewDefaultMapper()

	res := m.Map([]Entry{{Description: "Restroom strip", Quantity: 4}}, Options{})

	require.Len(t, res.Mapped, 1)
	first := catalog.Default().SectionTemplates()
	var washroomFirst string
	for _, s := range first {
		if s.ID == catalog.SectionWashroom {
			washroomFirst = s.Items[0].ID
		}
	}
	assert.Equal(t, washroomFirst, res.Mapped[0].ItemID)
}

func TestMap_ZeroQuantityActivatesWithoutSettingQuantity(t *testing.T) {
	m := NewDefaultMapper()

	res := m.Map([]Entry{{Description: "Carpet", Quantity: 0, Notes: "quantity tbd"}}, Options{})

	section, item := findItem(t, res.Sections, catalog.SectionFlooring, "fl_carpet")
	assert.Equal(t, 0.0, item.Quantity)
	assert.True(t, item.Active)
	assert.Equal(t, "quantity tbd", item.Notes)
	assert.True(t, section.Expanded)
}

func TestMap_RepeatedEntriesLastPositiveQuantityWins(t *testing.T) {
	m := NewDefaultMapper()

	res := m.Map([]Entry{
		{Description: "Carpet level 1", Quantity: 100},
		{Description: "Carpet level 2", Quantity: 250},
		{Description: "Carpet level 3", Quantity: 0},
	}, Options{})

	_, item := findItem(t, res.Sections, catalog.SectionFlooring, "fl_carpet")
	assert.Equal(t, 250.0, item.Quantity)
	assert.Len(t, res.Mapped, 3)
}

func TestMap_MobilizationForcesCanonicalLines(t *testing.T) {
	m := NewDefaultMapper()

	res := m.Map([]Entry{
		{Description: "Mobilization", Quantity: 2},
		{Description: "Carpet", Quantity: 100},
	}, Options{})

	assert.True(t, res.MobilizationForced)

	sd, sdMob := findItem(t, res.Sections, catalog.SectionStructuralDemo, catalog.ItemStructuralMobilization)
	assert.Equal(t, 2.0, sdMob.Quantity)
	assert.True(t, sdMob.Active)
	assert.True(t, sd.Expanded)

	fl, flMob := findItem(t, res.Sections, catalog.SectionFlooring, catalog.ItemFlooringMobilization)
	assert.Equal(t, 1.0, flMob.Quantity)
	assert.True(t, flMob.Active)
	assert.True(t, fl.Expanded)
}

func TestMap_NoMobilizationKeywordLeavesMobLinesAlone(t *testing.T) {
	m := NewDefaultMapper()

	res := m.Map([]Entry{{Description: "Carpet", Quantity: 100}}, Options{})

	assert.False(t, res.MobilizationForced)
	_, flMob := findItem(t, res.Sections, catalog.SectionFlooring, catalog.ItemFlooringMobilization)
	assert.Equal(t, 0.0, flMob.Quantity)
}

func TestMap_Subtrade(t *testing.T) {
	m := NewDefaultMapper()

	res := m.Map([]Entry{{Description: "Electrical make safe", Quantity: 1, Unit: "LS", UnitCost: 3100}}, Options{})

	require.Len(t, res.Mapped, 1)
	assert.Equal(t, "st_electrical", res.Mapped[0].SubtradeID)
	item := findSubtrade(t, res.Subtrades, "st_electrical")
	assert.Equal(t, 1.0, item.Quantity)
	assert.Equal(t, 3100.0, item.UnitCost)
	assert.True(t, item.Active)
	assert.Empty(t, res.UnitMismatches)
}

func TestMap_UnitMismatchReported(t *testing.T) {
	m := NewDefaultMapper()

	res := m.Map([]Entry{
		{Description: "Drywall removal", Quantity: 80, Unit: "LF"},
		{Description: "Carpet", Quantity: 80, Unit: "whatever"},
	}, Options{})

	require.Len(t, res.UnitMismatches, 1)
	assert.Equal(t, 0, res.UnitMismatches[0].Index)
	assert.Equal(t, "sd_drywall", res.UnitMismatches[0].TargetID)
	assert.Equal(t, catalog.UnitSF, res.UnitMismatches[0].Expected)
}

func TestMap_DeriveWasteHandling(t *testing.T) {
	m := NewDefaultMapper()
	entries := []Entry{
		{Description: "Carpet", Quantity: 1000, Unit: "SF"},
		{Description: "Underlay", Quantity: 1000, Unit: "SF"},
	}

	without := m.Map(entries, Options{})
	_, waste := findItem(t, without.Sections, catalog.SectionFlooring, "fl_waste")
	assert.Equal(t, 0.0, waste.Quantity)

	with := m.Map(entries, Options{DeriveWasteHandling: true})
	_, waste = findItem(t, with.Sections, catalog.SectionFlooring, "fl_waste")
	assert.InDelta(t, 300.0, waste.Quantity, 1e-9)

	_, ftWaste := findItem(t, with.Sections, catalog.SectionFloorTile, "ft_waste")
	assert.Equal(t, 0.0, ftWaste.Quantity)
}

func TestMap_ExplicitWasteQuantityIsKept(t *testing.T) {
	m := NewDefaultMapper()

	res := m.Map([]Entry{
		{Description: "Drywall", Quantity: 1000},
		{Description: "Debris haul", Quantity: 40},
	}, Options{DeriveWasteHandling: true})

	_, waste := findItem(t, res.Sections, catalog.SectionStructuralDemo, "sd_waste")
	assert.Equal(t, 40.0, waste.Quantity)
}

func TestMap_DoesNotMutateRegistry(t *testing.T) {
	reg := catalog.Default()
	before := reg.NewSections()
	m := NewDefaultMapper()

	res := m.Map([]Entry{{Description: "VCT removal", Quantity: 500}}, Options{})
	res.Sections[0].Items[0].Quantity = 9999

	assert.Equal(t, before, reg.NewSections())
	again := m.Map(nil, Options{})
	assert.Equal(t, before, again.Sections)
}

func TestNewMapper_RejectsBadRules(t *testing.T) {
	reg := catalog.Default()

	cases := map[string]Rule{
		"no keywords":      {SectionID: catalog.SectionFlooring},
		"blank keyword":    {Keywords: []string{"  "}, SectionID: catalog.SectionFlooring},
		"unknown section":  {Keywords: []string{"x"}, SectionID: "nope"},
		"foreign item":     {Keywords: []string{"x"}, SectionID: catalog.SectionFlooring, ItemID: "ft_vct"},
		"unknown subtrade": {Keywords: []string{"x"}, SubtradeID: "st_nope"},
		"two targets":      {Keywords: []string{"x"}, SectionID: catalog.SectionFlooring, SubtradeID: "st_bin"},
		"no target":        {Keywords: []string{"x"}},
	}

	for name, rule := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewMapper(reg, []Rule{rule})
			assert.Error(t, err)
		})
	}
}

func TestNewMapper_NormalizesKeywords(t *testing.T) {
	rules := []Rule{{Keywords: []string{"  CARPET "}, SectionID: catalog.SectionFlooring, ItemID: "fl_carpet"}}
	m, err := NewMapper(catalog.Default(), rules)
	require.NoError(t, err)

	assert.Equal(t, "  CARPET ", rules[0].Keywords[0])
	res := m.Map([]Entry{{Description: "Carpet tiles", Quantity: 3}}, Options{})
	require.Len(t, res.Mapped, 1)
	assert.Equal(t, "fl_carpet", res.Mapped[0].ItemID)
}

func TestFromFlatRate(t *testing.T) {
	entries := FromFlatRate([]FlatRateLine{
		{Description: "Air monitoring", Quantity: 5, Unit: "day", Rate: 475},
		{Description: "Carpet", Quantity: 900, Unit: "SF"},
	})

	require.Len(t, entries, 2)
	assert.Equal(t, "flat rate 475.00/day", entries[0].Notes)
	assert.Equal(t, 475.0, entries[0].UnitCost)
	assert.Empty(t, entries[1].Notes)

	res := NewDefaultMapper().Map(entries, Options{})
	air := findSubtrade(t, res.Subtrades, "st_air")
	assert.Equal(t, 5.0, air.Quantity)
	assert.Equal(t, 475.0, air.UnitCost)
	assert.Equal(t, "flat rate 475.00/day", air.Notes)
}
