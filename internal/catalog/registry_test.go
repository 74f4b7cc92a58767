package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_LoadsEmbeddedCatalog(t *testing.T) {
	reg := Default()

	assert.NotEmpty(t, reg.Version())
	assert.True(t, reg.HasSection(SectionFloorTile))
	assert.True(t, reg.HasSection(SectionAsbestosCeiling))
	assert.True(t, reg.HasSection(SectionStructuralDemo))
	assert.True(t, reg.HasSection(SectionWashroom))
	assert.True(t, reg.HasSection(SectionFlooring))
	assert.NotEmpty(t, reg.SubtradeTemplates())
}

func TestDefault_SiteSetupItemsHaveNoMaterialCost(t *testing.T) {
	for _, section := range Default().SectionTemplates() {
		for _, item := range section.Items {
			if item.Kind.IsSiteSetup() {
				assert.False(t, item.HasMaterialCost, "item %s", item.ID)
			}
		}
	}
}

func TestDefault_EveryDemoSectionHasWasteLine(t *testing.T) {
	for _, section := range Default().SectionTemplates() {
		found := false
		for _, item := range section.Items {
			if item.Kind == KindWaste {
				found = true
			}
		}
		assert.True(t, found, "section %s has no waste handling line", section.ID)
	}
}

func TestDefault_CanonicalMobilizationLines(t *testing.T) {
	reg := Default()

	sectionID, ok := reg.SectionOf(ItemStructuralMobilization)
	require.True(t, ok)
	assert.Equal(t, SectionStructuralDemo, sectionID)

	sectionID, ok = reg.SectionOf(ItemFlooringMobilization)
	require.True(t, ok)
	assert.Equal(t, SectionFlooring, sectionID)
}

func TestNewSections_ReturnsIndependentCopies(t *testing.T) {
	reg := Default()

	first := reg.NewSections()
	first[0].Items[0].Quantity = 999
	first[0].Items[0].Description = "mutated"

	second := reg.NewSections()
	assert.Equal(t, 0.0, second[0].Items[0].Quantity)
	assert.NotEqual(t, "mutated", second[0].Items[0].Description)

	tmpl, ok := reg.Template(second[0].Items[0].ID)
	require.True(t, ok)
	assert.NotEqual(t, "mutated", tmpl.Description)
}

func TestNewSections_DefaultInstanceState(t *testing.T) {
	for _, section := range Default().NewSections() {
		assert.False(t, section.Expanded)
		for _, item := range section.Items {
			assert.Equal(t, 0.0, item.Quantity)
			assert.True(t, item.Active)
			assert.Equal(t, item.DefaultProductionRate, item.ProductionRate)
			assert.False(t, item.Priced())
		}
	}
}

func TestLoad_RejectsMaterialCostOnMobilization(t *testing.T) {
	data := []byte(`
version: "test"
sections:
  - id: structural_demo
    name: Demo
    items:
      - id: sd_mob
        description: Mobilization
        unitType: EA
        defaultProductionRate: 1
        hasMaterialCost: true
        kind: mobilization
`)
	_, err := Load(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot carry material cost")
}

func TestLoad_RejectsDuplicateIDs(t *testing.T) {
	data := []byte(`
version: "test"
sections:
  - id: structural_demo
    name: Demo
    items:
      - id: sd_mob
        unitType: EA
        defaultProductionRate: 1
        kind: mobilization
      - id: sd_mob
        unitType: EA
        defaultProductionRate: 1
        kind: mobilization
`)
	_, err := Load(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate item id")
}

func TestLoad_RequiresCanonicalMobilization(t *testing.T) {
	data := []byte(`
version: "test"
sections:
  - id: flooring
    name: Flooring
    items:
      - id: fl_carpet
        unitType: SF
        defaultProductionRate: 800
        hasMaterialCost: true
        kind: work
      - id: fl_waste
        unitType: SF
        defaultProductionRate: 2000
        kind: waste
`)
	_, err := Load(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "canonical mobilization")
}

func TestLoad_RequiresOneWasteLinePerDemoSection(t *testing.T) {
	section := func(wasteLines string) []byte {
		return []byte(`
version: "test"
sections:
  - id: structural_demo
    name: Demo
    items:
      - id: sd_mob
        unitType: EA
        defaultProductionRate: 1
        kind: mobilization
      - id: sd_drywall
        unitType: SF
        defaultProductionRate: 400
        hasMaterialCost: true
        kind: work
` + wasteLines + `
  - id: flooring
    name: Flooring
    items:
      - id: fl_mob
        unitType: EA
        defaultProductionRate: 1
        kind: mobilization
`)
	}
	waste := func(id string) string {
		return `      - id: ` + id + `
        unitType: SF
        defaultProductionRate: 2000
        kind: waste
`
	}

	_, err := Load(section(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `section "structural_demo" must have exactly one waste handling line, found 0`)

	_, err = Load(section(waste("sd_waste") + waste("sd_waste_2")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 2")

	reg, err := Load(section(waste("sd_waste")))
	require.NoError(t, err)
	assert.True(t, reg.HasSection(SectionFlooring))
}

func TestSectionWithItem_DoesNotAliasOriginal(t *testing.T) {
	section := Default().NewSections()[0]
	item := section.Items[0].WithQuantity(42).WithNotes("north wing")

	updated := section.WithItem(item)

	assert.Equal(t, 42.0, updated.Items[0].Quantity)
	assert.Equal(t, "north wing", updated.Items[0].Notes)
	assert.Equal(t, 0.0, section.Items[0].Quantity)
	assert.Empty(t, section.Items[0].Notes)
}
