package takeoff

import "github.com/straye-as/bid-estimator/internal/catalog"

// Rule routes an entry whose lower-cased description contains any of the
// keywords. A rule targets either a section (optionally a specific item in it)
// or a subtrade. Mobilization rules also trigger the canonical mobilization
// lines once mapping is done.
type Rule struct {
	Keywords     []string `json:"keywords"`
	SectionID    string   `json:"sectionId,omitempty"`
	ItemID       string   `json:"itemId,omitempty"`
	SubtradeID   string   `json:"subtradeId,omitempty"`
	Mobilization bool     `json:"mobilization,omitempty"`
}

// Rules are scanned in order and the first hit wins, so more specific phrases
// sit above the broad ones they overlap with ("demob" above "mobiliz",
// "wall tile" above "ceramic", scanning above concrete).
var defaultRules = []Rule{
	{Keywords: []string{"demobiliz", "demobilis", "demob"}, SectionID: catalog.SectionStructuralDemo, ItemID: "sd_demob", Mobilization: true},
	{Keywords: []string{"mobiliz", "mobilis", "site setup"}, SectionID: catalog.SectionStructuralDemo, ItemID: catalog.ItemStructuralMobilization, Mobilization: true},

	{Keywords: []string{"scanning", "gpr", "x-ray", "xray"}, SubtradeID: "st_scanning"},
	{Keywords: []string{"hazmat", "hazardous material", "survey"}, SubtradeID: "st_survey"},
	{Keywords: []string{"air monitoring", "air sampling", "air clearance"}, SubtradeID: "st_air"},
	{Keywords: []string{"disposal bin", "dumpster", "roll-off", "roll off", "bin rental"}, SubtradeID: "st_bin"},
	{Keywords: []string{"electrical", "make safe", "make-safe", "disconnect"}, SubtradeID: "st_electrical"},
	{Keywords: []string{"mechanical", "hvac", "ductwork"}, SubtradeID: "st_mechanical"},

	{Keywords: []string{"wall tile"}, SectionID: catalog.SectionWashroom, ItemID: "wr_wall_tile"},
	{Keywords: []string{"ceramic", "porcelain"}, SectionID: catalog.SectionFlooring, ItemID: "fl_ceramic"},

	{Keywords: []string{"sheet flooring", "sheet vinyl", "sheet goods", "linoleum"}, SectionID: catalog.SectionFloorTile, ItemID: "ft_sheet"},
	{Keywords: []string{"mastic grind", "grinding"}, SectionID: catalog.SectionFloorTile, ItemID: "ft_mastic_grind"},
	{Keywords: []string{"vct", "vinyl composition", "floor tile", "mastic"}, SectionID: catalog.SectionFloorTile, ItemID: "ft_vct"},

	{Keywords: []string{"plaster"}, SectionID: catalog.SectionAsbestosCeiling, ItemID: "ac_plaster"},
	{Keywords: []string{"stipple", "popcorn", "textured ceiling", "texture coat"}, SectionID: catalog.SectionAsbestosCeiling, ItemID: "ac_texture"},
	{Keywords: []string{"ceiling tile", "acoustic tile", "acoustic ceiling"}, SectionID: catalog.SectionAsbestosCeiling, ItemID: "ac_tile"},
	{Keywords: []string{"containment", "enclosure", "poly sheeting", "negative air"}, SectionID: catalog.SectionAsbestosCeiling, ItemID: "ac_enclosure"},
	{Keywords: []string{"asbestos", "acm", "abatement"}, SectionID: catalog.SectionAsbestosCeiling},

	{Keywords: []string{"toilet partition", "washroom partition", "urinal screen"}, SectionID: catalog.SectionWashroom, ItemID: "wr_partitions"},
	{Keywords: []string{"toilet", "urinal", "sink", "lavatory", "plumbing fixture"}, SectionID: catalog.SectionWashroom, ItemID: "wr_fixtures"},
	{Keywords: []string{"grab bar", "dispenser", "mirror", "washroom accessor"}, SectionID: catalog.SectionWashroom, ItemID: "wr_accessories"},
	{Keywords: []string{"washroom", "bathroom", "restroom"}, SectionID: catalog.SectionWashroom},

	{Keywords: []string{"t-bar", "ceiling grid", "drop ceiling", "suspended ceiling"}, SectionID: catalog.SectionStructuralDemo, ItemID: "sd_ceiling_grid"},
	{Keywords: []string{"drywall", "gypsum", "partition wall", "stud wall", "interior wall"}, SectionID: catalog.SectionStructuralDemo, ItemID: "sd_drywall"},
	{Keywords: []string{"block wall", "cmu", "masonry", "brick"}, SectionID: catalog.SectionStructuralDemo, ItemID: "sd_block"},
	{Keywords: []string{"concrete", "slab"}, SectionID: catalog.SectionStructuralDemo, ItemID: "sd_concrete"},
	{Keywords: []string{"door"}, SectionID: catalog.SectionStructuralDemo, ItemID: "sd_doors"},
	{Keywords: []string{"millwork", "cabinet", "casework", "counter"}, SectionID: catalog.SectionStructuralDemo, ItemID: "sd_millwork"},

	{Keywords: []string{"carpet"}, SectionID: catalog.SectionFlooring, ItemID: "fl_carpet"},
	{Keywords: []string{"hardwood", "wood floor", "parquet", "laminate"}, SectionID: catalog.SectionFlooring, ItemID: "fl_hardwood"},
	{Keywords: []string{"underlay", "subfloor"}, SectionID: catalog.SectionFlooring, ItemID: "fl_underlay"},
	{Keywords: []string{"flooring", "floor covering"}, SectionID: catalog.SectionFlooring},

	{Keywords: []string{"waste", "debris", "haul"}, SectionID: catalog.SectionStructuralDemo, ItemID: "sd_waste"},
	{Keywords: []string{"demolition", "strip out", "strip-out"}, SectionID: catalog.SectionStructuralDemo},
}

// DefaultRules returns a copy of the built-in routing table in priority order
func DefaultRules() []Rule {
	return cloneRules(defaultRules)
}

func cloneRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = r
		out[i].Keywords = append([]string(nil), r.Keywords...)
	}
	return out
}
