package takeoff

import (
	"strings"

	"github.com/straye-as/bid-estimator/internal/catalog"
)

var unitAliases = map[string]catalog.UnitType{
	"sf":          catalog.UnitSF,
	"sqft":        catalog.UnitSF,
	"sq ft":       catalog.UnitSF,
	"sq. ft.":     catalog.UnitSF,
	"ft2":         catalog.UnitSF,
	"square feet": catalog.UnitSF,
	"square foot": catalog.UnitSF,

	"lf":          catalog.UnitLF,
	"lin ft":      catalog.UnitLF,
	"linear feet": catalog.UnitLF,
	"linear foot": catalog.UnitLF,

	"ea":       catalog.UnitEA,
	"each":     catalog.UnitEA,
	"unit":     catalog.UnitEA,
	"units":    catalog.UnitEA,
	"pc":       catalog.UnitEA,
	"pcs":      catalog.UnitEA,
	"ls":       catalog.UnitEA,
	"lump sum": catalog.UnitEA,
	"lot":      catalog.UnitEA,

	"day":  catalog.UnitDay,
	"days": catalog.UnitDay,

	"cy":          catalog.UnitCY,
	"cu yd":       catalog.UnitCY,
	"yd3":         catalog.UnitCY,
	"cubic yard":  catalog.UnitCY,
	"cubic yards": catalog.UnitCY,
}

// normalizeUnit maps a free-text unit onto a catalog unit. Unknown or empty
// units return false and are never reported as mismatches.
func normalizeUnit(unit string) (catalog.UnitType, bool) {
	u, ok := unitAliases[strings.ToLower(strings.TrimSpace(unit))]
	return u, ok
}
