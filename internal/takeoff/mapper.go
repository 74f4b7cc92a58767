// Package takeoff folds free-text quantity takeoffs into a fresh copy of the
// catalog so the pricing engine can price them. Matching is plain substring
// search over an ordered rule table; the first matching rule wins.
package takeoff

import (
	"fmt"
	"strings"

	"github.com/straye-as/bid-estimator/internal/catalog"
)

// WasteHandlingFactor is the share of removed quantity carried into a
// section's waste handling line when waste derivation is requested
const WasteHandlingFactor = 0.15

// Entry is one extracted takeoff line
type Entry struct {
	Description string  `json:"description" validate:"required,max=500"`
	Quantity    float64 `json:"quantity" validate:"gte=0"`
	Unit        string  `json:"unit" validate:"max=32"`
	Notes       string  `json:"notes" validate:"max=2000"`
	// UnitCost overrides the subtrade unit cost when the entry lands on a subtrade
	UnitCost float64 `json:"unitCost,omitempty" validate:"gte=0"`
}

// Options tune conventions applied on top of plain routing
type Options struct {
	DeriveWasteHandling bool `json:"deriveWasteHandling"`
}

// Mapping records where an entry was routed
type Mapping struct {
	Index       int     `json:"index"`
	Description string  `json:"description"`
	Keyword     string  `json:"keyword"`
	SectionID   string  `json:"sectionId,omitempty"`
	ItemID      string  `json:"itemId,omitempty"`
	SubtradeID  string  `json:"subtradeId,omitempty"`
	Quantity    float64 `json:"quantity"`
}

// UnitMismatch flags an entry whose unit differs from the target line's unit
type UnitMismatch struct {
	Index    int              `json:"index"`
	TargetID string           `json:"targetId"`
	Unit     string           `json:"unit"`
	Expected catalog.UnitType `json:"expected"`
}

// Result is a populated catalog instance plus an account of every entry
type Result struct {
	Sections           []catalog.Section      `json:"sections"`
	Subtrades          []catalog.SubtradeItem `json:"subtrades"`
	Mapped             []Mapping              `json:"mapped"`
	Unmapped           []Entry                `json:"unmapped"`
	UnitMismatches     []UnitMismatch         `json:"unitMismatches"`
	MobilizationForced bool                   `json:"mobilizationForced"`
}

// UnmappedCount is the number of entries that matched no rule
func (r Result) UnmappedCount() int {
	return len(r.Unmapped)
}

// Mapper routes takeoff entries onto a catalog registry.
// A Mapper holds no mutable state and is safe for concurrent use.
type Mapper struct {
	registry *catalog.Registry
	rules    []Rule
}

// NewMapper validates every rule target against the registry
func NewMapper(reg *catalog.Registry, rules []Rule) (*Mapper, error) {
	if reg == nil {
		return nil, fmt.Errorf("catalog registry is required")
	}

	normalized := cloneRules(rules)
	for i := range normalized {
		r := &normalized[i]
		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("rule %d has no keywords", i)
		}
		for k, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				return nil, fmt.Errorf("rule %d has an empty keyword", i)
			}
			r.Keywords[k] = kw
		}

		switch {
		case r.SubtradeID != "" && r.SectionID != "":
			return nil, fmt.Errorf("rule %d targets both a section and a subtrade", i)
		case r.SubtradeID != "":
			if _, ok := reg.Subtrade(r.SubtradeID); !ok {
				return nil, fmt.Errorf("rule %d: unknown subtrade %q", i, r.SubtradeID)
			}
		case r.SectionID != "":
			if !reg.HasSection(r.SectionID) {
				return nil, fmt.Errorf("rule %d: unknown section %q", i, r.SectionID)
			}
			if r.ItemID != "" {
				owner, ok := reg.SectionOf(r.ItemID)
				if !ok || owner != r.SectionID {
					return nil, fmt.Errorf("rule %d: item %q is not in section %q", i, r.ItemID, r.SectionID)
				}
			}
		default:
			return nil, fmt.Errorf("rule %d has no target", i)
		}
	}

	return &Mapper{registry: reg, rules: normalized}, nil
}

// NewDefaultMapper builds a mapper over the embedded catalog and built-in rules.
// It panics if the built-in rules do not fit the embedded catalog.
func NewDefaultMapper() *Mapper {
	m, err := NewMapper(catalog.Default(), defaultRules)
	if err != nil {
		panic(fmt.Sprintf("takeoff: default rules are invalid: %v", err))
	}
	return m
}

// Rules returns a copy of the mapper's routing table
func (m *Mapper) Rules() []Rule {
	return cloneRules(m.rules)
}

func (m *Mapper) match(description string) (Rule, string, bool) {
	desc := strings.ToLower(description)
	for _, r := range m.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(desc, kw) {
				return r, kw, true
			}
		}
	}
	return Rule{}, "", false
}

// Map routes entries onto a fresh copy of the catalog. When the same line is
// hit more than once the last positive quantity wins. Entries that match no
// rule leave the catalog untouched and are reported in Result.Unmapped.
func (m *Mapper) Map(entries []Entry, opts Options) Result {
	res := Result{
		Sections:       m.registry.NewSections(),
		Subtrades:      m.registry.NewSubtrades(),
		Mapped:         make([]Mapping, 0, len(entries)),
		Unmapped:       make([]Entry, 0),
		UnitMismatches: make([]UnitMismatch, 0),
	}

	mobilization := false
	for i, entry := range entries {
		rule, keyword, ok := m.match(entry.Description)
		if !ok {
			res.Unmapped = append(res.Unmapped, entry)
			continue
		}
		if rule.Mobilization {
			mobilization = true
		}

		mapping := Mapping{
			Index:       i,
			Description: entry.Description,
			Keyword:     keyword,
			Quantity:    entry.Quantity,
		}

		var targetID string
		var targetUnit catalog.UnitType
		if rule.SubtradeID != "" {
			item := m.applySubtrade(res.Subtrades, rule.SubtradeID, entry)
			mapping.SubtradeID = item.ID
			targetID, targetUnit = item.ID, item.UnitType
		} else {
			item := m.applyLine(res.Sections, rule, entry)
			mapping.SectionID = rule.SectionID
			mapping.ItemID = item.ID
			targetID, targetUnit = item.ID, item.UnitType
		}
		res.Mapped = append(res.Mapped, mapping)

		if unit, known := normalizeUnit(entry.Unit); known && unit != targetUnit {
			res.UnitMismatches = append(res.UnitMismatches, UnitMismatch{
				Index:    i,
				TargetID: targetID,
				Unit:     entry.Unit,
				Expected: targetUnit,
			})
		}
	}

	if mobilization {
		forceMobilization(res.Sections)
		res.MobilizationForced = true
	}
	if opts.DeriveWasteHandling {
		deriveWasteHandling(res.Sections)
	}

	return res
}

func (m *Mapper) applyLine(sections []catalog.Section, rule Rule, entry Entry) catalog.LineItem {
	si := sectionIndex(sections, rule.SectionID)
	section := sections[si]

	ii := 0
	if rule.ItemID != "" {
		ii = section.ItemIndex(rule.ItemID)
	}

	item := section.Items[ii]
	if entry.Quantity > 0 {
		item = item.WithQuantity(entry.Quantity)
	}
	item = item.WithActive(true)
	if notes := strings.TrimSpace(entry.Notes); notes != "" {
		item = item.WithNotes(notes)
	}

	sections[si] = section.WithItem(item).WithExpanded(true)
	return item
}

func (m *Mapper) applySubtrade(subtrades []catalog.SubtradeItem, id string, entry Entry) catalog.SubtradeItem {
	idx := 0
	for i, s := range subtrades {
		if s.ID == id {
			idx = i
			break
		}
	}

	item := subtrades[idx]
	if entry.Quantity > 0 {
		item.Quantity = entry.Quantity
	}
	if entry.UnitCost > 0 {
		item.UnitCost = entry.UnitCost
	}
	item.Active = true
	if notes := strings.TrimSpace(entry.Notes); notes != "" {
		item.Notes = notes
	}
	subtrades[idx] = item
	return item
}

// forceMobilization turns on the canonical mobilization lines of the structural
// demo and flooring sections. A line still at zero quantity is set to one.
func forceMobilization(sections []catalog.Section) {
	for _, target := range []struct{ section, item string }{
		{catalog.SectionStructuralDemo, catalog.ItemStructuralMobilization},
		{catalog.SectionFlooring, catalog.ItemFlooringMobilization},
	} {
		si := sectionIndex(sections, target.section)
		if si < 0 {
			continue
		}
		ii := sections[si].ItemIndex(target.item)
		if ii < 0 {
			continue
		}
		item := sections[si].Items[ii].WithActive(true)
		if item.Quantity <= 0 {
			item = item.WithQuantity(1)
		}
		sections[si] = sections[si].WithItem(item).WithExpanded(true)
	}
}

// deriveWasteHandling fills each section's empty waste line with a share of
// the removed quantity measured in the same unit
func deriveWasteHandling(sections []catalog.Section) {
	for si, section := range sections {
		wi := -1
		for i, item := range section.Items {
			if item.Kind == catalog.KindWaste {
				wi = i
				break
			}
		}
		if wi < 0 || section.Items[wi].Quantity > 0 {
			continue
		}

		waste := section.Items[wi]
		var removed float64
		for _, item := range section.Items {
			if item.Kind == catalog.KindWork && item.Priced() && item.UnitType == waste.UnitType {
				removed += item.Quantity
			}
		}
		if removed <= 0 {
			continue
		}

		waste = waste.WithQuantity(removed * WasteHandlingFactor).WithActive(true)
		sections[si] = section.WithItem(waste)
	}
}

func sectionIndex(sections []catalog.Section, id string) int {
	for i, s := range sections {
		if s.ID == id {
			return i
		}
	}
	return -1
}
