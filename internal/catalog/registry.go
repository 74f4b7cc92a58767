// Package catalog holds the versioned taxonomy of biddable demolition and
// abatement work. The registry is loaded once and never mutated; estimates
// always receive deep copies of its templates.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Canonical section and item ids referenced by code outside the catalog file
const (
	SectionFloorTile       = "floor_tile"
	SectionAsbestosCeiling = "asbestos_ceiling"
	SectionStructuralDemo  = "structural_demo"
	SectionWashroom        = "washroom"
	SectionFlooring        = "flooring"

	ItemStructuralMobilization = "sd_mob"
	ItemFlooringMobilization   = "fl_mob"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

type itemRef struct {
	section int
	item    int
}

// Registry is an immutable, versioned set of section and subtrade templates
type Registry struct {
	version   string
	sections  []SectionTemplate
	subtrades []SubtradeTemplate
	items     map[string]itemRef
	subIndex  map[string]int
}

type catalogFile struct {
	Version   string             `yaml:"version"`
	Sections  []SectionTemplate  `yaml:"sections"`
	Subtrades []SubtradeTemplate `yaml:"subtrades"`
}

// Default returns the registry built from the embedded catalog definition.
// It panics if the embedded definition is invalid.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = Load(defaultCatalog)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("catalog: embedded catalog is invalid: %v", defaultErr))
	}
	return defaultRegistry
}

// Load parses and validates a YAML catalog definition
func Load(data []byte) (*Registry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	r := &Registry{
		version:   file.Version,
		sections:  file.Sections,
		subtrades: file.Subtrades,
		items:     make(map[string]itemRef),
		subIndex:  make(map[string]int),
	}
	if err := r.index(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) index() error {
	if strings.TrimSpace(r.version) == "" {
		return fmt.Errorf("catalog version is required")
	}

	sectionIDs := make(map[string]bool)
	for si, section := range r.sections {
		if section.ID == "" {
			return fmt.Errorf("section %d has no id", si)
		}
		if sectionIDs[section.ID] {
			return fmt.Errorf("duplicate section id %q", section.ID)
		}
		sectionIDs[section.ID] = true
		if len(section.Items) == 0 {
			return fmt.Errorf("section %q has no items", section.ID)
		}

		var work, waste int
		for ii, item := range section.Items {
			if err := validateTemplate(item); err != nil {
				return fmt.Errorf("section %q: %w", section.ID, err)
			}
			if _, dup := r.items[item.ID]; dup {
				return fmt.Errorf("duplicate item id %q", item.ID)
			}
			r.items[item.ID] = itemRef{section: si, item: ii}
			switch item.Kind {
			case KindWork:
				work++
			case KindWaste:
				waste++
			}
		}
		// Waste handling is derived per section from its removal lines
		if work > 0 && waste != 1 {
			return fmt.Errorf("section %q must have exactly one waste handling line, found %d", section.ID, waste)
		}
	}

	for i, sub := range r.subtrades {
		if sub.ID == "" {
			return fmt.Errorf("subtrade %d has no id", i)
		}
		if _, dup := r.items[sub.ID]; dup {
			return fmt.Errorf("subtrade id %q collides with a line item id", sub.ID)
		}
		if _, dup := r.subIndex[sub.ID]; dup {
			return fmt.Errorf("duplicate subtrade id %q", sub.ID)
		}
		if sub.DefaultUnitCost < 0 {
			return fmt.Errorf("subtrade %q has a negative unit cost", sub.ID)
		}
		r.subIndex[sub.ID] = i
	}

	for _, canonical := range []struct{ section, item string }{
		{SectionStructuralDemo, ItemStructuralMobilization},
		{SectionFlooring, ItemFlooringMobilization},
	} {
		sectionID, ok := r.SectionOf(canonical.item)
		if !ok || sectionID != canonical.section {
			return fmt.Errorf("canonical mobilization item %q missing from section %q", canonical.item, canonical.section)
		}
	}

	return nil
}

func validateTemplate(t LineItemTemplate) error {
	if t.ID == "" {
		return fmt.Errorf("item has no id")
	}
	if t.DefaultProductionRate <= 0 {
		return fmt.Errorf("item %q must have a positive production rate", t.ID)
	}
	switch t.Kind {
	case KindWork, KindWaste, KindMobilization, KindDemobilization:
	default:
		return fmt.Errorf("item %q has unknown kind %q", t.ID, t.Kind)
	}
	if t.Kind.IsSiteSetup() && t.HasMaterialCost {
		return fmt.Errorf("item %q is %s and cannot carry material cost", t.ID, t.Kind)
	}
	return nil
}

// Version returns the catalog version string
func (r *Registry) Version() string {
	return r.version
}

// SectionTemplates returns a copy of the section templates in catalog order
func (r *Registry) SectionTemplates() []SectionTemplate {
	out := make([]SectionTemplate, len(r.sections))
	for i, s := range r.sections {
		items := make([]LineItemTemplate, len(s.Items))
		copy(items, s.Items)
		out[i] = SectionTemplate{ID: s.ID, Name: s.Name, Items: items}
	}
	return out
}

// SubtradeTemplates returns a copy of the subtrade templates in catalog order
func (r *Registry) SubtradeTemplates() []SubtradeTemplate {
	out := make([]SubtradeTemplate, len(r.subtrades))
	copy(out, r.subtrades)
	return out
}

// NewSections instantiates every section with default line items
func (r *Registry) NewSections() []Section {
	out := make([]Section, len(r.sections))
	for i, s := range r.sections {
		items := make([]LineItem, len(s.Items))
		for j, t := range s.Items {
			items[j] = NewLineItem(t)
		}
		out[i] = Section{ID: s.ID, Name: s.Name, Items: items}
	}
	return out
}

// NewSubtrades instantiates every subtrade with zero quantity
func (r *Registry) NewSubtrades() []SubtradeItem {
	out := make([]SubtradeItem, len(r.subtrades))
	for i, t := range r.subtrades {
		out[i] = NewSubtradeItem(t)
	}
	return out
}

// Template looks up a line item template by id
func (r *Registry) Template(itemID string) (LineItemTemplate, bool) {
	ref, ok := r.items[itemID]
	if !ok {
		return LineItemTemplate{}, false
	}
	return r.sections[ref.section].Items[ref.item], true
}

// SectionOf returns the id of the section that owns the item
func (r *Registry) SectionOf(itemID string) (string, bool) {
	ref, ok := r.items[itemID]
	if !ok {
		return "", false
	}
	return r.sections[ref.section].ID, true
}

// HasSection reports whether a section id exists
func (r *Registry) HasSection(sectionID string) bool {
	for _, s := range r.sections {
		if s.ID == sectionID {
			return true
		}
	}
	return false
}

// Subtrade looks up a subtrade template by id
func (r *Registry) Subtrade(id string) (SubtradeTemplate, bool) {
	i, ok := r.subIndex[id]
	if !ok {
		return SubtradeTemplate{}, false
	}
	return r.subtrades[i], true
}
