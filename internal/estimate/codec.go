package estimate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/straye-as/bid-estimator/internal/catalog"
	"github.com/straye-as/bid-estimator/internal/pricing"
)

// Encode writes the document at the current schema version
func Encode(d Document) ([]byte, error) {
	d.SchemaVersion = SchemaVersion
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode estimate document: %w", err)
	}
	return data, nil
}

// Decode reads a document of any supported schema version, migrates it to
// the current one and validates it against the registry. Anything that does
// not validate is rejected with ErrInvalidDocument.
func Decode(data []byte, reg *catalog.Registry) (Document, error) {
	var header struct {
		SchemaVersion int `json:"schemaVersion"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	var doc Document
	switch header.SchemaVersion {
	case 0, 1:
		var v1 documentV1
		if err := json.Unmarshal(data, &v1); err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		migrated, err := v1.migrate(reg)
		if err != nil {
			return Document{}, err
		}
		doc = migrated
	case SchemaVersion:
		if err := strictUnmarshal(data, &doc); err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	default:
		return Document{}, fmt.Errorf("%w: unsupported schema version %d", ErrInvalidDocument, header.SchemaVersion)
	}

	if doc.Metadata.Assumptions == nil {
		doc.Metadata.Assumptions = make([]Assumption, 0)
	}
	if err := doc.Validate(reg); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Validate checks the document shape against the registry.
// A nil registry skips the catalog id checks.
func (d Document) Validate(reg *catalog.Registry) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidDocument, fmt.Sprintf(format, args...))
	}

	if d.SchemaVersion != SchemaVersion {
		return invalid("schema version %d", d.SchemaVersion)
	}
	if !d.Rates.Valid() {
		return invalid("rates must be finite and non-negative")
	}
	if !d.Metadata.Status.IsValid() {
		return invalid("unknown status %q", d.Metadata.Status)
	}
	if !pricing.IsNonNegative(d.GrandTotal) {
		return invalid("grand total must be finite and non-negative")
	}

	seenSections := make(map[string]bool)
	seenItems := make(map[string]bool)
	for _, section := range d.Sections {
		if section.ID == "" {
			return invalid("section without id")
		}
		if seenSections[section.ID] {
			return invalid("duplicate section %q", section.ID)
		}
		seenSections[section.ID] = true
		if reg != nil && !reg.HasSection(section.ID) {
			return invalid("unknown section %q", section.ID)
		}

		for _, item := range section.Items {
			if seenItems[item.ID] {
				return invalid("duplicate item %q", item.ID)
			}
			seenItems[item.ID] = true
			if !pricing.IsNonNegative(item.Quantity) {
				return invalid("item %q quantity must be finite and non-negative", item.ID)
			}
			if !pricing.IsNonNegative(item.ProductionRate) {
				return invalid("item %q production rate must be finite and non-negative", item.ID)
			}
			if item.Kind.IsSiteSetup() && item.HasMaterialCost {
				return invalid("item %q is %s and cannot carry material cost", item.ID, item.Kind)
			}
			if reg != nil {
				owner, ok := reg.SectionOf(item.ID)
				if !ok {
					return invalid("unknown item %q", item.ID)
				}
				if owner != section.ID {
					return invalid("item %q belongs to section %q, not %q", item.ID, owner, section.ID)
				}
				if tmpl, _ := reg.Template(item.ID); item.LineItemTemplate != tmpl {
					return invalid("item %q does not match its catalog template", item.ID)
				}
			}
		}
	}

	seenSubtrades := make(map[string]bool)
	for _, sub := range d.Subtrades {
		if seenSubtrades[sub.ID] {
			return invalid("duplicate subtrade %q", sub.ID)
		}
		seenSubtrades[sub.ID] = true
		if !pricing.IsNonNegative(sub.Quantity) || !pricing.IsNonNegative(sub.UnitCost) {
			return invalid("subtrade %q amounts must be finite and non-negative", sub.ID)
		}
		if reg != nil {
			tmpl, ok := reg.Subtrade(sub.ID)
			if !ok {
				return invalid("unknown subtrade %q", sub.ID)
			}
			if sub.PhaseCode != tmpl.PhaseCode || sub.Description != tmpl.Description || sub.UnitType != tmpl.UnitType {
				return invalid("subtrade %q does not match its catalog template", sub.ID)
			}
		}
	}

	seenAssumptions := make(map[string]bool)
	for _, a := range d.Metadata.Assumptions {
		if a.ID == "" {
			return invalid("assumption without id")
		}
		if seenAssumptions[a.ID] {
			return invalid("duplicate assumption %q", a.ID)
		}
		seenAssumptions[a.ID] = true
		if !a.Severity.IsValid() {
			return invalid("assumption %q has unknown severity %q", a.ID, a.Severity)
		}
	}

	return nil
}

// ============================================================================
// Schema version 1
// ============================================================================

// Version 1 documents carried a single "markup" for subtrades and no per-item
// production rate; items were always priced at the catalog default.
type documentV1 struct {
	SchemaVersion int                    `json:"schemaVersion"`
	Rates         ratesV1                `json:"rateConfiguration"`
	Sections      []sectionV1            `json:"sections"`
	Subtrades     []catalog.SubtradeItem `json:"subtrades"`
	Metadata      Metadata               `json:"metadata"`
	GrandTotal    float64                `json:"grandTotal"`
}

type ratesV1 struct {
	CostPerLabourDay float64 `json:"costPerLabourDay"`
	MaterialPct      float64 `json:"materialPct"`
	OverheadPct      float64 `json:"overheadPct"`
	ProfitPct        float64 `json:"profitPct"`
	Markup           float64 `json:"markup"`
}

type sectionV1 struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Expanded bool         `json:"expanded"`
	Items    []lineItemV1 `json:"items"`
}

// Template fields stored alongside v1 items are ignored; the registry is authoritative.
type lineItemV1 struct {
	ID       string  `json:"id"`
	Quantity float64 `json:"quantity"`
	Active   bool    `json:"active"`
	Notes    string  `json:"notes"`
}

// migrate rebuilds each item and subtrade from its catalog template so it
// picks up the template's production rate and kind, then overlays the stored values
func (v documentV1) migrate(reg *catalog.Registry) (Document, error) {
	if reg == nil {
		return Document{}, fmt.Errorf("%w: a catalog is required to migrate version 1 documents", ErrInvalidDocument)
	}

	doc := Document{
		SchemaVersion: SchemaVersion,
		Rates: pricing.RateConfiguration{
			CostPerLabourDay:  v.Rates.CostPerLabourDay,
			MaterialPct:       v.Rates.MaterialPct,
			OverheadPct:       v.Rates.OverheadPct,
			ProfitPct:         v.Rates.ProfitPct,
			SubtradeMarkupPct: v.Rates.Markup,
		},
		Sections:   make([]catalog.Section, 0, len(v.Sections)),
		Metadata:   v.Metadata,
		GrandTotal: v.GrandTotal,
	}

	for _, s := range v.Sections {
		section := catalog.Section{ID: s.ID, Name: s.Name, Expanded: s.Expanded, Items: make([]catalog.LineItem, 0, len(s.Items))}
		for _, old := range s.Items {
			tmpl, ok := reg.Template(old.ID)
			if !ok {
				return Document{}, fmt.Errorf("%w: unknown item %q in version 1 document", ErrInvalidDocument, old.ID)
			}
			item := catalog.NewLineItem(tmpl).
				WithQuantity(old.Quantity).
				WithActive(old.Active).
				WithNotes(old.Notes)
			section.Items = append(section.Items, item)
		}
		doc.Sections = append(doc.Sections, section)
	}

	doc.Subtrades = make([]catalog.SubtradeItem, 0, len(v.Subtrades))
	for _, old := range v.Subtrades {
		tmpl, ok := reg.Subtrade(old.ID)
		if !ok {
			return Document{}, fmt.Errorf("%w: unknown subtrade %q in version 1 document", ErrInvalidDocument, old.ID)
		}
		sub := catalog.NewSubtradeItem(tmpl)
		sub.Quantity = old.Quantity
		sub.UnitCost = old.UnitCost
		sub.Active = old.Active
		sub.Notes = old.Notes
		doc.Subtrades = append(doc.Subtrades, sub)
	}

	if doc.Metadata.CatalogVersion == "" {
		doc.Metadata.CatalogVersion = reg.Version()
	}
	if doc.Metadata.Status == "" {
		doc.Metadata.Status = StatusDraft
	}
	return doc, nil
}
