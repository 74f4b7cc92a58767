// Package estimate is the persisted structured state of an estimate: rates,
// the populated catalog, subtrades and workflow metadata. Documents are
// values; every update returns a new document and never aliases the input.
package estimate

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/bid-estimator/internal/catalog"
	"github.com/straye-as/bid-estimator/internal/pricing"
	"github.com/straye-as/bid-estimator/internal/takeoff"
)

// SchemaVersion is the document version written by Encode
const SchemaVersion = 2

var (
	// ErrInvalidDocument wraps every decode and validation failure
	ErrInvalidDocument = errors.New("invalid estimate document")

	// ErrUnknownItem is returned when an update names an id that is not in the document
	ErrUnknownItem = errors.New("unknown estimate item")

	// ErrUnknownAssumption is returned when an assumption id is not in the document
	ErrUnknownAssumption = errors.New("unknown assumption")
)

// Assumption explains a pricing decision or missing data. It never affects totals.
type Assumption struct {
	ID        string    `json:"id"`
	Severity  Severity  `json:"severity"`
	Source    string    `json:"source"`
	Text      string    `json:"text"`
	Resolved  bool      `json:"resolved"`
	CreatedAt time.Time `json:"createdAt"`
}

// Metadata is the workflow and audit part of a document
type Metadata struct {
	Status         Status       `json:"status"`
	PreparedBy     string       `json:"preparedBy"`
	PreparedAt     time.Time    `json:"preparedAt"`
	Assumptions    []Assumption `json:"assumptions"`
	CatalogVersion string       `json:"catalogVersion"`
	ArchivePath    string       `json:"archivePath,omitempty"`
}

// Document is the structured estimate. GrandTotal is a snapshot of the
// engine's output at save time and is always re-derivable with Total.
type Document struct {
	SchemaVersion int                       `json:"schemaVersion"`
	Rates         pricing.RateConfiguration `json:"rateConfiguration"`
	Sections      []catalog.Section         `json:"sections"`
	Subtrades     []catalog.SubtradeItem    `json:"subtrades"`
	Metadata      Metadata                  `json:"metadata"`
	GrandTotal    float64                   `json:"grandTotal"`
}

// New seeds a draft document from the catalog defaults
func New(reg *catalog.Registry, rates pricing.RateConfiguration, preparedBy string, now time.Time) Document {
	doc := Document{
		SchemaVersion: SchemaVersion,
		Rates:         rates.Sanitized(),
		Sections:      reg.NewSections(),
		Subtrades:     reg.NewSubtrades(),
		Metadata: Metadata{
			Status:         StatusDraft,
			PreparedBy:     preparedBy,
			PreparedAt:     now.UTC(),
			Assumptions:    make([]Assumption, 0),
			CatalogVersion: reg.Version(),
		},
	}
	return doc.Refresh()
}

// Clone returns a deep copy of the document
func (d Document) Clone() Document {
	out := d
	out.Sections = catalog.CloneSections(d.Sections)
	out.Subtrades = catalog.CloneSubtrades(d.Subtrades)
	out.Metadata.Assumptions = make([]Assumption, len(d.Metadata.Assumptions))
	copy(out.Metadata.Assumptions, d.Metadata.Assumptions)
	return out
}

// Total recomputes the grand total from sections, subtrades and rates
func (d Document) Total() float64 {
	return pricing.GrandTotal(d.Sections, d.Subtrades, d.Rates)
}

// Summary prices every line of the document
func (d Document) Summary() pricing.Summary {
	return pricing.Summarize(d.Sections, d.Subtrades, d.Rates)
}

// Refresh returns a copy with the grand total snapshot recomputed
func (d Document) Refresh() Document {
	out := d.Clone()
	out.GrandTotal = out.Total()
	return out
}

// Drifted reports whether the stored snapshot no longer matches the engine
func (d Document) Drifted() bool {
	return pricing.Money(d.GrandTotal).Cmp(pricing.Money(d.Total())) != 0
}

// WithRates returns a copy priced with new rates
func (d Document) WithRates(rates pricing.RateConfiguration) Document {
	out := d.Clone()
	out.Rates = rates.Sanitized()
	return out.Refresh()
}

// ItemUpdate carries the estimator-editable fields of a line item. Nil fields are left unchanged.
type ItemUpdate struct {
	Quantity       *float64
	ProductionRate *float64
	Active         *bool
	Notes          *string
}

// UpdateItem applies an update to the line item with the given id
func (d Document) UpdateItem(itemID string, upd ItemUpdate) (Document, error) {
	out := d.Clone()
	for si, section := range out.Sections {
		idx := section.ItemIndex(itemID)
		if idx < 0 {
			continue
		}
		item := section.Items[idx]
		if upd.Quantity != nil {
			item = item.WithQuantity(pricing.NonNegative(*upd.Quantity))
		}
		if upd.ProductionRate != nil {
			item = item.WithProductionRate(pricing.NonNegative(*upd.ProductionRate))
		}
		if upd.Active != nil {
			item = item.WithActive(*upd.Active)
		}
		if upd.Notes != nil {
			item = item.WithNotes(*upd.Notes)
		}
		out.Sections[si] = section.WithItem(item)
		return out.Refresh(), nil
	}
	return d, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
}

// SubtradeUpdate carries the editable fields of a subtrade. Nil fields are left unchanged.
type SubtradeUpdate struct {
	Quantity *float64
	UnitCost *float64
	Active   *bool
	Notes    *string
}

// UpdateSubtrade applies an update to the subtrade with the given id
func (d Document) UpdateSubtrade(id string, upd SubtradeUpdate) (Document, error) {
	out := d.Clone()
	for i, item := range out.Subtrades {
		if item.ID != id {
			continue
		}
		if upd.Quantity != nil {
			item.Quantity = pricing.NonNegative(*upd.Quantity)
		}
		if upd.UnitCost != nil {
			item.UnitCost = pricing.NonNegative(*upd.UnitCost)
		}
		if upd.Active != nil {
			item.Active = *upd.Active
		}
		if upd.Notes != nil {
			item.Notes = *upd.Notes
		}
		out.Subtrades[i] = item
		return out.Refresh(), nil
	}
	return d, fmt.Errorf("%w: %s", ErrUnknownItem, id)
}

// WithAssumption returns a copy with the assumption appended. Missing ids and timestamps are filled in.
func (d Document) WithAssumption(a Assumption, now time.Time) Document {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now.UTC()
	}
	if !a.Severity.IsValid() {
		a.Severity = SeverityInfo
	}
	out := d.Clone()
	out.Metadata.Assumptions = append(out.Metadata.Assumptions, a)
	return out
}

// ResolveAssumption marks an assumption resolved
func (d Document) ResolveAssumption(id string) (Document, error) {
	out := d.Clone()
	for i, a := range out.Metadata.Assumptions {
		if a.ID == id {
			out.Metadata.Assumptions[i].Resolved = true
			return out, nil
		}
	}
	return d, fmt.Errorf("%w: %s", ErrUnknownAssumption, id)
}

// OpenAssumptions counts unresolved assumptions
func (d Document) OpenAssumptions() int {
	n := 0
	for _, a := range d.Metadata.Assumptions {
		if !a.Resolved {
			n++
		}
	}
	return n
}

// WithStatus returns a copy in the given status without checking the transition
func (d Document) WithStatus(s Status) Document {
	out := d.Clone()
	out.Metadata.Status = s
	return out
}

// ImportSource is the assumption source used for takeoff import findings
const ImportSource = "takeoff-import"

// WithImport replaces the populated catalog with a mapper result and records
// every unmapped entry and unit mismatch as a warning assumption
func (d Document) WithImport(res takeoff.Result, now time.Time) Document {
	out := d.Clone()
	out.Sections = catalog.CloneSections(res.Sections)
	out.Subtrades = catalog.CloneSubtrades(res.Subtrades)

	for _, e := range res.Unmapped {
		out = out.WithAssumption(Assumption{
			Severity: SeverityWarn,
			Source:   ImportSource,
			Text:     fmt.Sprintf("Unmapped takeoff entry %q (%g %s) was not priced", e.Description, e.Quantity, e.Unit),
		}, now)
	}
	for _, m := range res.UnitMismatches {
		out = out.WithAssumption(Assumption{
			Severity: SeverityWarn,
			Source:   ImportSource,
			Text:     fmt.Sprintf("Takeoff entry %d measured in %q but %s is priced per %s", m.Index+1, m.Unit, m.TargetID, m.Expected),
		}, now)
	}
	if res.MobilizationForced {
		out = out.WithAssumption(Assumption{
			Severity: SeverityFlag,
			Source:   ImportSource,
			Text:     "Mobilization keyword found: structural demo and flooring mobilization lines were activated",
		}, now)
	}

	return out.Refresh()
}
