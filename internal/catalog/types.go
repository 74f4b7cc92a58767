package catalog

// UnitType is the measurement unit a line item is quantified in
type UnitType string

const (
	UnitSF  UnitType = "SF"
	UnitLF  UnitType = "LF"
	UnitEA  UnitType = "EA"
	UnitDay UnitType = "day"
	UnitCY  UnitType = "CY"
)

// ItemKind classifies a template line inside its section
type ItemKind string

const (
	KindWork           ItemKind = "work"
	KindWaste          ItemKind = "waste"
	KindMobilization   ItemKind = "mobilization"
	KindDemobilization ItemKind = "demobilization"
)

// IsSiteSetup reports whether the kind is mobilization or demobilization.
// Site setup lines carry labour cost only.
func (k ItemKind) IsSiteSetup() bool {
	return k == KindMobilization || k == KindDemobilization
}

// LineItemTemplate is a static, catalog-defined unit of biddable work
type LineItemTemplate struct {
	ID                    string   `json:"id" yaml:"id"`
	PhaseCode             string   `json:"phaseCode" yaml:"phaseCode"`
	Description           string   `json:"description" yaml:"description"`
	UnitType              UnitType `json:"unitType" yaml:"unitType"`
	DefaultProductionRate float64  `json:"defaultProductionRate" yaml:"defaultProductionRate"`
	HasMaterialCost       bool     `json:"hasMaterialCost" yaml:"hasMaterialCost"`
	Kind                  ItemKind `json:"kind" yaml:"kind"`
}

// LineItem is a template instantiated into an estimate.
// Items are never deleted from an estimate, only zeroed or deactivated.
type LineItem struct {
	LineItemTemplate
	Quantity       float64 `json:"quantity"`
	ProductionRate float64 `json:"productionRate"`
	Active         bool    `json:"active"`
	Notes          string  `json:"notes"`
}

// NewLineItem instantiates a template with zero quantity and the default production rate
func NewLineItem(t LineItemTemplate) LineItem {
	return LineItem{
		LineItemTemplate: t,
		Quantity:         0,
		ProductionRate:   t.DefaultProductionRate,
		Active:           true,
	}
}

// Priced reports whether the item contributes to totals
func (i LineItem) Priced() bool {
	return i.Active && i.Quantity > 0
}

// WithQuantity returns a copy of the item with the quantity replaced
func (i LineItem) WithQuantity(q float64) LineItem {
	i.Quantity = q
	return i
}

// WithProductionRate returns a copy of the item with the production rate replaced
func (i LineItem) WithProductionRate(rate float64) LineItem {
	i.ProductionRate = rate
	return i
}

// WithActive returns a copy of the item with the active flag replaced
func (i LineItem) WithActive(active bool) LineItem {
	i.Active = active
	return i
}

// WithNotes returns a copy of the item with the notes replaced
func (i LineItem) WithNotes(notes string) LineItem {
	i.Notes = notes
	return i
}

// SectionTemplate groups line item templates
type SectionTemplate struct {
	ID    string             `json:"id" yaml:"id"`
	Name  string             `json:"name" yaml:"name"`
	Items []LineItemTemplate `json:"items" yaml:"items"`
}

// Section is an organizational group of line items within an estimate.
// Expanded is a UI hint with no pricing effect.
type Section struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Expanded bool       `json:"expanded"`
	Items    []LineItem `json:"items"`
}

// Clone returns a deep copy of the section
func (s Section) Clone() Section {
	out := s
	out.Items = make([]LineItem, len(s.Items))
	copy(out.Items, s.Items)
	return out
}

// ItemIndex returns the position of the item with the given id, or -1
func (s Section) ItemIndex(itemID string) int {
	for i, item := range s.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

// WithItem returns a copy of the section with the item of the same id replaced.
// The section is returned unchanged when no item has that id.
func (s Section) WithItem(item LineItem) Section {
	idx := s.ItemIndex(item.ID)
	if idx < 0 {
		return s
	}
	out := s.Clone()
	out.Items[idx] = item
	return out
}

// WithExpanded returns a copy of the section with the expanded flag replaced
func (s Section) WithExpanded(expanded bool) Section {
	out := s.Clone()
	out.Expanded = expanded
	return out
}

// SubtradeTemplate is a flat-rate, externally subcontracted scope item
type SubtradeTemplate struct {
	ID              string   `json:"id" yaml:"id"`
	PhaseCode       string   `json:"phaseCode" yaml:"phaseCode"`
	Description     string   `json:"description" yaml:"description"`
	UnitType        UnitType `json:"unitType" yaml:"unitType"`
	DefaultUnitCost float64  `json:"defaultUnitCost" yaml:"defaultUnitCost"`
}

// SubtradeItem is a subtrade instantiated into an estimate.
// It is priced as quantity x unit cost plus the subtrade markup.
type SubtradeItem struct {
	ID          string   `json:"id"`
	PhaseCode   string   `json:"phaseCode"`
	Description string   `json:"description"`
	UnitType    UnitType `json:"unitType"`
	Quantity    float64  `json:"quantity"`
	UnitCost    float64  `json:"unitCost"`
	Active      bool     `json:"active"`
	Notes       string   `json:"notes"`
}

// NewSubtradeItem instantiates a subtrade template with zero quantity
func NewSubtradeItem(t SubtradeTemplate) SubtradeItem {
	return SubtradeItem{
		ID:          t.ID,
		PhaseCode:   t.PhaseCode,
		Description: t.Description,
		UnitType:    t.UnitType,
		UnitCost:    t.DefaultUnitCost,
		Active:      true,
	}
}

// Priced reports whether the subtrade contributes to totals
func (s SubtradeItem) Priced() bool {
	return s.Active && s.Quantity > 0
}

// CloneSections deep-copies a slice of sections
func CloneSections(sections []Section) []Section {
	out := make([]Section, len(sections))
	for i, s := range sections {
		out[i] = s.Clone()
	}
	return out
}

// CloneSubtrades copies a slice of subtrade items
func CloneSubtrades(items []SubtradeItem) []SubtradeItem {
	out := make([]SubtradeItem, len(items))
	copy(out, items)
	return out
}
