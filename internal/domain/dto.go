package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/bid-estimator/internal/catalog"
	"github.com/straye-as/bid-estimator/internal/estimate"
	"github.com/straye-as/bid-estimator/internal/pricing"
	"github.com/straye-as/bid-estimator/internal/takeoff"
)

// DTOs for API responses

type BidDTO struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	ClientName  string     `json:"clientName"`
	SiteAddress string     `json:"siteAddress,omitempty"`
	DueDate     string     `json:"dueDate,omitempty"` // ISO 8601
	Status      BidStatus  `json:"status"`
	Value       float64    `json:"value"`
	ClosedAt    string     `json:"closedAt,omitempty"` // ISO 8601
	EstimateID  *uuid.UUID `json:"estimateId,omitempty"`
	CreatedAt   string     `json:"createdAt"` // ISO 8601
	UpdatedAt   string     `json:"updatedAt"` // ISO 8601
}

type EstimateDTO struct {
	ID              uuid.UUID                 `json:"id"`
	BidID           uuid.UUID                 `json:"bidId"`
	Status          estimate.Status           `json:"status"`
	NextStatuses    []estimate.Status         `json:"nextStatuses"`
	PreparedBy      string                    `json:"preparedBy"`
	PreparedAt      string                    `json:"preparedAt"` // ISO 8601
	SchemaVersion   int                       `json:"schemaVersion"`
	CatalogVersion  string                    `json:"catalogVersion"`
	Rates           pricing.RateConfiguration `json:"rateConfiguration"`
	Sections        []catalog.Section         `json:"sections"`
	Subtrades       []catalog.SubtradeItem    `json:"subtrades"`
	Assumptions     []estimate.Assumption     `json:"assumptions"`
	OpenAssumptions int                       `json:"openAssumptions"`
	GrandTotal      float64                   `json:"grandTotal"`
	ArchivePath     string                    `json:"archivePath,omitempty"`
	CreatedAt       string                    `json:"createdAt"` // ISO 8601
	UpdatedAt       string                    `json:"updatedAt"` // ISO 8601
}

// PricingDTO is the full priced breakdown of an estimate
type PricingDTO struct {
	EstimateID uuid.UUID                 `json:"estimateId"`
	Rates      pricing.RateConfiguration `json:"rateConfiguration"`
	Summary    pricing.Summary           `json:"summary"`
}

// ImportReportDTO describes what a takeoff import did to an estimate
type ImportReportDTO struct {
	Estimate           EstimateDTO            `json:"estimate"`
	Mapped             []takeoff.Mapping      `json:"mapped"`
	MappedCount        int                    `json:"mappedCount"`
	Unmapped           []takeoff.Entry        `json:"unmapped"`
	UnmappedCount      int                    `json:"unmappedCount"`
	UnitMismatches     []takeoff.UnitMismatch `json:"unitMismatches"`
	MobilizationForced bool                   `json:"mobilizationForced"`
}

// CatalogDTO exposes the template registry
type CatalogDTO struct {
	Version   string                     `json:"version"`
	Sections  []catalog.SectionTemplate  `json:"sections"`
	Subtrades []catalog.SubtradeTemplate `json:"subtrades"`
}

// ReconcileResultDTO summarizes a grand total reconciliation run
type ReconcileResultDTO struct {
	Checked  int `json:"checked"`
	Repaired int `json:"repaired"`
	Failed   int `json:"failed"`
}

// PaginatedResponse wraps list responses
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// Request DTOs

type CreateBidRequest struct {
	Name        string     `json:"name" validate:"required,max=200"`
	ClientName  string     `json:"clientName" validate:"required,max=200"`
	SiteAddress string     `json:"siteAddress,omitempty" validate:"max=500"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

type CloseBidRequest struct {
	Status BidStatus `json:"status" validate:"required,oneof=won lost no_bid"`
}

type CreateEstimateRequest struct {
	PreparedBy string                     `json:"preparedBy" validate:"required,max=200"`
	Rates      *pricing.RateConfiguration `json:"rateConfiguration,omitempty"`
}

type UpdateRatesRequest struct {
	CostPerLabourDay  float64 `json:"costPerLabourDay" validate:"gte=0"`
	MaterialPct       float64 `json:"materialPct" validate:"gte=0"`
	OverheadPct       float64 `json:"overheadPct" validate:"gte=0"`
	ProfitPct         float64 `json:"profitPct" validate:"gte=0"`
	SubtradeMarkupPct float64 `json:"subtradeMarkupPct" validate:"gte=0"`
}

// ToRates converts the request into a rate configuration
func (r UpdateRatesRequest) ToRates() pricing.RateConfiguration {
	return pricing.RateConfiguration{
		CostPerLabourDay:  r.CostPerLabourDay,
		MaterialPct:       r.MaterialPct,
		OverheadPct:       r.OverheadPct,
		ProfitPct:         r.ProfitPct,
		SubtradeMarkupPct: r.SubtradeMarkupPct,
	}
}

type UpdateLineItemRequest struct {
	Quantity       *float64 `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	ProductionRate *float64 `json:"productionRate,omitempty" validate:"omitempty,gte=0"`
	Active         *bool    `json:"active,omitempty"`
	Notes          *string  `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type UpdateSubtradeRequest struct {
	Quantity *float64 `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	UnitCost *float64 `json:"unitCost,omitempty" validate:"omitempty,gte=0"`
	Active   *bool    `json:"active,omitempty"`
	Notes    *string  `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type CreateAssumptionRequest struct {
	Severity estimate.Severity `json:"severity" validate:"required,oneof=info warn flag"`
	Source   string            `json:"source,omitempty" validate:"max=100"`
	Text     string            `json:"text" validate:"required,max=2000"`
}

type ImportTakeoffRequest struct {
	Entries             []takeoff.Entry `json:"entries" validate:"required,min=1,dive"`
	DeriveWasteHandling bool            `json:"deriveWasteHandling,omitempty"`
}

type FlatRateImportRequest struct {
	Lines               []takeoff.FlatRateLine `json:"lines" validate:"required,min=1,dive"`
	DeriveWasteHandling bool                   `json:"deriveWasteHandling,omitempty"`
}

type TransitionEstimateRequest struct {
	Status estimate.Status `json:"status" validate:"required"`
}
