package mapper_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/bid-estimator/internal/catalog"
	"github.com/straye-as/bid-estimator/internal/domain"
	"github.com/straye-as/bid-estimator/internal/estimate"
	"github.com/straye-as/bid-estimator/internal/mapper"
	"github.com/straye-as/bid-estimator/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBidDTO(t *testing.T) {
	created := time.Date(2026, 3, 2, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	estID := uuid.New()
	bid := &domain.Bid{
		BaseModel:  domain.BaseModel{ID: uuid.New(), CreatedAt: created, UpdatedAt: created},
		Name:       "Library ceiling removal",
		ClientName: "City Council",
		DueDate:    &due,
		Status:     domain.BidStatusOpen,
		Value:      decimal.RequireFromString("1234.56"),
	}

	dto := mapper.ToBidDTO(bid, &estID)

	assert.Equal(t, bid.ID, dto.ID)
	assert.Equal(t, 1234.56, dto.Value)
	assert.Equal(t, "2026-03-02T08:30:00Z", dto.CreatedAt)
	assert.Equal(t, "2026-04-01T00:00:00Z", dto.DueDate)
	assert.Empty(t, dto.ClosedAt)
	require.NotNil(t, dto.EstimateID)
	assert.Equal(t, estID, *dto.EstimateID)
}

func TestToEstimateDTO(t *testing.T) {
	reg := catalog.Default()
	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	doc := estimate.New(reg, pricing.RateConfiguration{CostPerLabourDay: 296, MaterialPct: 18, OverheadPct: 12, ProfitPct: 30, SubtradeMarkupPct: 20}, "estimator", now)
	doc = doc.WithAssumption(estimate.Assumption{Severity: estimate.SeverityFlag, Text: "Asbestos survey pending"}, now)

	rec := &domain.Estimate{BaseModel: domain.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}, BidID: uuid.New()}
	dto := mapper.ToEstimateDTO(rec, doc)

	assert.Equal(t, rec.ID, dto.ID)
	assert.Equal(t, rec.BidID, dto.BidID)
	assert.Equal(t, estimate.StatusDraft, dto.Status)
	assert.Equal(t, estimate.NextStatuses(estimate.StatusDraft), dto.NextStatuses)
	assert.Equal(t, 1, dto.OpenAssumptions)
	assert.Equal(t, reg.Version(), dto.CatalogVersion)
	assert.Equal(t, "2026-03-02T09:30:00Z", dto.PreparedAt)
}

func TestToCatalogDTO(t *testing.T) {
	reg := catalog.Default()
	dto := mapper.ToCatalogDTO(reg)

	assert.Equal(t, reg.Version(), dto.Version)
	assert.Equal(t, reg.SectionTemplates(), dto.Sections)
	assert.Equal(t, reg.SubtradeTemplates(), dto.Subtrades)
}
