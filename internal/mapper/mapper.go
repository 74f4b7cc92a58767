package mapper

import (
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/bid-estimator/internal/catalog"
	"github.com/straye-as/bid-estimator/internal/domain"
	"github.com/straye-as/bid-estimator/internal/estimate"
	"github.com/straye-as/bid-estimator/internal/pricing"
	"github.com/straye-as/bid-estimator/internal/takeoff"
)

const timestampFormat = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

// ToBidDTO converts Bid to BidDTO
func ToBidDTO(bid *domain.Bid, estimateID *uuid.UUID) domain.BidDTO {
	dto := domain.BidDTO{
		ID:          bid.ID,
		Name:        bid.Name,
		ClientName:  bid.ClientName,
		SiteAddress: bid.SiteAddress,
		Status:      bid.Status,
		Value:       bid.Value.InexactFloat64(),
		EstimateID:  estimateID,
		CreatedAt:   formatTime(bid.CreatedAt),
		UpdatedAt:   formatTime(bid.UpdatedAt),
	}

	if bid.DueDate != nil {
		dto.DueDate = formatTime(*bid.DueDate)
	}
	if bid.ClosedAt != nil {
		dto.ClosedAt = formatTime(*bid.ClosedAt)
	}

	return dto
}

// ToEstimateDTO converts an Estimate record and its decoded document to EstimateDTO
func ToEstimateDTO(e *domain.Estimate, doc estimate.Document) domain.EstimateDTO {
	return domain.EstimateDTO{
		ID:              e.ID,
		BidID:           e.BidID,
		Status:          doc.Metadata.Status,
		NextStatuses:    estimate.NextStatuses(doc.Metadata.Status),
		PreparedBy:      doc.Metadata.PreparedBy,
		PreparedAt:      formatTime(doc.Metadata.PreparedAt),
		SchemaVersion:   doc.SchemaVersion,
		CatalogVersion:  doc.Metadata.CatalogVersion,
		Rates:           doc.Rates,
		Sections:        doc.Sections,
		Subtrades:       doc.Subtrades,
		Assumptions:     doc.Metadata.Assumptions,
		OpenAssumptions: doc.OpenAssumptions(),
		GrandTotal:      pricing.Money(doc.GrandTotal).InexactFloat64(),
		ArchivePath:     doc.Metadata.ArchivePath,
		CreatedAt:       formatTime(e.CreatedAt),
		UpdatedAt:       formatTime(e.UpdatedAt),
	}
}

// ToPricingDTO prices every line of a document
func ToPricingDTO(id uuid.UUID, doc estimate.Document) domain.PricingDTO {
	return domain.PricingDTO{
		EstimateID: id,
		Rates:      doc.Rates,
		Summary:    doc.Summary(),
	}
}

// ToImportReportDTO combines the updated estimate with the mapper result
func ToImportReportDTO(est domain.EstimateDTO, res takeoff.Result) domain.ImportReportDTO {
	return domain.ImportReportDTO{
		Estimate:           est,
		Mapped:             res.Mapped,
		MappedCount:        len(res.Mapped),
		Unmapped:           res.Unmapped,
		UnmappedCount:      res.UnmappedCount(),
		UnitMismatches:     res.UnitMismatches,
		MobilizationForced: res.MobilizationForced,
	}
}

// ToCatalogDTO converts the template registry to CatalogDTO
func ToCatalogDTO(reg *catalog.Registry) domain.CatalogDTO {
	return domain.CatalogDTO{
		Version:   reg.Version(),
		Sections:  reg.SectionTemplates(),
		Subtrades: reg.SubtradeTemplates(),
	}
}
