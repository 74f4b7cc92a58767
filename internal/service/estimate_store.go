package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/straye-as/bid-estimator/internal/catalog"
	"github.com/straye-as/bid-estimator/internal/domain"
	"github.com/straye-as/bid-estimator/internal/estimate"
	"github.com/straye-as/bid-estimator/internal/pricing"
	"github.com/straye-as/bid-estimator/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// estimateStore keeps the estimate row, its document and the parent bid's
// value in step. Every write goes through save.
type estimateStore struct {
	estimates *repository.EstimateRepository
	bids      *repository.BidRepository
	registry  *catalog.Registry
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

func (st *estimateStore) load(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Estimate, estimate.Document, error) {
	est, err := st.estimates.GetByID(ctx, tx, id)
	if err != nil {
		return nil, estimate.Document{}, notFound(err, "estimate")
	}
	return st.decode(est)
}

func (st *estimateStore) loadByBid(ctx context.Context, tx *gorm.DB, bidID uuid.UUID) (*domain.Estimate, estimate.Document, error) {
	est, err := st.estimates.GetByBidID(ctx, tx, bidID)
	if err != nil {
		return nil, estimate.Document{}, notFound(err, "estimate")
	}
	return st.decode(est)
}

func (st *estimateStore) decode(est *domain.Estimate) (*domain.Estimate, estimate.Document, error) {
	doc, err := estimate.Decode(est.Document, st.registry)
	if err != nil {
		return nil, estimate.Document{}, fmt.Errorf("failed to decode estimate %s: %w", est.ID, err)
	}
	return est, doc, nil
}

// apply copies the document and its denormalized columns onto the row
func apply(est *domain.Estimate, doc estimate.Document) error {
	data, err := estimate.Encode(doc)
	if err != nil {
		return err
	}
	est.Status = doc.Metadata.Status
	est.PreparedBy = doc.Metadata.PreparedBy
	est.PreparedAt = doc.Metadata.PreparedAt
	est.SchemaVersion = estimate.SchemaVersion
	est.CatalogVersion = doc.Metadata.CatalogVersion
	est.ArchivePath = doc.Metadata.ArchivePath
	est.Document = datatypes.JSON(data)
	est.GrandTotal = pricing.Money(doc.GrandTotal)
	return nil
}

// save writes the document and mirrors its grand total onto the bid
func (st *estimateStore) save(ctx context.Context, tx *gorm.DB, est *domain.Estimate, doc estimate.Document) error {
	if err := apply(est, doc); err != nil {
		return err
	}
	if err := st.estimates.Update(ctx, tx, est); err != nil {
		return fmt.Errorf("failed to save estimate: %w", err)
	}
	if err := st.bids.UpdateValue(ctx, tx, est.BidID, est.GrandTotal); err != nil {
		return fmt.Errorf("failed to update bid value: %w", err)
	}
	return nil
}

// create inserts a new estimate row for the document
func (st *estimateStore) create(ctx context.Context, tx *gorm.DB, est *domain.Estimate, doc estimate.Document) error {
	if err := apply(est, doc); err != nil {
		return err
	}
	if err := st.estimates.Create(ctx, tx, est); err != nil {
		return fmt.Errorf("failed to create estimate: %w", err)
	}
	if err := st.bids.UpdateValue(ctx, tx, est.BidID, est.GrandTotal); err != nil {
		return fmt.Errorf("failed to update bid value: %w", err)
	}
	return nil
}
