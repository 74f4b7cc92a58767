package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/bid-estimator/internal/catalog"
	"github.com/straye-as/bid-estimator/internal/domain"
	"github.com/straye-as/bid-estimator/internal/estimate"
	"github.com/straye-as/bid-estimator/internal/export"
	"github.com/straye-as/bid-estimator/internal/jobs"
	"github.com/straye-as/bid-estimator/internal/logger"
	"github.com/straye-as/bid-estimator/internal/mapper"
	"github.com/straye-as/bid-estimator/internal/pricing"
	"github.com/straye-as/bid-estimator/internal/repository"
	"github.com/straye-as/bid-estimator/internal/storage"
	"github.com/straye-as/bid-estimator/internal/takeoff"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EstimateOptions configures an EstimateService
type EstimateOptions struct {
	// DefaultRates seed new estimates when the request carries none
	DefaultRates pricing.RateConfiguration
	// ArchivePrefix is prepended to approval snapshot keys
	ArchivePrefix string
	// BatchSize bounds how many estimates reconciliation loads at once
	BatchSize int
}

type EstimateService struct {
	store    *estimateStore
	bidRepo  *repository.BidRepository
	registry *catalog.Registry
	mapper   *takeoff.Mapper
	archive  storage.Storage
	opts     EstimateOptions
	logger   *zap.Logger
	db       *gorm.DB
	now      func() time.Time
}

func NewEstimateService(
	estimateRepo *repository.EstimateRepository,
	bidRepo *repository.BidRepository,
	registry *catalog.Registry,
	takeoffMapper *takeoff.Mapper,
	archive storage.Storage,
	opts EstimateOptions,
	logger *zap.Logger,
	db *gorm.DB,
) *EstimateService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	return &EstimateService{
		store:    &estimateStore{estimates: estimateRepo, bids: bidRepo, registry: registry},
		bidRepo:  bidRepo,
		registry: registry,
		mapper:   takeoffMapper,
		archive:  archive,
		opts:     opts,
		logger:   logger,
		db:       db,
		now:      time.Now,
	}
}

// SetClock replaces the time source (tests)
func (s *EstimateService) SetClock(now func() time.Time) {
	s.now = now
}

// Create seeds a draft estimate for a bid from the catalog defaults
func (s *EstimateService) Create(ctx context.Context, bidID uuid.UUID, req *domain.CreateEstimateRequest) (*domain.EstimateDTO, error) {
	rates := s.opts.DefaultRates
	if req.Rates != nil {
		if !req.Rates.Valid() {
			return nil, fmt.Errorf("%w: rates must be finite and non-negative", ErrInvalidInput)
		}
		rates = *req.Rates
	}

	doc := estimate.New(s.registry, rates, req.PreparedBy, s.now())
	est := &domain.Estimate{BidID: bidID}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bid, err := s.bidRepo.GetByID(ctx, tx, bidID)
		if err != nil {
			return notFound(err, "bid")
		}
		if bid.Status.IsClosed() {
			return fmt.Errorf("%w: bid is %s", ErrReadOnly, bid.Status)
		}
		if _, err := s.store.estimates.GetByBidID(ctx, tx, bidID); err == nil {
			return fmt.Errorf("%w: bid already has an estimate", ErrConflict)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check existing estimate: %w", err)
		}
		return s.store.create(ctx, tx, est, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.WithEstimate(s.logger, est.ID, bidID).Info("Estimate created",
		zap.String("catalog_version", doc.Metadata.CatalogVersion),
	)

	dto := mapper.ToEstimateDTO(est, doc)
	return &dto, nil
}

func (s *EstimateService) GetByID(ctx context.Context, id uuid.UUID) (*domain.EstimateDTO, error) {
	est, doc, err := s.store.load(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToEstimateDTO(est, doc)
	return &dto, nil
}

func (s *EstimateService) GetByBidID(ctx context.Context, bidID uuid.UUID) (*domain.EstimateDTO, error) {
	est, doc, err := s.store.loadByBid(ctx, nil, bidID)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToEstimateDTO(est, doc)
	return &dto, nil
}

// Pricing returns the full per-line breakdown
func (s *EstimateService) Pricing(ctx context.Context, id uuid.UUID) (*domain.PricingDTO, error) {
	est, doc, err := s.store.load(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToPricingDTO(est.ID, doc)
	return &dto, nil
}

// edit loads an editable estimate, applies fn and saves the result in one transaction
func (s *EstimateService) edit(ctx context.Context, id uuid.UUID, fn func(estimate.Document) (estimate.Document, error)) (*domain.Estimate, estimate.Document, error) {
	var est *domain.Estimate
	var doc estimate.Document

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		est, doc, err = s.store.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if doc.Metadata.Status.Locked() {
			return fmt.Errorf("%w: status is %s", ErrReadOnly, doc.Metadata.Status)
		}
		doc, err = fn(doc)
		if err != nil {
			return err
		}
		return s.store.save(ctx, tx, est, doc)
	})
	if err != nil {
		return nil, estimate.Document{}, err
	}
	return est, doc, nil
}

func (s *EstimateService) editDTO(ctx context.Context, id uuid.UUID, fn func(estimate.Document) (estimate.Document, error)) (*domain.EstimateDTO, error) {
	est, doc, err := s.edit(ctx, id, fn)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToEstimateDTO(est, doc)
	return &dto, nil
}

// UpdateRates replaces the rate configuration and reprices the estimate
func (s *EstimateService) UpdateRates(ctx context.Context, id uuid.UUID, req *domain.UpdateRatesRequest) (*domain.EstimateDTO, error) {
	rates := req.ToRates()
	if !rates.Valid() {
		return nil, fmt.Errorf("%w: rates must be finite and non-negative", ErrInvalidInput)
	}
	return s.editDTO(ctx, id, func(doc estimate.Document) (estimate.Document, error) {
		return doc.WithRates(rates), nil
	})
}

// UpdateItem edits one own-forces line item
func (s *EstimateService) UpdateItem(ctx context.Context, id uuid.UUID, itemID string, req *domain.UpdateLineItemRequest) (*domain.EstimateDTO, error) {
	if !finite(req.Quantity) || !finite(req.ProductionRate) {
		return nil, fmt.Errorf("%w: amounts must be finite and non-negative", ErrInvalidInput)
	}
	return s.editDTO(ctx, id, func(doc estimate.Document) (estimate.Document, error) {
		return doc.UpdateItem(itemID, estimate.ItemUpdate{
			Quantity:       req.Quantity,
			ProductionRate: req.ProductionRate,
			Active:         req.Active,
			Notes:          req.Notes,
		})
	})
}

// UpdateSubtrade edits one subtrade line
func (s *EstimateService) UpdateSubtrade(ctx context.Context, id uuid.UUID, itemID string, req *domain.UpdateSubtradeRequest) (*domain.EstimateDTO, error) {
	if !finite(req.Quantity) || !finite(req.UnitCost) {
		return nil, fmt.Errorf("%w: amounts must be finite and non-negative", ErrInvalidInput)
	}
	return s.editDTO(ctx, id, func(doc estimate.Document) (estimate.Document, error) {
		return doc.UpdateSubtrade(itemID, estimate.SubtradeUpdate{
			Quantity: req.Quantity,
			UnitCost: req.UnitCost,
			Active:   req.Active,
			Notes:    req.Notes,
		})
	})
}

func finite(v *float64) bool {
	return v == nil || pricing.IsNonNegative(*v)
}

// AddAssumption records an estimator assumption
func (s *EstimateService) AddAssumption(ctx context.Context, id uuid.UUID, req *domain.CreateAssumptionRequest) (*domain.EstimateDTO, error) {
	if !req.Severity.IsValid() {
		return nil, fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, req.Severity)
	}
	source := req.Source
	if source == "" {
		source = "estimator"
	}
	return s.editDTO(ctx, id, func(doc estimate.Document) (estimate.Document, error) {
		return doc.WithAssumption(estimate.Assumption{
			Severity: req.Severity,
			Source:   source,
			Text:     req.Text,
		}, s.now()), nil
	})
}

// ResolveAssumption marks an assumption resolved
func (s *EstimateService) ResolveAssumption(ctx context.Context, id uuid.UUID, assumptionID string) (*domain.EstimateDTO, error) {
	return s.editDTO(ctx, id, func(doc estimate.Document) (estimate.Document, error) {
		return doc.ResolveAssumption(assumptionID)
	})
}

// Import maps takeoff entries onto a fresh catalog and replaces the estimate's sections
func (s *EstimateService) Import(ctx context.Context, id uuid.UUID, req *domain.ImportTakeoffRequest) (*domain.ImportReportDTO, error) {
	return s.importEntries(ctx, id, req.Entries, takeoff.Options{DeriveWasteHandling: req.DeriveWasteHandling})
}

// ImportFlatRate converts a flat-rate sheet to takeoff entries and imports them
func (s *EstimateService) ImportFlatRate(ctx context.Context, id uuid.UUID, req *domain.FlatRateImportRequest) (*domain.ImportReportDTO, error) {
	return s.importEntries(ctx, id, takeoff.FromFlatRate(req.Lines), takeoff.Options{DeriveWasteHandling: req.DeriveWasteHandling})
}

func (s *EstimateService) importEntries(ctx context.Context, id uuid.UUID, entries []takeoff.Entry, opts takeoff.Options) (*domain.ImportReportDTO, error) {
	for i, e := range entries {
		if !pricing.IsNonNegative(e.Quantity) || !pricing.IsNonNegative(e.UnitCost) {
			return nil, fmt.Errorf("%w: entry %d amounts must be finite and non-negative", ErrInvalidInput, i)
		}
	}

	result := s.mapper.Map(entries, opts)

	est, doc, err := s.edit(ctx, id, func(doc estimate.Document) (estimate.Document, error) {
		return doc.WithImport(result, s.now()), nil
	})
	if err != nil {
		return nil, err
	}

	log := logger.WithEstimate(s.logger, est.ID, est.BidID)
	if result.UnmappedCount() > 0 {
		log.Warn("Takeoff import left entries unmapped",
			zap.Int("unmapped_entries", result.UnmappedCount()),
			zap.Int("mapped_entries", len(result.Mapped)),
		)
	}
	log.Info("Takeoff imported",
		zap.Int("entries", len(entries)),
		zap.Int("unit_mismatches", len(result.UnitMismatches)),
		zap.Bool("mobilization_forced", result.MobilizationForced),
		zap.String("grand_total", pricing.Money(doc.GrandTotal).StringFixed(2)),
	)

	dto := mapper.ToImportReportDTO(mapper.ToEstimateDTO(est, doc), result)
	return &dto, nil
}

// Transition moves the estimate through its workflow. Approving stores a
// snapshot of the priced document in the archive.
func (s *EstimateService) Transition(ctx context.Context, id uuid.UUID, to estimate.Status) (*domain.EstimateDTO, error) {
	if !to.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}
	if to == estimate.StatusViewOnly {
		return nil, fmt.Errorf("%w: estimates become view-only when their bid closes", ErrInvalidTransition)
	}

	var est *domain.Estimate
	var doc estimate.Document
	var archived string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		est, doc, err = s.store.load(ctx, tx, id)
		if err != nil {
			return err
		}
		from := doc.Metadata.Status
		if !estimate.CanTransition(from, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}

		doc = doc.WithStatus(to).Refresh()
		if to == estimate.StatusApproved {
			key, err := s.archiveSnapshot(ctx, est, doc)
			if err != nil {
				return err
			}
			archived = key
			doc.Metadata.ArchivePath = key
		}
		return s.store.save(ctx, tx, est, doc)
	})
	if err != nil {
		s.discardSnapshot(ctx, archived)
		return nil, err
	}

	logger.WithEstimate(s.logger, est.ID, est.BidID).Info("Estimate status changed",
		zap.String("status", string(to)),
		zap.String("archive_path", doc.Metadata.ArchivePath),
	)

	dto := mapper.ToEstimateDTO(est, doc)
	return &dto, nil
}

// approvalSnapshot is the archived form of an approved estimate
type approvalSnapshot struct {
	EstimateID uuid.UUID         `json:"estimateId"`
	BidID      uuid.UUID         `json:"bidId"`
	ApprovedAt string            `json:"approvedAt"`
	Document   estimate.Document `json:"document"`
	Summary    pricing.Summary   `json:"summary"`
}

func (s *EstimateService) archiveSnapshot(ctx context.Context, est *domain.Estimate, doc estimate.Document) (string, error) {
	if s.archive == nil {
		s.logger.Warn("No archive storage configured, approval snapshot skipped",
			zap.String("estimate_id", est.ID.String()))
		return "", nil
	}

	now := s.now().UTC()
	data, err := json.Marshal(approvalSnapshot{
		EstimateID: est.ID,
		BidID:      est.BidID,
		ApprovedAt: now.Format(time.RFC3339),
		Document:   doc,
		Summary:    doc.Summary(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode approval snapshot: %w", err)
	}

	key := path.Join(s.opts.ArchivePrefix, est.BidID.String(), est.ID.String(),
		fmt.Sprintf("approved-%s.json", now.Format("20060102T150405Z")))
	if _, err := s.archive.Put(ctx, key, "application/json", bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to archive approval snapshot: %w", err)
	}
	return key, nil
}

// discardSnapshot removes a snapshot whose approval was rolled back
func (s *EstimateService) discardSnapshot(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.archive.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Error("Failed to remove approval snapshot after rollback",
			zap.String("archive_path", key),
			zap.Error(err))
	}
}

// Export renders the estimate breakdown as an XLSX workbook
func (s *EstimateService) Export(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	est, doc, err := s.store.load(ctx, nil, id)
	if err != nil {
		return nil, "", err
	}
	bid, err := s.bidRepo.GetByID(ctx, nil, est.BidID)
	if err != nil {
		return nil, "", notFound(err, "bid")
	}

	data, err := export.Workbook(export.Estimate{
		BidName:    bid.Name,
		ClientName: bid.ClientName,
		PreparedBy: doc.Metadata.PreparedBy,
		Status:     string(doc.Metadata.Status),
		Rates:      doc.Rates,
		Summary:    doc.Summary(),
		ExportedAt: s.now(),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to export estimate: %w", err)
	}

	filename := fmt.Sprintf("estimate-%s.xlsx", est.ID.String()[:8])
	return data, filename, nil
}

// Reconcile recomputes every stored grand total and rewrites the ones that drifted
func (s *EstimateService) Reconcile(ctx context.Context) (jobs.ReconcileResult, error) {
	var result jobs.ReconcileResult

	err := s.store.estimates.ForEachBatch(ctx, s.opts.BatchSize, func(batch []domain.Estimate) error {
		for i := range batch {
			result.Checked++
			repaired, err := s.reconcileOne(ctx, &batch[i])
			if err != nil {
				result.Failed++
				s.logger.Error("Failed to reconcile estimate",
					zap.String("estimate_id", batch[i].ID.String()),
					zap.Error(err),
				)
				continue
			}
			if repaired {
				result.Repaired++
			}
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to reconcile estimates: %w", err)
	}
	return result, nil
}

func (s *EstimateService) reconcileOne(ctx context.Context, est *domain.Estimate) (bool, error) {
	_, doc, err := s.store.decode(est)
	if err != nil {
		return false, err
	}

	want := pricing.Money(doc.Total())
	if !doc.Drifted() && est.GrandTotal.Equal(want) {
		return false, nil
	}

	logger.WithEstimate(s.logger, est.ID, est.BidID).Warn("Estimate grand total drifted, rewriting snapshot",
		zap.String("stored", est.GrandTotal.StringFixed(2)),
		zap.String("recomputed", want.StringFixed(2)),
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.store.save(ctx, tx, est, doc.Refresh())
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// RunReconcile reconciles on demand and reports the counts
func (s *EstimateService) RunReconcile(ctx context.Context) (*domain.ReconcileResultDTO, error) {
	result, err := s.Reconcile(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.ReconcileResultDTO{
		Checked:  result.Checked,
		Repaired: result.Repaired,
		Failed:   result.Failed,
	}, nil
}
