package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/straye-as/bid-estimator/internal/catalog"
	"github.com/straye-as/bid-estimator/internal/domain"
	"github.com/straye-as/bid-estimator/internal/estimate"
	"github.com/straye-as/bid-estimator/internal/mapper"
	"github.com/straye-as/bid-estimator/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type BidService struct {
	bidRepo      *repository.BidRepository
	estimateRepo *repository.EstimateRepository
	store        *estimateStore
	logger       *zap.Logger
	db           *gorm.DB
}

func NewBidService(
	bidRepo *repository.BidRepository,
	estimateRepo *repository.EstimateRepository,
	registry *catalog.Registry,
	logger *zap.Logger,
	db *gorm.DB,
) *BidService {
	return &BidService{
		bidRepo:      bidRepo,
		estimateRepo: estimateRepo,
		store:        &estimateStore{estimates: estimateRepo, bids: bidRepo, registry: registry},
		logger:       logger,
		db:           db,
	}
}

func (s *BidService) Create(ctx context.Context, req *domain.CreateBidRequest) (*domain.BidDTO, error) {
	bid := &domain.Bid{
		Name:        req.Name,
		ClientName:  req.ClientName,
		SiteAddress: req.SiteAddress,
		DueDate:     req.DueDate,
		Status:      domain.BidStatusOpen,
	}

	if err := s.bidRepo.Create(ctx, bid); err != nil {
		return nil, fmt.Errorf("failed to create bid: %w", err)
	}

	s.logger.Info("Bid created",
		zap.String("bid_id", bid.ID.String()),
		zap.String("name", bid.Name),
	)

	dto := mapper.ToBidDTO(bid, nil)
	return &dto, nil
}

func (s *BidService) GetByID(ctx context.Context, id uuid.UUID) (*domain.BidDTO, error) {
	bid, err := s.bidRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, notFound(err, "bid")
	}

	ids, err := s.estimateRepo.IDsByBid(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}

	dto := mapper.ToBidDTO(bid, estimateID(ids, id))
	return &dto, nil
}

func (s *BidService) List(ctx context.Context, page, pageSize int, status domain.BidStatus) (*domain.PaginatedResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}
	if status != "" && !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown bid status %q", ErrInvalidInput, status)
	}

	bids, total, err := s.bidRepo.List(ctx, page, pageSize, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}

	bidIDs := make([]uuid.UUID, len(bids))
	for i := range bids {
		bidIDs[i] = bids[i].ID
	}
	ids, err := s.estimateRepo.IDsByBid(ctx, bidIDs)
	if err != nil {
		return nil, err
	}

	dtos := make([]domain.BidDTO, len(bids))
	for i := range bids {
		dtos[i] = mapper.ToBidDTO(&bids[i], estimateID(ids, bids[i].ID))
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Close records the bid outcome and freezes its estimate as view-only
func (s *BidService) Close(ctx context.Context, id uuid.UUID, status domain.BidStatus) (*domain.BidDTO, error) {
	if !status.IsClosed() {
		return nil, fmt.Errorf("%w: %q is not a closing status", ErrInvalidInput, status)
	}

	var bid *domain.Bid
	var estID *uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		bid, err = s.bidRepo.GetByID(ctx, tx, id)
		if err != nil {
			return notFound(err, "bid")
		}
		if bid.Status.IsClosed() {
			return fmt.Errorf("%w: bid is already %s", ErrConflict, bid.Status)
		}

		est, doc, err := s.store.loadByBid(ctx, tx, id)
		switch {
		case err == nil:
			if err := s.store.save(ctx, tx, est, doc.WithStatus(estimate.StatusViewOnly).Refresh()); err != nil {
				return err
			}
			estID = &est.ID
		case errors.Is(err, ErrNotFound):
		default:
			return err
		}

		// Re-read so the value written by the estimate save is kept
		bid, err = s.bidRepo.GetByID(ctx, tx, id)
		if err != nil {
			return notFound(err, "bid")
		}
		now := tx.NowFunc()
		bid.Status = status
		bid.ClosedAt = &now
		return s.bidRepo.Update(ctx, tx, bid)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Bid closed",
		zap.String("bid_id", id.String()),
		zap.String("status", string(status)),
		zap.Bool("estimate_frozen", estID != nil),
	)

	dto := mapper.ToBidDTO(bid, estID)
	return &dto, nil
}

func estimateID(ids map[uuid.UUID]uuid.UUID, bidID uuid.UUID) *uuid.UUID {
	if id, ok := ids[bidID]; ok {
		return &id
	}
	return nil
}
