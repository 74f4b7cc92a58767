package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/straye-as/bid-estimator/internal/domain"
	"gorm.io/gorm"
)

type EstimateRepository struct {
	db *gorm.DB
}

func NewEstimateRepository(db *gorm.DB) *EstimateRepository {
	return &EstimateRepository{db: db}
}

func (r *EstimateRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *EstimateRepository) Create(ctx context.Context, tx *gorm.DB, est *domain.Estimate) error {
	return r.conn(tx).WithContext(ctx).Create(est).Error
}

func (r *EstimateRepository) Update(ctx context.Context, tx *gorm.DB, est *domain.Estimate) error {
	return r.conn(tx).WithContext(ctx).Save(est).Error
}

func (r *EstimateRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Estimate, error) {
	var est domain.Estimate
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&est).Error
	if err != nil {
		return nil, err
	}
	return &est, nil
}

func (r *EstimateRepository) GetByBidID(ctx context.Context, tx *gorm.DB, bidID uuid.UUID) (*domain.Estimate, error) {
	var est domain.Estimate
	err := r.conn(tx).WithContext(ctx).Where("bid_id = ?", bidID).First(&est).Error
	if err != nil {
		return nil, err
	}
	return &est, nil
}

// IDsByBid maps each bid id that has an estimate to that estimate's id
func (r *EstimateRepository) IDsByBid(ctx context.Context, bidIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	result := make(map[uuid.UUID]uuid.UUID, len(bidIDs))
	if len(bidIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		ID    uuid.UUID
		BidID uuid.UUID
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Estimate{}).
		Select("id, bid_id").
		Where("bid_id IN ?", bidIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list estimate ids: %w", err)
	}

	for _, row := range rows {
		result[row.BidID] = row.ID
	}
	return result, nil
}

// ForEachBatch walks every estimate in primary key order, batchSize at a time
func (r *EstimateRepository) ForEachBatch(ctx context.Context, batchSize int, fn func([]domain.Estimate) error) error {
	var batch []domain.Estimate
	result := r.db.WithContext(ctx).
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(batch)
		})
	return result.Error
}
