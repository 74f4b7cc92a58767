package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/bid-estimator/internal/domain"
	"gorm.io/gorm"
)

type BidRepository struct {
	db *gorm.DB
}

func NewBidRepository(db *gorm.DB) *BidRepository {
	return &BidRepository{db: db}
}

func (r *BidRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *BidRepository) Create(ctx context.Context, bid *domain.Bid) error {
	return r.db.WithContext(ctx).Create(bid).Error
}

func (r *BidRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Bid, error) {
	var bid domain.Bid
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&bid).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *BidRepository) Update(ctx context.Context, tx *gorm.DB, bid *domain.Bid) error {
	return r.conn(tx).WithContext(ctx).Save(bid).Error
}

// List returns a page of bids, newest first, optionally filtered by status
func (r *BidRepository) List(ctx context.Context, page, pageSize int, status domain.BidStatus) ([]domain.Bid, int64, error) {
	var bids []domain.Bid
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Bid{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&bids).Error

	return bids, total, err
}

// UpdateValue sets the bid headline value from its estimate's grand total snapshot
func (r *BidRepository) UpdateValue(ctx context.Context, tx *gorm.DB, id uuid.UUID, value decimal.Decimal) error {
	result := r.conn(tx).WithContext(ctx).
		Model(&domain.Bid{}).
		Where("id = ?", id).
		Update("value", value)
	if result.Error != nil {
		return fmt.Errorf("failed to update bid value: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
