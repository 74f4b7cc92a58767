package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/bid-estimator/internal/estimate"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns an id so the same models work on postgres and sqlite
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BidStatus represents the commercial outcome of a bid
type BidStatus string

const (
	BidStatusOpen  BidStatus = "open"
	BidStatusWon   BidStatus = "won"
	BidStatusLost  BidStatus = "lost"
	BidStatusNoBid BidStatus = "no_bid"
)

// IsValid checks if the bid status is valid
func (s BidStatus) IsValid() bool {
	switch s {
	case BidStatusOpen, BidStatusWon, BidStatusLost, BidStatusNoBid:
		return true
	}
	return false
}

// IsClosed reports whether the bid has an outcome
func (s BidStatus) IsClosed() bool {
	return s == BidStatusWon || s == BidStatusLost || s == BidStatusNoBid
}

// Bid is a tender the contractor is pricing. Value always mirrors the
// grand total snapshot of its estimate.
type Bid struct {
	BaseModel
	Name        string          `gorm:"type:varchar(200);not null;index"`
	ClientName  string          `gorm:"type:varchar(200);not null;column:client_name"`
	SiteAddress string          `gorm:"type:varchar(500);column:site_address"`
	DueDate     *time.Time      `gorm:"column:due_date"`
	Status      BidStatus       `gorm:"type:varchar(50);not null;default:'open';index"`
	Value       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	ClosedAt    *time.Time      `gorm:"column:closed_at"`
}

// Estimate is the persisted estimate record for a bid. Document holds the
// versioned JSON document; the remaining columns are denormalized from it
// for listing and reconciliation.
type Estimate struct {
	BaseModel
	BidID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex;column:bid_id"`
	Status         estimate.Status `gorm:"type:varchar(50);not null;default:'draft';index"`
	PreparedBy     string          `gorm:"type:varchar(200);column:prepared_by"`
	PreparedAt     time.Time       `gorm:"column:prepared_at"`
	SchemaVersion  int             `gorm:"not null;column:schema_version"`
	CatalogVersion string          `gorm:"type:varchar(50);column:catalog_version"`
	Document       datatypes.JSON  `gorm:"not null"`
	GrandTotal     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0;column:grand_total"`
	ArchivePath    string          `gorm:"type:varchar(500);column:archive_path"`
}
