package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/straye-as/bid-estimator/internal/config"
	"github.com/straye-as/bid-estimator/internal/database"
	"github.com/straye-as/bid-estimator/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB opens an isolated in-memory sqlite database with the schema migrated
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
	db, err := database.Open(cfg)
	require.NoError(t, err, "Failed to open sqlite test database")
	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

// CreateTestBid creates an open bid and returns it
func CreateTestBid(t *testing.T, db *gorm.DB, name string) *domain.Bid {
	t.Helper()

	bid := &domain.Bid{
		Name:       name,
		ClientName: "Test Client",
		Status:     domain.BidStatusOpen,
	}
	require.NoError(t, db.Create(bid).Error)
	return bid
}
