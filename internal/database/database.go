package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/straye-as/bid-estimator/internal/config"
	"github.com/straye-as/bid-estimator/internal/domain"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
	healthTimeout   = 5 * time.Second
)

// NewDatabase creates a new database connection, retrying while the server comes up
func NewDatabase(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err := Open(cfg)
		if err == nil {
			log.Info("Database connected",
				zap.String("driver", cfg.Driver),
				zap.Int("attempt", attempt),
			)
			if cfg.AutoMigrate {
				if err := AutoMigrate(db); err != nil {
					return nil, fmt.Errorf("failed to auto-migrate: %w", err)
				}
				log.Info("Database schema auto-migrated")
			}
			return db, nil
		}
		lastErr = err
		log.Warn("Database connection failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", connectAttempts),
			zap.Error(err),
		)
		if attempt < connectAttempts {
			time.Sleep(time.Duration(attempt) * connectBackoff)
		}
	}
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connectAttempts, lastErr)
}

// Open opens a single connection using the configured driver
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres, "":
		dialector = postgres.Open(cfg.ConnectionString())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// A single writer avoids "database is locked" on sqlite
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// AutoMigrate runs automatic migrations (development and tests only)
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Bid{},
		&domain.Estimate{},
	)
}

// HealthCheck pings the database
func HealthCheck(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// HealthCheckWithStats pings the database and returns pool statistics
func HealthCheckWithStats(db *gorm.DB) (sql.DBStats, error) {
	if err := HealthCheck(db); err != nil {
		return sql.DBStats{}, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return sql.DBStats{}, fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Stats(), nil
}
