package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/straye-as/bid-estimator/docs"
	"github.com/straye-as/bid-estimator/internal/catalog"
	"github.com/straye-as/bid-estimator/internal/config"
	"github.com/straye-as/bid-estimator/internal/database"
	"github.com/straye-as/bid-estimator/internal/http/handler"
	"github.com/straye-as/bid-estimator/internal/http/middleware"
	"github.com/straye-as/bid-estimator/internal/http/router"
	"github.com/straye-as/bid-estimator/internal/jobs"
	"github.com/straye-as/bid-estimator/internal/logger"
	"github.com/straye-as/bid-estimator/internal/repository"
	"github.com/straye-as/bid-estimator/internal/service"
	"github.com/straye-as/bid-estimator/internal/storage"
	"github.com/straye-as/bid-estimator/internal/takeoff"
	"go.uber.org/zap"
)

// @title Straye Bid Estimator API
// @version 1.0
// @description Demolition bid estimating: catalog-seeded estimates, pricing breakdowns, takeoff import and approval snapshots

// @contact.name API Support
// @contact.email support@straye.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if host := os.Getenv("SWAGGER_HOST"); host != "" {
		docs.SwaggerInfo.Host = host
	} else {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database with retry logic
	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	archive, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	registry, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	takeoffMapper, err := takeoff.NewMapper(registry, takeoff.DefaultRules())
	if err != nil {
		return fmt.Errorf("failed to build takeoff mapper: %w", err)
	}
	log.Info("Catalog loaded",
		zap.String("version", registry.Version()),
		zap.String("path", cfg.Catalog.Path),
	)

	// Initialize repositories
	bidRepo := repository.NewBidRepository(db)
	estimateRepo := repository.NewEstimateRepository(db)

	// Initialize services
	bidService := service.NewBidService(bidRepo, estimateRepo, registry, log, db)
	estimateService := service.NewEstimateService(estimateRepo, bidRepo, registry, takeoffMapper, archive, service.EstimateOptions{
		DefaultRates:  cfg.Pricing,
		ArchivePrefix: cfg.Storage.ArchivePrefix,
		BatchSize:     cfg.Jobs.BatchSize,
	}, log, db)

	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	bidHandler := handler.NewBidHandler(bidService, estimateService, log)
	estimateHandler := handler.NewEstimateHandler(estimateService, log)
	catalogHandler := handler.NewCatalogHandler(registry, takeoffMapper)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		rateLimiter,
		bidHandler,
		estimateHandler,
		catalogHandler,
	)

	// Initialize and start scheduler for background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.ReconcileEnabled {
		scheduler = jobs.NewScheduler(log)
		if err := jobs.RegisterReconcileJob(
			scheduler,
			estimateService,
			log,
			cfg.Jobs.ReconcileSchedule,
			cfg.Jobs.ReconcileTimeoutDuration(),
		); err != nil {
			log.Error("Failed to register reconcile job", zap.Error(err))
			scheduler = nil
		} else {
			scheduler.Start()
			log.Info("Scheduler started with reconcile job",
				zap.Strings("jobs", scheduler.GetJobNames()),
				zap.String("cron_expr", cfg.Jobs.ReconcileSchedule),
				zap.Duration("timeout", cfg.Jobs.ReconcileTimeoutDuration()),
			)
		}
	} else {
		log.Info("Estimate reconciliation disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      http.TimeoutHandler(rt.Setup(), cfg.Server.RequestTimeoutDuration(), "request timed out"),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Warn("Error closing database connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}

// loadCatalog returns the embedded catalog, or the definition at path when one is configured
func loadCatalog(path string) (*catalog.Registry, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	registry, err := catalog.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}
	return registry, nil
}
