package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/bid-estimator/internal/config"
	"github.com/straye-as/bid-estimator/internal/database"
	"github.com/straye-as/bid-estimator/internal/http/handler"
	"github.com/straye-as/bid-estimator/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/straye-as/bid-estimator/docs" // Import registered swagger docs
)

type Router struct {
	cfg             *config.Config
	logger          *zap.Logger
	db              *gorm.DB
	rateLimiter     *middleware.RateLimiter
	bidHandler      *handler.BidHandler
	estimateHandler *handler.EstimateHandler
	catalogHandler  *handler.CatalogHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	rateLimiter *middleware.RateLimiter,
	bidHandler *handler.BidHandler,
	estimateHandler *handler.EstimateHandler,
	catalogHandler *handler.CatalogHandler,
) *Router {
	return &Router{
		cfg:             cfg,
		logger:          logger,
		db:              db,
		rateLimiter:     rateLimiter,
		bidHandler:      bidHandler,
		estimateHandler: estimateHandler,
		catalogHandler:  catalogHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
				"max_idle_closed":      stats.MaxIdleClosed,
				"max_lifetime_closed":  stats.MaxLifetimeClosed,
			},
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		status, code := "healthy", http.StatusOK

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			status, code = "unhealthy", http.StatusServiceUnavailable
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		writeJSON(w, code, map[string]interface{}{
			"status": status,
			"checks": checks,
		})
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", rt.catalogHandler.Get)
			r.Get("/takeoff-rules", rt.catalogHandler.Rules)
		})

		// Bids
		r.Route("/bids", func(r chi.Router) {
			r.Get("/", rt.bidHandler.List)
			r.Post("/", rt.bidHandler.Create)
			r.Get("/{id}", rt.bidHandler.GetByID)
			r.Post("/{id}/close", rt.bidHandler.Close)
			r.Get("/{id}/estimate", rt.bidHandler.GetEstimate)
			r.Post("/{id}/estimate", rt.bidHandler.CreateEstimate)
		})

		// Estimates
		r.Route("/estimates/{id}", func(r chi.Router) {
			r.Get("/", rt.estimateHandler.GetByID)
			r.Get("/pricing", rt.estimateHandler.Pricing)
			r.Get("/export.xlsx", rt.estimateHandler.Export)
			r.Put("/rates", rt.estimateHandler.UpdateRates)
			r.Put("/items/{itemId}", rt.estimateHandler.UpdateItem)
			r.Put("/subtrades/{itemId}", rt.estimateHandler.UpdateSubtrade)
			r.Post("/assumptions", rt.estimateHandler.AddAssumption)
			r.Put("/assumptions/{assumptionId}/resolve", rt.estimateHandler.ResolveAssumption)
			r.Post("/import", rt.estimateHandler.Import)
			r.Post("/import/flat-rate", rt.estimateHandler.ImportFlatRate)
			r.Post("/transition", rt.estimateHandler.Transition)
		})

		r.Post("/maintenance/reconcile", rt.estimateHandler.Reconcile)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
