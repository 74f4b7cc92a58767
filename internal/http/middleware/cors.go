package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
	"github.com/straye-as/bid-estimator/internal/config"
	"go.uber.org/zap"
)

// exposedHeaders are set by the bid and estimate handlers and must stay
// readable by browser clients: Location on create, the request id, and the
// workbook filename on export.
var exposedHeaders = []string{"Location", RequestIDHeader, "Content-Disposition"}

// CORS returns a CORS middleware configured from the application config.
// Configured headers extend the API's own; they never replace them.
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	origins, originFunc := originPolicy(cfg.AllowedOrigins, environment, logger)

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowOriginFunc:  originFunc,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   mergeHeaders(cfg.AllowedHeaders, RequestIDHeader),
		ExposedHeaders:   mergeHeaders(cfg.ExposedHeaders, exposedHeaders...),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})
}

// originPolicy returns either an explicit origin list or a matcher func
func originPolicy(origins []string, environment string, logger *zap.Logger) ([]string, func(*http.Request, string) bool) {
	anyOrigin := func(_ *http.Request, origin string) bool {
		return origin != ""
	}

	switch {
	case slices.Contains(origins, "*"):
		if !isDevelopment(environment) {
			logger.Warn("CORS configured with wildcard origin in non-development environment",
				zap.String("environment", environment))
		}
		return nil, anyOrigin

	case len(origins) > 0:
		logger.Info("CORS configured with explicit origins",
			zap.Strings("origins", origins))
		return origins, nil

	case isDevelopment(environment):
		logger.Info("CORS configured to allow all origins in development mode")
		return nil, anyOrigin

	default:
		// An empty AllowedOrigins means "*" to go-chi/cors, so deny through the func
		logger.Warn("CORS configured with no allowed origins - all cross-origin requests will be denied",
			zap.String("environment", environment))
		return nil, func(*http.Request, string) bool { return false }
	}
}

func isDevelopment(environment string) bool {
	switch environment {
	case "development", "local", "test", "":
		return true
	default:
		return false
	}
}

// mergeHeaders appends required headers that are not already configured,
// comparing canonical header names
func mergeHeaders(configured []string, required ...string) []string {
	out := make([]string, 0, len(configured)+len(required))
	seen := make(map[string]bool, cap(out))
	for _, list := range [][]string{configured, required} {
		for _, h := range list {
			key := http.CanonicalHeaderKey(h)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, h)
		}
	}
	return out
}
