package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/straye-as/bid-estimator/internal/config"
	"github.com/straye-as/bid-estimator/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS_DevelopmentAllowsAllOrigins(t *testing.T) {
	cfg := &config.CORSConfig{
		AllowedOrigins: []string{},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}

	handler := middleware.CORS(cfg, "development", zap.NewNop())(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/bids", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ExplicitOrigins(t *testing.T) {
	cfg := &config.CORSConfig{
		AllowedOrigins: []string{"https://estimating.example.com"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}

	handler := middleware.CORS(cfg, "production", zap.NewNop())(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/bids", nil)
	req.Header.Set("Origin", "https://estimating.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, "https://estimating.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/bids", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ProductionWithoutOriginsDeniesAll(t *testing.T) {
	cfg := &config.CORSConfig{AllowedMethods: []string{"GET"}}

	handler := middleware.CORS(cfg, "production", zap.NewNop())(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/bids", nil)
	req.Header.Set("Origin", "https://estimating.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_AlwaysExposesAPIHeaders(t *testing.T) {
	cfg := &config.CORSConfig{
		AllowedOrigins: []string{"https://estimating.example.com"},
		AllowedMethods: []string{"GET"},
		ExposedHeaders: []string{"content-disposition", "X-Total-Count"},
	}

	handler := middleware.CORS(cfg, "production", zap.NewNop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/estimates/1/export.xlsx", nil)
	req.Header.Set("Origin", "https://estimating.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	exposed := strings.ToLower(w.Header().Get("Access-Control-Expose-Headers"))
	for _, h := range []string{"location", "x-request-id", "content-disposition", "x-total-count"} {
		assert.Contains(t, exposed, h)
	}
	assert.Equal(t, 1, strings.Count(exposed, "content-disposition"))
}

func TestCORS_AllowsRequestIDHeader(t *testing.T) {
	cfg := &config.CORSConfig{
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"Content-Type"},
	}

	handler := middleware.CORS(cfg, "development", zap.NewNop())(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/bids", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Access-Control-Request-Headers", "X-Request-ID")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), "x-request-id")
}

func TestSecurityHeaders_NoStoreOnEstimateRoutes(t *testing.T) {
	cfg := &config.SecurityConfig{
		ContentTypeNosniff: true,
		NoStorePrefixes:    []string{"/api/v1/bids", "/api/v1/estimates"},
	}
	handler := middleware.SecurityHeaders(cfg)(okHandler())

	tests := []struct {
		path    string
		noStore bool
	}{
		{"/api/v1/estimates/0b6c/pricing", true},
		{"/api/v1/estimates/0b6c/export.xlsx", true},
		{"/api/v1/bids", true},
		{"/api/v1/catalog", false},
		{"/health", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
			if tt.noStore {
				assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
			} else {
				assert.Empty(t, w.Header().Get("Cache-Control"))
			}
		})
	}
}

func TestSecurityHeaders_DefaultConfig(t *testing.T) {
	cfg := &config.SecurityConfig{
		ContentSecurityPolicy: "default-src 'self'",
		FrameOptions:          "DENY",
		ContentTypeNosniff:    true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "geolocation=()",
	}

	handler := middleware.SecurityHeaders(cfg)(okHandler())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'self'", w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "geolocation=()", w.Header().Get("Permissions-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	cfg := &config.SecurityConfig{
		EnableHSTS:            true,
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		HSTSPreload:           true,
	}

	handler := middleware.SecurityHeaders(cfg)(okHandler())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "max-age=31536000; includeSubDomains; preload", w.Header().Get("Strict-Transport-Security"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1}, zap.NewNop())
	handler := rl.LimitByIP(okHandler())

	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bids", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_LimitExceeded(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}, zap.NewNop())
	handler := rl.LimitByIP(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bids", nil)
		req.RemoteAddr = "192.168.1.10:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "60", w.Header().Get("Retry-After"))
			assert.Contains(t, w.Body.String(), `"status":429`)
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Another client has its own budget
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bids", nil)
	req.RemoteAddr = "192.168.1.11:12345"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_Whitelists(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1,
		WhitelistIPs:      []string{"10.0.0.5"},
		WhitelistPaths:    []string{"/health", "/swagger/*"},
	}, zap.NewNop())
	handler := rl.LimitByIP(okHandler())

	tests := []struct {
		name  string
		path  string
		setup func(r *http.Request)
	}{
		{name: "exact path", path: "/health"},
		{name: "prefix path", path: "/swagger/index.html"},
		{name: "remote addr", path: "/api/v1/bids", setup: func(r *http.Request) { r.RemoteAddr = "10.0.0.5:4000" }},
		{name: "forwarded for", path: "/api/v1/bids", setup: func(r *http.Request) { r.Header.Set("X-Forwarded-For", "10.0.0.5, 172.16.0.1") }},
		{name: "real ip", path: "/api/v1/bids", setup: func(r *http.Request) { r.Header.Set("X-Real-IP", "10.0.0.5") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 5; i++ {
				req := httptest.NewRequest(http.MethodGet, tt.path, nil)
				req.RemoteAddr = "192.168.50.1:1234"
				if tt.setup != nil {
					tt.setup(req)
				}
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)
				require.Equal(t, http.StatusOK, w.Code)
			}
		})
	}
}

func TestLogging_AssignsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	var seen string
	handler := middleware.Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middleware.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/bids", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(middleware.RequestIDHeader))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	assert.Equal(t, seen, entry.ContextMap()["request_id"])
	assert.Equal(t, int64(http.StatusCreated), entry.ContextMap()["status_code"])
}

func TestLogging_KeepsIncomingRequestID(t *testing.T) {
	handler := middleware.Logging(zap.NewNop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bids", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(middleware.RequestIDHeader))
}

func TestRecovery_ReturnsInternalError(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)

	handler := middleware.Recovery(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/bids", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")
	assert.Equal(t, 1, logs.FilterMessage("panic while serving request").Len())
}
