package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/straye-as/bid-estimator/internal/config"
)

type header struct {
	name, value string
}

// SecurityHeaders returns a middleware that adds security headers to responses.
// Paths under cfg.NoStorePrefixes also get Cache-Control: no-store so priced
// estimates and exported workbooks are never served from a shared cache.
func SecurityHeaders(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	static := staticSecurityHeaders(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, hdr := range static {
				h.Set(hdr.name, hdr.value)
			}
			if hasAnyPrefix(r.URL.Path, cfg.NoStorePrefixes) {
				h.Set("Cache-Control", "no-store")
			}

			// Remove headers that leak server information
			h.Del("X-Powered-By")
			h.Del("Server")

			next.ServeHTTP(w, r)
		})
	}
}

// staticSecurityHeaders resolves the request-independent headers once; empty values are skipped
func staticSecurityHeaders(cfg *config.SecurityConfig) []header {
	var out []header
	add := func(name, value string) {
		if value != "" {
			out = append(out, header{name: name, value: value})
		}
	}

	if cfg.ContentTypeNosniff {
		add("X-Content-Type-Options", "nosniff")
	}
	add("X-Frame-Options", cfg.FrameOptions)
	add("Content-Security-Policy", cfg.ContentSecurityPolicy)
	add("Referrer-Policy", cfg.ReferrerPolicy)
	add("Permissions-Policy", cfg.PermissionsPolicy)

	if cfg.EnableHSTS {
		hsts := fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hsts += "; preload"
		}
		add("Strict-Transport-Security", hsts)
	}
	return out
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
