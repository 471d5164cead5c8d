package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins lists the storefront origins allowed to call the API.
	// "*" allows all origins and is only honoured in development.
	AllowedOrigins []string

	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string

	// MaxAge is how long (in seconds) browsers may cache a preflight answer.
	MaxAge int

	AllowCredentials bool

	Environment string
}

// DefaultCORSConfig returns a permissive configuration for local development.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Correlation-ID", HeaderUserID, HeaderUserRole, "X-Confirm", "Idempotency-Key"},
		ExposedHeaders: []string{"X-Correlation-ID"},
		MaxAge:         3600,
		Environment:    "development",
	}
}

type corsPolicy struct {
	anyOrigin   bool
	origins     map[string]bool
	credentials bool

	methods string
	headers string
	exposed string
	maxAge  string
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	def := DefaultCORSConfig()
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = def.AllowedMethods
	}
	if len(cfg.AllowedHeaders) == 0 {
		cfg.AllowedHeaders = def.AllowedHeaders
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}

	p := corsPolicy{
		anyOrigin:   slices.Contains(cfg.AllowedOrigins, "*") && cfg.Environment == "development",
		origins:     make(map[string]bool, len(cfg.AllowedOrigins)),
		credentials: cfg.AllowCredentials,
		methods:     strings.Join(cfg.AllowedMethods, ", "),
		headers:     strings.Join(cfg.AllowedHeaders, ", "),
		exposed:     strings.Join(cfg.ExposedHeaders, ", "),
		maxAge:      strconv.Itoa(cfg.MaxAge),
	}
	for _, o := range cfg.AllowedOrigins {
		if o != "*" {
			p.origins[o] = true
		}
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or ""
// when the origin may not call the API. Credentialed requests never get "*".
func (p corsPolicy) allowOrigin(origin string) string {
	switch {
	case p.origins[origin]:
		return origin
	case p.anyOrigin && p.credentials:
		return origin
	case p.anyOrigin:
		return "*"
	default:
		return ""
	}
}

// CORS returns middleware that handles Cross-Origin Resource Sharing headers.
// OPTIONS requests are answered here with 204 and never reach the router.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	p := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if origin := r.Header.Get("Origin"); origin != "" {
				if allowed := p.allowOrigin(origin); allowed != "" {
					h.Set("Access-Control-Allow-Origin", allowed)
					if allowed != "*" {
						h.Add("Vary", "Origin")
					}
					if p.credentials {
						h.Set("Access-Control-Allow-Credentials", "true")
					}
					if p.exposed != "" {
						h.Set("Access-Control-Expose-Headers", p.exposed)
					}
				}
			}

			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			h.Set("Access-Control-Allow-Methods", p.methods)
			h.Set("Access-Control-Allow-Headers", p.headers)
			h.Set("Access-Control-Max-Age", p.maxAge)
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
