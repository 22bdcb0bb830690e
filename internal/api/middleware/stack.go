// SPDX-License-Identifier: MIT

package middleware

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agentworld/simbridge/internal/config"
	xlog "github.com/agentworld/simbridge/internal/log"
)

// StackConfig configures the canonical HTTP ingress middleware stack shared
// by every extension server.
type StackConfig struct {
	HTTPConfig *config.HTTPConfigHolder

	TracingService string // empty disables tracing
	EnableLogging  bool

	// Edge rate limit ahead of the security manager's counted window.
	EdgeRateLimitEnabled bool
	EdgeRequestLimit     int
	EdgeWindow           time.Duration
}

// NewRouter constructs a chi router with the canonical middleware stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack applies the canonical middleware stack to r.
func ApplyStack(r chi.Router, cfg StackConfig) {
	// Recoverer outermost, then correlation, then browser-facing headers.
	r.Use(Recoverer)
	r.Use(RequestID)
	r.Use(CORS(cfg.HTTPConfig))
	r.Use(SecurityHeaders(cfg.HTTPConfig))
	if cfg.TracingService != "" {
		r.Use(Tracing(cfg.TracingService))
	}
	if cfg.EnableLogging {
		r.Use(xlog.Middleware())
	}
	if cfg.EdgeRateLimitEnabled {
		limit := cfg.EdgeRequestLimit
		if limit <= 0 {
			limit = 600
		}
		window := cfg.EdgeWindow
		if window <= 0 {
			window = time.Minute
		}
		r.Use(EdgeRateLimit(limit, window))
	}
}
