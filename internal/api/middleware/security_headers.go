// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"strings"

	"github.com/agentworld/simbridge/internal/config"
)

// SecurityHeaders returns a middleware that adds the fixed security headers
// to all responses, every status code included.
func SecurityHeaders(holder *config.HTTPConfigHolder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sec := holder.Current().SecurityHeaders

			w.Header().Set("Content-Security-Policy", sec.ContentSecurityPolicy)
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", sec.ReferrerPolicy)
			w.Header().Set("Permissions-Policy", sec.PermissionsPolicy)

			if sec.EnableHSTS && (r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")) {
				w.Header().Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
