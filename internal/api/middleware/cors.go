package middleware

import (
	"net/http"
	"strconv"

	"github.com/agentworld/simbridge/internal/config"
)

// CORS returns a middleware that sets the configured CORS headers on every
// response and short-circuits OPTIONS preflight with 200.
func CORS(holder *config.HTTPConfigHolder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cors := holder.Current().CORS

			w.Header().Set("Access-Control-Allow-Origin", cors.AllowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", cors.AllowMethods)
			w.Header().Set("Access-Control-Allow-Headers", cors.AllowHeaders)
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cors.MaxAge))
			w.Header().Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
