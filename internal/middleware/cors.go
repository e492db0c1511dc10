package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/veilpoint/vpn-backend/internal/config"
	"github.com/veilpoint/vpn-backend/internal/constants"
)

// CORS is a middleware that applies the cross-origin policy from the
// configuration. Preflight requests are answered directly with an empty
// 200 body; the contract predates 204 preflights and existing clients
// expect the 200.
func CORS(cfg *config.CORSSettings) func(http.Handler) http.Handler {
	allowedOrigins := strings.Join(cfg.AllowedOrigins, ", ")
	allowedMethods := strings.Join(cfg.AllowedMethods, ", ")
	allowedHeaders := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
				w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
				w.Header().Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(constants.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
