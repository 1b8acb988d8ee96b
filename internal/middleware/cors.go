package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/JaimeStill/agent-console/internal/config"
)

// CORS returns middleware that lets configured browser origins call the
// proxy. Preflights from allowed origins are answered with 204; other
// OPTIONS requests reach the router. With credentials allowed the session
// cookie is accepted cross-origin.
func CORS(cfg *config.CORSConfig) func(http.Handler) http.Handler {
	methods := strings.Join(cfg.Methods(), ", ")
	headers := strings.Join(cfg.Headers(), ", ")
	maxAge := strconv.Itoa(cfg.MaxAgeSeconds())

	return func(next http.Handler) http.Handler {
		if !cfg.Enabled() {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			if !cfg.Allows(origin) {
				next.ServeHTTP(w, r)
				return
			}

			switch {
			case cfg.AllowCredentials():
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
			case cfg.AnyOrigin():
				h.Set("Access-Control-Allow-Origin", config.AnyOrigin)
			default:
				h.Set("Access-Control-Allow-Origin", origin)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				h.Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
