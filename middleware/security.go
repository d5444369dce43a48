package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/upb/accounts-api/services"
)

var contentSecurityPolicy = strings.Join([]string{
	"default-src 'self'",
	"script-src 'self' 'unsafe-inline' https://cdn.jsdelivr.net https://esm.sh",
	"connect-src 'self' https://accounts.google.com https://esm.sh",
	"img-src 'self' data: https://lh3.googleusercontent.com",
	"style-src 'self' 'unsafe-inline'",
	"frame-ancestors 'self'",
	"object-src 'none'",
}, "; ")

// SecurityHeaders sets the browser hardening headers on every response.
// HSTS is only sent outside development.
func SecurityHeaders(development bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", contentSecurityPolicy)
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "SAMEORIGIN")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			h.Set("X-DNS-Prefetch-Control", "off")
			if !development {
				h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit allows requests per window for each client IP. Excess requests
// get a 429 through errors.
func RateLimit(requests int, window time.Duration, errors ErrorWriter) func(http.Handler) http.Handler {
	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			errors.WriteError(w, r, services.ErrRateLimited)
		}),
	)
}
