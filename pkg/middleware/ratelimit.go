package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/diagnosis/visitor-desk/internal/http/response"
)

// RateLimit limits requests per client IP to requestsPerMinute using a
// sliding window. A non-positive limit disables it.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			response.RateLimit(w, "Too many requests, please slow down")
		}),
	)
}
