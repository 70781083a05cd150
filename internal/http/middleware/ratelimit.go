package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/andrestovio/module10-is601/internal/metrics"
	"github.com/andrestovio/module10-is601/internal/utils/response"
)

// LoginRateLimit allows limit requests per window per client IP using
// httprate's sliding window counter. Rejections get 429 with Retry-After.
func LoginRateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.LoginAttempts.WithLabelValues(metrics.LoginRateLimited).Inc()
			slog.Warn("login rate limit exceeded", slog.String("remote_addr", r.RemoteAddr))

			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			response.WriteJSON(w, http.StatusTooManyRequests,
				response.GeneralError(errors.New("too many login attempts, try again later")))
		}),
	)
}
