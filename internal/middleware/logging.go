package middleware

import (
	"net/http"
	"time"

	"github.com/fooddelivery/gateway/internal/observability"
	"github.com/fooddelivery/gateway/internal/util"
)

// Logging returns a middleware that logs HTTP requests.
func Logging(logger observability.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := util.NewResponseWriter(w)

			next.ServeHTTP(rw, r)

			logger.Info("http request",
				observability.String("method", r.Method),
				observability.String("path", r.URL.Path),
				observability.String("query", r.URL.RawQuery),
				observability.Int("status", rw.Status),
				observability.Int("size", rw.Size),
				observability.Duration("duration", time.Since(start)),
				observability.String("remote_addr", r.RemoteAddr),
				observability.String("user_agent", r.UserAgent()),
				observability.String("request_id", observability.RequestIDFromContext(r.Context())),
			)
		})
	}
}
