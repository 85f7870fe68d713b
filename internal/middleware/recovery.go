package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/fooddelivery/gateway/internal/observability"
	"github.com/fooddelivery/gateway/internal/util"
)

// Recovery returns a middleware that recovers from panics. The panic and
// stack are logged; the caller receives the generic internal-error envelope.
func Recovery(logger observability.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						observability.String("path", r.URL.Path),
						observability.String("method", r.Method),
						observability.Any("error", err),
						observability.String("stack", string(debug.Stack())),
					)

					util.WriteError(w, http.StatusInternalServerError,
						"Internal server error",
						"An unexpected error occurred",
					)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
