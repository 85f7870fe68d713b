package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fooddelivery/gateway/internal/observability"
	"github.com/fooddelivery/gateway/internal/util"
)

// Metrics returns a middleware that records request count and duration.
// The route label keeps cardinality bounded: callers pass the route pattern,
// not the concrete path.
func Metrics(m *observability.Metrics, route string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := util.NewResponseWriter(w)

			next.ServeHTTP(rw, r)

			m.RecordRequest(r.Method, route, strconv.Itoa(rw.Status), time.Since(start))
		})
	}
}
