package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/middleware"
)

// TokenStatus reports whether a generated token is currently held.
type TokenStatus interface {
	Available() bool
}

// Collect produces the HTTP middleware that records the counters/histogram. ts may be nil.
func Collect(ts TokenStatus) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			startTime := time.Now()

			defer func() {
				// Skip self-scrape and any additional caller-configured paths
				if isSkipPath(r) {
					return
				}

				endTime := time.Since(startTime)

				state := "missing"
				if ts != nil && ts.Available() {
					state = "available"
				}

				code := strconv.Itoa(ww.Status())
				uri := normalizePath(r) // path only; avoid cardinality explosion
				method := r.Method

				totalHttpRequestsByTokenState.WithLabelValues(state).Inc()
				totalHttpRequestsToUri.WithLabelValues(code, uri, method).Inc()
				totalHttpRequests.WithLabelValues(code, method).Inc()
				responseTime.WithLabelValues(state).Observe(endTime.Seconds())
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
