package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewPromHttpHandler serves the default registry, which holds both the HTTP
// collectors here and the token generation metrics.
func NewPromHttpHandler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{})
}

func ProvideMetrics() http.Handler { return NewPromHttpHandler() }
