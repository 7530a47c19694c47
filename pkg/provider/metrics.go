package provider

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeOK        = "ok"
	outcomeNoURL     = "url_not_provided"
	outcomeHeaders   = "header_failure"
	outcomeEncode    = "encode_failure"
	outcomeTransport = "transport_failure"
	outcomeMapping   = "mapping_failure"
)

var (
	generationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "token_generation_total", Help: "token generation calls by outcome"},
		[]string{"outcome"},
	)

	generationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "token_generation_seconds",
			Help:    "token endpoint round trip time.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)

func init() {
	prometheus.MustRegister(generationTotal, generationSeconds)
}
