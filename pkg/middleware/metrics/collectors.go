package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "tokenfactory"

var (
	// responseTime includes the token refresh the hook performs before the handler runs.
	responseTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_seconds",
			Help:      "inbound http response time, token refresh included.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"token"},
	)

	totalHttpRequestsByTokenState = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "total_http_requests_by_token_state", Help: "http requests by whether a token was held when they completed"},
		[]string{"token"},
	)

	totalHttpRequestsToUri = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "total_http_requests_to_uri", Help: "http requests to uri"},
		[]string{"code", "uri", "method"},
	)

	totalHttpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "total_http_requests", Help: "http requests by code, and method"},
		[]string{"code", "method"},
	)
)

func init() {
	prometheus.MustRegister(
		responseTime,
		totalHttpRequestsByTokenState,
		totalHttpRequestsToUri,
		totalHttpRequests,
	)
}
