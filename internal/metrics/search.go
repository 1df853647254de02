package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "search_requests_total",
			Help:      "Total number of hybrid search requests",
		},
		[]string{"mode", "status"}, // status: "success" / "degraded" / "error"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "folio",
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"mode"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "folio",
			Name:      "search_provider_duration_seconds",
			Help:      "Per-backend search call duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	ProviderFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "search_provider_failures_total",
			Help:      "Total per-backend search failures",
		},
		[]string{"source", "reason"}, // reason: "timeout" / "error"
	)

	FusedCandidatesTotal = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "folio",
			Name:      "search_fused_candidates",
			Help:      "Number of fused candidates before truncation",
			Buckets:   []float64{0, 5, 10, 25, 50, 100, 200, 500},
		},
		[]string{"method"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(ProviderRequestDuration)
	prometheus.MustRegister(ProviderFailuresTotal)
	prometheus.MustRegister(FusedCandidatesTotal)
	searchMetricsRegistered = true
}
