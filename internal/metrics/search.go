package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	QueryBuildTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchkit",
			Name:      "query_build_total",
			Help:      "Total number of query documents built",
		},
		[]string{"entity", "status"},
	)

	KNNDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchkit",
			Name:      "knn_degraded_total",
			Help:      "Vector clauses dropped from a search",
		},
		[]string{"reason"},
	)

	SearchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchkit",
			Name:      "search_request_duration_seconds",
			Help:      "Search engine request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"entity"},
	)

	SearchEngineErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchkit",
			Name:      "search_engine_errors_total",
			Help:      "Failed search engine requests",
		},
		[]string{"entity"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueryBuildTotal)
	prometheus.MustRegister(KNNDegradedTotal)
	prometheus.MustRegister(SearchRequestDuration)
	prometheus.MustRegister(SearchEngineErrorsTotal)
	searchMetricsRegistered = true
}
