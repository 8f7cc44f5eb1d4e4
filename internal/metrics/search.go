package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deepsearch",
			Name:      "searches_total",
			Help:      "Total number of aggregated searches by response status",
		},
		[]string{"status"}, // "complete" / "partial" / "failed"
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deepsearch",
			Name:      "search_cache_total",
			Help:      "Merged-result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	SourceRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "deepsearch",
			Name:      "source_request_duration_seconds",
			Help:      "Per-source adapter invocation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"source", "outcome"},
	)

	SourceFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deepsearch",
			Name:      "source_failures_total",
			Help:      "Per-source adapter failures by kind",
		},
		[]string{"source", "kind"},
	)
)

// ObserveCacheLookup records one merged-result cache lookup.
func ObserveCacheLookup(hit bool) {
	if hit {
		SearchCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	SearchCacheTotal.WithLabelValues("miss").Inc()
}

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchCacheTotal)
	prometheus.MustRegister(SourceRequestDuration)
	prometheus.MustRegister(SourceFailuresTotal)
	searchMetricsRegistered = true
}
