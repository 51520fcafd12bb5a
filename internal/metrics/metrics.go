package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civiclens",
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream gateway requests",
		},
		[]string{"provider", "outcome"},
	)

	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "civiclens",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream gateway request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civiclens",
			Name:      "ai_requests_total",
			Help:      "Total number of generative AI requests",
		},
		[]string{"provider", "kind", "status"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civiclens",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits, misses and evictions",
		},
		[]string{"layer", "result"},
	)

	DashboardCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civiclens",
			Name:      "dashboard_cache_total",
			Help:      "Dashboard cache lookups by metric and result",
		},
		[]string{"key", "result"},
	)

	SearchTierTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civiclens",
			Name:      "search_tier_total",
			Help:      "Natural-language searches by the tier that produced the result",
		},
		[]string{"source"},
	)

	IndexSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "civiclens",
			Name:      "vector_index_entries",
			Help:      "Number of bills in the vector index",
		},
	)
)

func init() {
	prometheus.MustRegister(
		UpstreamRequestsTotal,
		UpstreamRequestDuration,
		AIRequestsTotal,
		EmbeddingCacheTotal,
		DashboardCacheTotal,
		SearchTierTotal,
		IndexSize,
	)
}
