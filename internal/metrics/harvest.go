package metrics

import "github.com/prometheus/client_golang/prometheus"

// Harvest Prometheus metrics.
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kwharvest",
			Name:      "provider_requests_total",
			Help:      "Total number of suggestion provider requests",
		},
		[]string{"provider", "status"}, // "ok" / "empty" / "error"
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kwharvest",
			Name:      "provider_request_duration_seconds",
			Help:      "Suggestion provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	SuggestionCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kwharvest",
			Name:      "suggestion_cache_total",
			Help:      "Suggestion cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	KeywordsAcceptedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kwharvest",
			Name:      "keywords_accepted_total",
			Help:      "Total number of keywords accepted into result stores",
		},
		[]string{"tag"},
	)

	QueueItemsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kwharvest",
			Name:      "queue_items_total",
			Help:      "Total number of queue items dispatched to providers",
		},
	)

	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kwharvest",
			Name:      "runs_total",
			Help:      "Total number of finished harvest runs",
		},
		[]string{"status"},
	)

	RunsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "kwharvest",
			Name:      "runs_active",
			Help:      "Number of harvest runs currently running",
		},
	)
)

var harvestMetricsRegistered bool

// RegisterHarvestMetrics registers Prometheus harvest metrics. Must be called once from main.
func RegisterHarvestMetrics() {
	if harvestMetricsRegistered {
		return
	}
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderRequestDuration)
	prometheus.MustRegister(SuggestionCacheTotal)
	prometheus.MustRegister(KeywordsAcceptedTotal)
	prometheus.MustRegister(QueueItemsTotal)
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(RunsActive)
	harvestMetricsRegistered = true
}
