package metrics

import "github.com/prometheus/client_golang/prometheus"

// Analyzer Prometheus metrics.
var (
	AnalyzerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kwharvest",
			Name:      "analyzer_requests_total",
			Help:      "Total number of language model analysis requests",
		},
		[]string{"provider", "model", "status"}, // "success" / "error"
	)

	AnalyzerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kwharvest",
			Name:      "analyzer_errors_total",
			Help:      "Total number of language model errors by type",
		},
		[]string{"provider", "model", "error_type"}, // "api_error" / "empty_response"
	)

	AnalyzerRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kwharvest",
			Name:      "analyzer_request_duration_seconds",
			Help:      "Language model request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	AnalyzerTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kwharvest",
			Name:      "analyzer_tokens_total",
			Help:      "Total tokens consumed by analysis requests",
		},
		[]string{"provider", "model", "type"}, // "prompt" / "total"
	)
)

var analyzerMetricsRegistered bool

// RegisterAnalyzerMetrics registers Prometheus analyzer metrics. Must be called once from main.
func RegisterAnalyzerMetrics() {
	if analyzerMetricsRegistered {
		return
	}
	prometheus.MustRegister(AnalyzerRequestsTotal)
	prometheus.MustRegister(AnalyzerErrorsTotal)
	prometheus.MustRegister(AnalyzerRequestDuration)
	prometheus.MustRegister(AnalyzerTokensTotal)
	analyzerMetricsRegistered = true
}
