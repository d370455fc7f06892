package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	PipelineQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regsearch",
			Name:      "pipeline_queries_total",
			Help:      "Total number of answered queries",
		},
		[]string{"mode", "status"}, // status: answered / refused / error
	)

	PipelineQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "regsearch",
			Name:      "pipeline_query_duration_seconds",
			Help:      "End-to-end query duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"mode"},
	)

	RetrievalCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regsearch",
			Name:      "retrieval_cache_total",
			Help:      "Retrieval cache hits and misses",
		},
		[]string{"result"},
	)

	GuardRefusalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regsearch",
			Name:      "guard_refusals_total",
			Help:      "Queries refused by guard stage",
		},
		[]string{"stage"}, // "input" / "output"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(PipelineQueriesTotal)
	prometheus.MustRegister(PipelineQueryDuration)
	prometheus.MustRegister(RetrievalCacheTotal)
	prometheus.MustRegister(GuardRefusalsTotal)
	pipelineMetricsRegistered = true
}
