// ABOUTME: Prometheus metrics for provider calls, answers, memory writes and index builds
// ABOUTME: Registered on the default registry at init and served by `ragmem serve`
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "ragmem"

var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of embedding and generation requests",
		},
		[]string{"provider", "operation", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Embedding and generation request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "operation"},
	)

	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Answers produced, by outcome",
		},
		[]string{"outcome"}, // "grounded" / "refused" / "error"
	)

	MemoryEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_entries_total",
			Help:      "Memory entries written, by target",
		},
		[]string{"target"},
	)

	MemoryDiscardsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_discards_total",
			Help:      "Classification items not written, by reason",
		},
		[]string{"reason"}, // "no_fact" / "low_confidence" / "malformed"
	)

	IndexBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_builds_total",
			Help:      "Index builds, by status",
		},
		[]string{"status"},
	)

	IndexChunks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_chunks",
			Help:      "Number of chunks in the loaded index",
		},
	)
)

func init() {
	prometheus.MustRegister(
		LLMRequestsTotal,
		LLMRequestDuration,
		AnswersTotal,
		MemoryEntriesTotal,
		MemoryDiscardsTotal,
		IndexBuildsTotal,
		IndexChunks,
	)
}
