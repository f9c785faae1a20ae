package metrics

import "github.com/prometheus/client_golang/prometheus"

// Index and question-answering Prometheus metrics.
var (
	IndexBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "greenqa",
			Name:      "index_builds_total",
			Help:      "Total number of index builds",
		},
		[]string{"status"}, // "ok" / "error"
	)

	IndexBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "greenqa",
			Name:      "index_build_duration_seconds",
			Help:      "Index build duration in seconds (chunking + TF-IDF fit)",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	IndexChunks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "greenqa",
			Name:      "index_chunks",
			Help:      "Number of chunks in the current index",
		},
	)

	IndexVocabulary = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "greenqa",
			Name:      "index_vocabulary_terms",
			Help:      "Number of vocabulary terms in the current index",
		},
	)

	QuestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "greenqa",
			Name:      "questions_total",
			Help:      "Total questions by retrieval mode and outcome",
		},
		[]string{"mode", "outcome"}, // outcome: "answered" / "no_match" / "not_ready"
	)

	AnswerScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "greenqa",
			Name:      "answer_score",
			Help:      "Similarity score of the best passage per question",
			Buckets:   []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"mode"},
	)

	SnapshotOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "greenqa",
			Name:      "snapshot_operations_total",
			Help:      "Index snapshot save/load/delete operations",
		},
		[]string{"op", "status"},
	)
)

var qaMetricsRegistered bool

// RegisterQAMetrics registers index and question metrics. Must be called once from main.
func RegisterQAMetrics() {
	if qaMetricsRegistered {
		return
	}
	prometheus.MustRegister(IndexBuildsTotal)
	prometheus.MustRegister(IndexBuildDuration)
	prometheus.MustRegister(IndexChunks)
	prometheus.MustRegister(IndexVocabulary)
	prometheus.MustRegister(QuestionsTotal)
	prometheus.MustRegister(AnswerScore)
	prometheus.MustRegister(SnapshotOpsTotal)
	qaMetricsRegistered = true
}
