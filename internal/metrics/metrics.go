package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docchat_ingest_total",
		Help: "Total document ingestions by outcome",
	}, []string{"status"})

	ingestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docchat_ingest_duration_seconds",
		Help:    "Document ingestion latency",
		Buckets: prometheus.DefBuckets,
	})

	questionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docchat_questions_total",
		Help: "Total questions answered by outcome",
	}, []string{"status"})

	questionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docchat_question_duration_seconds",
		Help:    "Question answering latency",
		Buckets: prometheus.DefBuckets,
	})
)

// ObserveIngest 记录一次文档摄取
func ObserveIngest(status string, elapsed time.Duration) {
	ingestTotal.WithLabelValues(status).Inc()
	ingestDuration.Observe(elapsed.Seconds())
}

// ObserveQuestion 记录一次问答
func ObserveQuestion(status string, elapsed time.Duration) {
	questionTotal.WithLabelValues(status).Inc()
	questionDuration.Observe(elapsed.Seconds())
}
