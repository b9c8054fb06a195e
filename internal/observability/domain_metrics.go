package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	generationRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groundsql_generation_runs_total",
			Help: "Total number of generation runs by strategy and status.",
		},
		[]string{"strategy", "status"},
	)
	generationAttempts = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "groundsql_generation_attempts",
			Help:    "Generate/validate cycles needed per run.",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		},
		[]string{"strategy"},
	)
	generationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "groundsql_generation_duration_seconds",
			Help:    "Total generation latency across all attempts.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"strategy"},
	)
	validationRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "groundsql_validation_rejections_total",
			Help: "Total number of candidate statements rejected by the validator.",
		},
	)
	sampleFetchFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "groundsql_sample_fetch_failures_total",
			Help: "Total number of per-table sample fetches that degraded to empty rows.",
		},
	)
	archiveWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groundsql_archive_writes_total",
			Help: "Total number of run archive writes by status.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		generationRunsTotal,
		generationAttempts,
		generationDurationSeconds,
		validationRejectionsTotal,
		sampleFetchFailuresTotal,
		archiveWritesTotal,
	)
}

func ObserveGeneration(strategy string, success bool, attempts int, elapsed time.Duration) {
	status := "failed"
	if success {
		status = "succeeded"
	}
	generationRunsTotal.WithLabelValues(strategy, status).Inc()
	if attempts > 0 {
		generationAttempts.WithLabelValues(strategy).Observe(float64(attempts))
	}
	generationDurationSeconds.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

func IncrementValidationRejections() {
	validationRejectionsTotal.Inc()
}

func IncrementSampleFetchFailures() {
	sampleFetchFailuresTotal.Inc()
}

func ObserveArchiveWrite(err error) {
	if err != nil {
		archiveWritesTotal.WithLabelValues("failed").Inc()
		return
	}
	archiveWritesTotal.WithLabelValues("succeeded").Inc()
}
