// Package metrics exposes Prometheus instrumentation for the analysis
// pipeline.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AnalyzerRunsTotal counts analyzer runs by kind and outcome.
	AnalyzerRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postlens",
		Subsystem: "analysis",
		Name:      "analyzer_runs_total",
		Help:      "Total number of analyzer runs, labeled by analyzer kind and result.",
	}, []string{"kind", "result"})

	// AnalyzerDurationSeconds is the wall time of one analyzer call.
	AnalyzerDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "postlens",
		Subsystem: "analysis",
		Name:      "analyzer_duration_seconds",
		Help:      "Time spent in one analyzer call including the external round-trip.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 90},
	}, []string{"kind"})

	// PipelineRunsTotal counts full pipeline executions by outcome.
	PipelineRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "postlens",
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Total number of full report pipeline runs, labeled by result.",
	}, []string{"result"})

	// PipelineDurationSeconds is end-to-end pipeline time.
	PipelineDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "postlens",
		Subsystem: "pipeline",
		Name:      "duration_seconds",
		Help:      "End-to-end time of one report pipeline run.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	})
)

// Register registers pipeline metrics with the default Prometheus
// registry. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AnalyzerRunsTotal,
			AnalyzerDurationSeconds,
			PipelineRunsTotal,
			PipelineDurationSeconds,
		)
	})
}
