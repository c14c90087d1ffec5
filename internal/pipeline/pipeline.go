// Package pipeline orchestrates the end-to-end report generation
// workflow: normalize, compute statistics, dispatch analyzers, aggregate
// and persist.
package pipeline

import (
	"context"
	"time"

	"postlens/internal/analysis"
	"postlens/internal/core"
	"postlens/internal/logger"
	"postlens/internal/metrics"
	"postlens/internal/report"
	"postlens/internal/stats"
	"postlens/internal/store"
)

// Pipeline coordinates one report generation run. Each run owns its own
// PostSet and builds a new Report value; the only shared state is the
// dispatcher's client and the store, both safe for concurrent use.
type Pipeline struct {
	dispatcher *analysis.Dispatcher
	store      store.Store
	config     *Config
}

// Config holds pipeline configuration.
type Config struct {
	// PeriodMonths is the trailing statistics window length.
	PeriodMonths int
	// PeriodEnd is the injected end of the analysis period. Zero means
	// the caller-supplied run time.
	PeriodEnd time.Time
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{PeriodMonths: 12}
}

// New creates a pipeline with all dependencies.
func New(dispatcher *analysis.Dispatcher, st store.Store, config *Config) *Pipeline {
	if config == nil {
		config = DefaultConfig()
	}
	return &Pipeline{dispatcher: dispatcher, store: st, config: config}
}

// Result contains the output of one pipeline run.
type Result struct {
	Report  *core.Report
	ShareID string
	Failed  []core.AnalysisKind
	Elapsed time.Duration
}

// GenerateReport runs the full pipeline for a dataset: statistics are
// computed synchronously, the four analyzers run concurrently, and the
// merged report is committed in a single store call once aggregation
// completes. Per-analyzer failures become degraded sections; the run as
// a whole still succeeds. A persistence failure is returned so the
// caller can retry the save without recomputation.
func (p *Pipeline) GenerateReport(ctx context.Context, datasetID string) (*Result, error) {
	return p.run(ctx, datasetID, core.AnalysisKinds)
}

// RegenerateSection re-runs exactly one analyzer and re-aggregates. The
// resulting report is identical to the prior one except for that
// analyzer's slot; user overlay state carries over untouched.
func (p *Pipeline) RegenerateSection(ctx context.Context, datasetID string, kind core.AnalysisKind) (*Result, error) {
	if !kind.Valid() {
		return nil, core.Errorf(core.ErrValidation, "unknown analyzer kind %q", kind)
	}
	return p.run(ctx, datasetID, []core.AnalysisKind{kind})
}

func (p *Pipeline) run(ctx context.Context, datasetID string, kinds []core.AnalysisKind) (*Result, error) {
	start := time.Now()
	log := logger.Get()

	dataset, err := p.store.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if len(dataset.Posts) == 0 {
		return nil, core.Errorf(core.ErrValidation, "dataset %s has no posts", datasetID)
	}

	periodEnd := p.config.PeriodEnd
	if periodEnd.IsZero() {
		periodEnd = start.UTC()
	}
	window := stats.Window{End: periodEnd, Months: p.config.PeriodMonths}
	summary := stats.ComputeSummary(dataset.Posts, window)

	results := p.dispatcher.Run(ctx, dataset.Posts, kinds)

	// Prior report state (share id, user overlay, untouched sections)
	// survives partial regeneration. A missing report is the first run.
	prior, err := p.store.GetReport(ctx, datasetID)
	if err != nil && !core.IsNotFound(err) {
		return nil, err
	}

	merged := report.Aggregate(datasetID, summary, results, prior)

	shareID, err := p.store.CreateOrReplaceReport(ctx, datasetID, &merged)
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues("persistence_error").Inc()
		return nil, err
	}
	merged.ShareID = shareID

	elapsed := time.Since(start)
	metrics.PipelineRunsTotal.WithLabelValues("ok").Inc()
	metrics.PipelineDurationSeconds.Observe(elapsed.Seconds())

	failed := merged.FailedSections()
	log.Info().
		Str("dataset_id", datasetID).
		Str("share_id", shareID).
		Int("sections_failed", len(failed)).
		Dur("elapsed", elapsed).
		Msg("report generated")

	return &Result{
		Report:  &merged,
		ShareID: shareID,
		Failed:  failed,
		Elapsed: elapsed,
	}, nil
}
