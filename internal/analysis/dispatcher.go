// Package analysis runs the four independent AI analyzers against a
// PostSet and collects their results.
package analysis

import (
	"context"
	"errors"
	"sync"
	"time"

	"postlens/internal/core"
	"postlens/internal/llm"
	"postlens/internal/logger"
	"postlens/internal/metrics"
)

// Dispatcher invokes analyzers against a PostSet. Each analyzer is an
// isolated fallible unit: a failure becomes a failed AnalysisResult,
// never an error propagated to sibling analyzers.
type Dispatcher struct {
	gen     llm.TextGenerator
	timeout time.Duration
}

// NewDispatcher creates a dispatcher with the given per-call timeout.
// The timeout must match the platform's per-request ceiling.
func NewDispatcher(gen llm.TextGenerator, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Dispatcher{gen: gen, timeout: timeout}
}

// Analyze runs a single analyzer. Empty input fails fast with a
// validation result before any external call is made; that failure does
// not count against the external-call budget. Timeouts and malformed
// responses are captured into the result, not returned as errors.
func (d *Dispatcher) Analyze(ctx context.Context, kind core.AnalysisKind, posts core.PostSet) core.AnalysisResult {
	if !kind.Valid() {
		return failedResult(kind, core.ErrValidation, "unknown analyzer kind")
	}
	if len(posts) == 0 {
		return failedResult(kind, core.ErrValidation, "post set is empty")
	}

	start := time.Now()
	result := d.callExternal(ctx, kind, posts)
	metrics.AnalyzerDurationSeconds.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	metrics.AnalyzerRunsTotal.WithLabelValues(string(kind), string(result.Status)).Inc()

	if result.Status == core.StatusFailed {
		logger.Get().Warn().
			Str("kind", string(kind)).
			Str("error_kind", string(result.ErrorKind)).
			Str("error", result.Error).
			Msg("analyzer failed")
	}
	return result
}

func (d *Dispatcher) callExternal(ctx context.Context, kind core.AnalysisKind, posts core.PostSet) core.AnalysisResult {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	response, err := d.gen.Generate(callCtx, promptFor(kind, posts))
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return failedResult(kind, core.ErrTimeout, "external call exceeded "+d.timeout.String())
		}
		// The call produced no schema-valid payload; the detail keeps the
		// transport failure distinguishable from a parse failure.
		return failedResult(kind, core.ErrMalformedResponse, "external call failed: "+err.Error())
	}

	payload, err := parsePayload(kind, response)
	if err != nil {
		return failedResult(kind, core.ErrMalformedResponse, err.Error())
	}

	return core.AnalysisResult{
		Kind:      kind,
		Status:    core.StatusOK,
		Payload:   payload,
		ModelUsed: d.gen.ModelName(),
	}
}

// Run executes the given analyzers concurrently and returns one result
// per kind. Completion of one analyzer is never blocked by, or able to
// cancel, another; every failure is a value in the returned map.
func (d *Dispatcher) Run(ctx context.Context, posts core.PostSet, kinds []core.AnalysisKind) map[core.AnalysisKind]core.AnalysisResult {
	if len(kinds) == 0 {
		kinds = core.AnalysisKinds
	}

	results := make(map[core.AnalysisKind]core.AnalysisResult, len(kinds))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, kind := range kinds {
		wg.Add(1)
		go func(k core.AnalysisKind) {
			defer wg.Done()
			res := d.Analyze(ctx, k, posts)
			mu.Lock()
			results[k] = res
			mu.Unlock()
		}(kind)
	}
	wg.Wait()

	return results
}

func failedResult(kind core.AnalysisKind, errKind core.ErrorKind, detail string) core.AnalysisResult {
	return core.AnalysisResult{
		Kind:      kind,
		Status:    core.StatusFailed,
		ErrorKind: errKind,
		Error:     detail,
	}
}
