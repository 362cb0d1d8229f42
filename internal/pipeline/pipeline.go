// Package pipeline implements the orchestrator described in spec.md §4.E:
// it sequences parsing, filtering, slimming, the AI provider call, and the
// enhancers into one AnalysisReport, reporting progress and honoring
// cooperative cancellation throughout.
package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/loglens/loglens/internal/enhancers"
	"github.com/loglens/loglens/internal/filter"
	"github.com/loglens/loglens/internal/metrics"
	"github.com/loglens/loglens/pkg/apperr"
	"github.com/loglens/loglens/pkg/types"
)

var tracer = otel.Tracer("github.com/loglens/loglens/internal/pipeline")

// Orchestrator runs one analysis request end to end.
type Orchestrator struct {
	Provider types.Provider

	// MaxEntries bounds the Slimmer; zero selects filter.DefaultMaxEntries.
	MaxEntries int
	// MinPatternFrequency and CorrelationThreshold parameterize the
	// enhancers; zero selects each enhancer's documented default.
	MinPatternFrequency  int
	CorrelationThreshold float64
}

// New builds an Orchestrator bound to provider with default tuning.
func New(provider types.Provider) *Orchestrator {
	return &Orchestrator{Provider: provider}
}

// stageWindow is the [start, end) progress fraction assigned to a stage,
// per spec.md §4.E's granularity table.
type stageWindow struct {
	stage      types.ProgressStage
	start, end float64
}

var stageWindows = []stageWindow{
	{types.StageReading, 0, 0.1},
	{types.StageParsing, 0.1, 0.2},
	{types.StageFiltering, 0.2, 0.25},
	{types.StageSlimming, 0.25, 0.3},
	{types.StageAI, 0.3, 0.85},
	{types.StageEnhancing, 0.85, 0.95},
	{types.StageFinalizing, 0.95, 1.0},
}

func windowFor(stage types.ProgressStage) stageWindow {
	for _, w := range stageWindows {
		if w.stage == stage {
			return w
		}
	}
	return stageWindow{stage, 0, 1}
}

// emit reports progress at fraction within stage's window. fraction is
// 0..1 local to the stage; the sink always sees the globally
// monotonically non-decreasing value.
func emit(sink types.ProgressSink, start time.Time, stage types.ProgressStage, fraction float64, message string) {
	if sink == nil {
		return
	}
	w := windowFor(stage)
	global := w.start + fraction*(w.end-w.start)
	sink(types.ProgressEvent{
		Stage:     stage,
		Fraction:  global,
		Message:   message,
		ElapsedMS: time.Since(start).Milliseconds(),
	})
}

// checkCancel returns an apperr Cancelled error if ctx has been cancelled.
func checkCancel(ctx context.Context, component, operation string) error {
	select {
	case <-ctx.Done():
		return apperr.New(apperr.Cancelled, component, operation, "cancelled").Wrap(ctx.Err())
	default:
		return nil
	}
}

// Run executes one pipeline pass over req.Entries (already parsed upstream
// into LogEntry records; "Reading"/"Parsing" stages here report on
// already-materialized data, since acquisition is the caller's
// responsibility per spec.md §4.E's input contract).
func (o *Orchestrator) Run(ctx context.Context, req types.AnalysisRequest, sink types.ProgressSink) (types.AnalysisReport, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "pipeline.Run", oteltrace.WithAttributes(
		attribute.Int("loglens.entries", len(req.Entries)),
		attribute.String("loglens.provider", req.Provider),
	))
	defer span.End()

	emit(sink, start, types.StageReading, 1, "entries received")
	if err := checkCancel(ctx, "pipeline", "Reading"); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled")
		metrics.RecordPipelineRun(req.Provider, "cancelled")
		return types.AnalysisReport{}, err
	}

	// Parsing is a no-op here: req.Entries already carries parsed
	// LogEntry records (parser totality guarantees no entries are lost
	// upstream of this call).
	emit(sink, start, types.StageParsing, 1, "")

	stageStart := time.Now()
	filtered := filter.Apply(req.Entries, req.Threshold)
	metrics.ObservePipelineStage("filtering", time.Since(stageStart))
	emit(sink, start, types.StageFiltering, 1, "")
	if err := checkCancel(ctx, "pipeline", "Filtering"); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled")
		metrics.RecordPipelineRun(req.Provider, "cancelled")
		return types.AnalysisReport{}, err
	}

	stageStart = time.Now()
	slimmed := filter.Slim(filtered, o.MaxEntries)
	metrics.ObservePipelineStage("slimming", time.Since(stageStart))
	emit(sink, start, types.StageSlimming, 1, "")
	if err := checkCancel(ctx, "pipeline", "Slimming"); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled")
		metrics.RecordPipelineRun(req.Provider, "cancelled")
		return types.AnalysisReport{}, err
	}

	stageStart = time.Now()
	aiCtx, aiSpan := tracer.Start(ctx, "pipeline.AI")
	aiReq := req
	aiReq.Entries = slimmed
	report, err := o.Provider.Analyze(aiCtx, aiReq)
	aiSpan.End()
	metrics.ObservePipelineStage("ai", time.Since(stageStart))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "AI provider failed")
		// AI failure is fatal per §4.E's failure policy: enhancer output
		// must never be used to forge a summary.
		metrics.RecordPipelineRun(req.Provider, "failed")
		return types.AnalysisReport{}, err
	}
	emit(sink, start, types.StageAI, 1, "")
	if err := checkCancel(ctx, "pipeline", "AI"); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled")
		metrics.RecordPipelineRun(req.Provider, "cancelled")
		return types.AnalysisReport{}, err
	}

	stageStart = time.Now()
	_, enhSpan := tracer.Start(ctx, "pipeline.Enhancing")
	result := enhancers.Run(filtered, o.effectiveMinFrequency(), o.effectiveCorrelationThreshold())
	enhSpan.End()
	metrics.ObservePipelineStage("enhancing", time.Since(stageStart))
	emit(sink, start, types.StageEnhancing, 1, "")

	report.Patterns = result.Patterns
	report.Anomalies = result.Anomalies
	report.Correlations = result.Correlations
	report.Performance = result.Performance
	report.Warnings = append(report.Warnings, result.Warnings...)
	report.Metadata = types.ReportMetadata{
		Provider:      req.Provider,
		Threshold:     req.Threshold,
		EntriesBefore: len(req.Entries),
		EntriesAfter:  len(slimmed),
		ElapsedMS:     time.Since(start).Milliseconds(),
	}

	emit(sink, start, types.StageFinalizing, 1, "done")
	span.SetStatus(codes.Ok, "")
	metrics.RecordPipelineRun(req.Provider, "success")
	return report, nil
}

func (o *Orchestrator) effectiveMinFrequency() int {
	if o.MinPatternFrequency > 0 {
		return o.MinPatternFrequency
	}
	return enhancers.DefaultMinFrequency
}

func (o *Orchestrator) effectiveCorrelationThreshold() float64 {
	if o.CorrelationThreshold > 0 {
		return o.CorrelationThreshold
	}
	return enhancers.DefaultCorrelationThreshold
}
