package types

import "context"

// Provider is the capability set every AI backend implements: analyze and
// health-check. Concrete variants (OpenRouter, OpenAI, Claude, Gemini,
// Mock) dispatch through this single interface; the wire format of each is
// external to the core.
type Provider interface {
	// Analyze returns a partially populated AnalysisReport (summary, issues,
	// recommendations) or fails with an *apperr.Error carrying one of the
	// ErrorKinds in spec.md §4.C.
	Analyze(ctx context.Context, req AnalysisRequest) (AnalysisReport, error)
	// HealthCheck reports whether the provider is reachable and authorized.
	HealthCheck(ctx context.Context) error
	// Name identifies the provider for report metadata and logging.
	Name() string
}

// ProgressStage names one phase of a pipeline run.
type ProgressStage string

const (
	StageReading    ProgressStage = "Reading"
	StageParsing    ProgressStage = "Parsing"
	StageFiltering  ProgressStage = "Filtering"
	StageSlimming   ProgressStage = "Slimming"
	StageAI         ProgressStage = "AI"
	StageEnhancing  ProgressStage = "Enhancing"
	StageFinalizing ProgressStage = "Finalizing"
)

// ProgressEvent is one update emitted to a ProgressSink during a pipeline
// run. Fractions are monotonically non-decreasing within a run.
type ProgressEvent struct {
	Stage     ProgressStage
	Fraction  float64
	Message   string
	ElapsedMS int64
}

// ProgressSink receives ProgressEvents. Modeled as a producer-side callback
// rather than shared mutable state, per spec.md §9.
type ProgressSink func(ProgressEvent)
