// Package metrics exposes LogLens's Prometheus instrumentation: pipeline
// stage/run counters, AI provider call metrics, the Streaming Source
// Manager's live-source gauges, and MCP tool-call counters. Grounded on
// the teacher's internal/metrics.go: same promauto-registered
// Counter/Gauge/HistogramVec shape and the same MetricsServer
// (http.Server + promhttp.Handler + /health) wrapper, rebuilt around
// LogLens's own metric surface instead of the teacher's log-capture one.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	// PipelineRunsTotal counts completed orchestrator runs by outcome.
	PipelineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loglens_pipeline_runs_total",
		Help: "Total number of pipeline runs, by outcome",
	}, []string{"provider", "outcome"})

	// PipelineStageDuration times each named pipeline stage.
	PipelineStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loglens_pipeline_stage_duration_seconds",
		Help:    "Time spent in each pipeline stage",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	// AIProviderCallsTotal counts AI provider HTTP calls by outcome.
	AIProviderCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loglens_ai_provider_calls_total",
		Help: "Total number of AI provider calls, by provider and outcome",
	}, []string{"provider", "outcome"})

	// AIProviderCallDuration times AI provider HTTP calls.
	AIProviderCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loglens_ai_provider_call_duration_seconds",
		Help:    "AI provider call latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	// AnalysesByStatus gauges the current count of analyses in each status.
	AnalysesByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "loglens_analyses_by_status",
		Help: "Current number of analyses in each lifecycle status",
	}, []string{"status"})

	// StreamingSourcesActive gauges live sources by kind.
	StreamingSourcesActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "loglens_streaming_sources_active",
		Help: "Current number of active streaming sources, by kind",
	}, []string{"kind"})

	// StreamingSourceRestartsTotal counts source restarts by kind.
	StreamingSourceRestartsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loglens_streaming_source_restarts_total",
		Help: "Total number of streaming source restarts, by kind",
	}, []string{"kind"})

	// StreamingEntriesTotal counts entries broadcast through the hub.
	StreamingEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loglens_streaming_entries_total",
		Help: "Total number of streaming entries published, by source kind",
	}, []string{"kind"})

	// MCPToolCallsTotal counts MCP tool invocations by tool and outcome.
	MCPToolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loglens_mcp_tool_calls_total",
		Help: "Total number of MCP tool calls, by tool and outcome",
	}, []string{"tool", "outcome"})

	// MCPToolCallDuration times MCP tool calls.
	MCPToolCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loglens_mcp_tool_call_duration_seconds",
		Help:    "MCP tool call latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"tool"})
)

// RecordPipelineRun records one completed (or failed) orchestrator run.
func RecordPipelineRun(provider, outcome string) {
	PipelineRunsTotal.WithLabelValues(provider, outcome).Inc()
}

// ObservePipelineStage records how long one named stage took.
func ObservePipelineStage(stage string, d time.Duration) {
	PipelineStageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordAIProviderCall records the outcome and latency of one provider call.
func RecordAIProviderCall(provider, outcome string, d time.Duration) {
	AIProviderCallsTotal.WithLabelValues(provider, outcome).Inc()
	AIProviderCallDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// SetAnalysesByStatus replaces the gauge value for one status bucket.
func SetAnalysesByStatus(status string, count int) {
	AnalysesByStatus.WithLabelValues(status).Set(float64(count))
}

// SetStreamingSourcesActive replaces the gauge value for one source kind.
func SetStreamingSourcesActive(kind string, count int) {
	StreamingSourcesActive.WithLabelValues(kind).Set(float64(count))
}

// RecordStreamingSourceRestart records one restart attempt for kind.
func RecordStreamingSourceRestart(kind string) {
	StreamingSourceRestartsTotal.WithLabelValues(kind).Inc()
}

// RecordStreamingEntry records one entry published through the hub.
func RecordStreamingEntry(kind string) {
	StreamingEntriesTotal.WithLabelValues(kind).Inc()
}

// RecordMCPToolCall records the outcome and latency of one MCP tool call.
func RecordMCPToolCall(tool, outcome string, d time.Duration) {
	MCPToolCallsTotal.WithLabelValues(tool, outcome).Inc()
	MCPToolCallDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// Server wraps an http.Server exposing /metrics and /health, matching the
// teacher's MetricsServer shape.
type Server struct {
	server *http.Server
	logger *logrus.Logger
}

// NewServer builds a metrics HTTP server bound to addr at path (typically
// "/metrics"); it is not started until Start is called.
func NewServer(addr, path string, logger *logrus.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{Addr: addr, Handler: mux},
		logger: logger,
	}
}

// Start runs the metrics server in a background goroutine.
func (s *Server) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.WithError(err).Error("metrics server stopped")
			}
		}
	}()
}

// Stop gracefully closes the metrics server.
func (s *Server) Stop() error {
	return s.server.Close()
}
