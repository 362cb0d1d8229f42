// Package analysis implements the Analysis Service described in spec.md
// §4.H: create/trigger/get/query operations over analyses, and the
// background executor that runs trigger_analysis outside the calling
// request.
package analysis

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/loglens/loglens/internal/metrics"
	"github.com/loglens/loglens/internal/parser"
	"github.com/loglens/loglens/internal/pipeline"
	"github.com/loglens/loglens/internal/store"
	"github.com/loglens/loglens/pkg/apperr"
	"github.com/loglens/loglens/pkg/types"
)

// MaxLogFileBytes is the size cap trigger_analysis enforces before
// reading a log file, per spec.md §4.H.
const MaxLogFileBytes = 50 * 1024 * 1024

// Service wires the store, a pipeline orchestrator factory, and a
// tracked-task registry into the public Analysis Service operations.
//
// Background execution is grounded on the log-capture teacher's
// pkg/task_manager/task_manager.go tracked-task shape: each trigger_analysis
// call is one tracked task whose completion updates the analyses row
// instead of emitting a heartbeat metric.
type Service struct {
	db              *store.DB
	orchestratorFor func(providerName string) (*pipeline.Orchestrator, error)
	logger          *logrus.Logger

	mu           sync.Mutex
	tasks        map[string]context.CancelFunc
	statusCounts map[types.AnalysisStatus]int
}

// New builds a Service. orchestratorFor resolves a provider name (from the
// analysis row) to a configured Orchestrator for that run.
func New(db *store.DB, orchestratorFor func(string) (*pipeline.Orchestrator, error), logger *logrus.Logger) *Service {
	return &Service{
		db:              db,
		orchestratorFor: orchestratorFor,
		logger:          logger,
		tasks:           make(map[string]context.CancelFunc),
		statusCounts:    make(map[types.AnalysisStatus]int),
	}
}

// recordTransition updates the in-process per-status gauge. It approximates
// the global count from this process's own observed transitions rather than
// re-querying the store, so it resets on restart like any other in-memory
// Prometheus collector.
func (s *Service) recordTransition(prev, next types.AnalysisStatus) {
	s.mu.Lock()
	if prev != "" {
		s.statusCounts[prev]--
	}
	s.statusCounts[next]++
	counts := make(map[types.AnalysisStatus]int, len(s.statusCounts))
	for k, v := range s.statusCounts {
		counts[k] = v
	}
	s.mu.Unlock()

	for status, count := range counts {
		metrics.SetAnalysesByStatus(string(status), count)
	}
}

// CreateAnalysis inserts a Pending row and returns immediately.
func (s *Service) CreateAnalysis(ctx context.Context, projectID, logPath, provider, level string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.CreateAnalysis(ctx, types.Analysis{
		ID:          id,
		ProjectID:   projectID,
		LogFilePath: logPath,
		Provider:    provider,
		Level:       level,
	})
	if err != nil {
		return "", err
	}
	s.recordTransition("", types.AnalysisPending)
	return id, nil
}

// TriggerAnalysis spawns the background run for analysisID. Triggering an
// already-Running or terminal analysis is a no-op that returns the current
// status, per spec.md §4.H's idempotency note.
func (s *Service) TriggerAnalysis(ctx context.Context, analysisID string) (types.AnalysisStatus, error) {
	a, err := s.db.GetAnalysis(ctx, analysisID)
	if err != nil {
		return "", err
	}
	if a.Status == types.AnalysisRunning || a.Status.Terminal() {
		return a.Status, nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.tasks[analysisID] = cancel
	s.mu.Unlock()

	go s.run(runCtx, analysisID)
	return types.AnalysisRunning, nil
}

// Cancel requests cooperative cancellation of a running analysis, if one
// is tracked.
func (s *Service) Cancel(analysisID string) {
	s.mu.Lock()
	cancel, ok := s.tasks[analysisID]
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

func (s *Service) run(ctx context.Context, analysisID string) {
	defer func() {
		s.mu.Lock()
		delete(s.tasks, analysisID)
		s.mu.Unlock()
	}()

	if err := s.db.UpdateStatus(ctx, analysisID, types.AnalysisRunning, ""); err != nil {
		s.logf("failed to mark analysis running: %v", err)
		return
	}
	s.recordTransition(types.AnalysisPending, types.AnalysisRunning)

	report, err := s.execute(ctx, analysisID)
	if err != nil {
		msg := err.Error()
		if updErr := s.db.UpdateStatus(context.Background(), analysisID, types.AnalysisFailed, msg); updErr != nil {
			s.logf("failed to mark analysis failed: %v", updErr)
		}
		s.recordTransition(types.AnalysisRunning, types.AnalysisFailed)
		return
	}

	fullReport, _ := json.Marshal(report)
	patterns, _ := json.Marshal(report.Patterns)
	if err := s.db.SaveAnalysisResult(context.Background(), types.AnalysisResult{
		AnalysisID:       analysisID,
		Summary:          report.Summary,
		FullReport:       fullReport,
		PatternsDetected: patterns,
		IssuesFound:      len(report.Issues),
	}); err != nil {
		s.logf("failed to save analysis result: %v", err)
		_ = s.db.UpdateStatus(context.Background(), analysisID, types.AnalysisFailed, err.Error())
		s.recordTransition(types.AnalysisRunning, types.AnalysisFailed)
		return
	}

	if err := s.db.UpdateStatus(context.Background(), analysisID, types.AnalysisCompleted, ""); err != nil {
		s.logf("failed to mark analysis completed: %v", err)
		return
	}
	s.recordTransition(types.AnalysisRunning, types.AnalysisCompleted)
}

func (s *Service) execute(ctx context.Context, analysisID string) (types.AnalysisReport, error) {
	a, err := s.db.GetAnalysis(ctx, analysisID)
	if err != nil {
		return types.AnalysisReport{}, err
	}

	entries, err := readAndParse(a.LogFilePath)
	if err != nil {
		return types.AnalysisReport{}, err
	}

	o, err := s.orchestratorFor(a.Provider)
	if err != nil {
		return types.AnalysisReport{}, err
	}

	return o.Run(ctx, types.AnalysisRequest{
		Entries:   entries,
		Threshold: types.ParseSeverity(a.Level),
		Provider:  a.Provider,
	}, nil)
}

// readAndParse enforces the 50 MiB size cap and parses the file in Text
// auto-detect mode.
func readAndParse(path string) ([]types.LogEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, apperr.New(apperr.InvalidInput, "analysis", "readAndParse", "log file not found").Wrap(err)
	}
	if info.Size() > MaxLogFileBytes {
		return nil, apperr.New(apperr.InvalidInput, "analysis", "readAndParse", "log file exceeds 50 MiB cap")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.New(apperr.IO, "analysis", "readAndParse", "open log file").Wrap(err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, apperr.New(apperr.IO, "analysis", "readAndParse", "read log file").Wrap(err)
	}

	p := parser.New(types.ParserConfig{Format: types.FormatText})
	return parser.ParseLines(p, lines), nil
}

// GetAnalysis joins the analysis and its result row, shaping the response
// per the requested format.
func (s *Service) GetAnalysis(ctx context.Context, analysisID string, format types.AnalysisFormat) (types.Analysis, types.AnalysisResult, error) {
	a, err := s.db.GetAnalysis(ctx, analysisID)
	if err != nil {
		return types.Analysis{}, types.AnalysisResult{}, err
	}
	if a.Status != types.AnalysisCompleted {
		return a, types.AnalysisResult{}, nil
	}
	result, err := s.db.GetAnalysisResult(ctx, analysisID)
	if err != nil {
		return a, types.AnalysisResult{}, err
	}
	if format == types.FormatSummary {
		result.FullReport = nil
		result.PatternsDetected = nil
	}
	return a, result, nil
}

// QueryAnalyses lists analyses matching filter.
func (s *Service) QueryAnalyses(ctx context.Context, filter store.QueryAnalysesFilter) ([]types.Analysis, error) {
	return s.db.QueryAnalyses(ctx, filter)
}

// UpdateStatus enforces the monotonic transition and persists it.
func (s *Service) UpdateStatus(ctx context.Context, analysisID string, next types.AnalysisStatus, errMsg string) error {
	return s.db.UpdateStatus(ctx, analysisID, next, errMsg)
}

func (s *Service) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.WithField("component", "analysis").Errorf(format, args...)
	}
}
