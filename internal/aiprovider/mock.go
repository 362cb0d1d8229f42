package aiprovider

import (
	"context"
	"fmt"

	"github.com/loglens/loglens/pkg/types"
)

// Mock is a Provider used by tests and local development. It never leaves
// the process; AnalyzeFunc lets tests control latency and failure modes
// (e.g. blocking on ctx.Done() to exercise cancellation liveness).
type Mock struct {
	// AnalyzeFunc, if set, is invoked instead of the default summarizer.
	AnalyzeFunc func(ctx context.Context, req types.AnalysisRequest) (types.AnalysisReport, error)
	// HealthErr, if set, is returned by HealthCheck.
	HealthErr error
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) HealthCheck(ctx context.Context) error {
	return m.HealthErr
}

func (m *Mock) Analyze(ctx context.Context, req types.AnalysisRequest) (types.AnalysisReport, error) {
	req = sanitizeRequest(req)
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, req)
	}

	errCount := 0
	for _, e := range req.Entries {
		if e.Severity >= types.SeverityError {
			errCount++
		}
	}

	report := types.AnalysisReport{
		Summary: fmt.Sprintf("analyzed %d entries, %d at or above error severity", len(req.Entries), errCount),
	}
	if errCount > 0 {
		report.Issues = append(report.Issues, types.Issue{
			Category:    types.CategoryUnknown,
			Severity:    types.SeverityError,
			Description: fmt.Sprintf("%d error-level entries present", errCount),
		})
		report.Recommendations = append(report.Recommendations, "review the flagged entries for root cause")
	}
	return report, nil
}
