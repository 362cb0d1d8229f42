package aiprovider

import (
	"context"
	"testing"
	"time"

	"github.com/loglens/loglens/pkg/apperr"
	"github.com/loglens/loglens/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMock_AnalyzeDefaultSummarizesErrorCount(t *testing.T) {
	m := &Mock{}
	req := types.AnalysisRequest{
		Entries: []types.LogEntry{
			{Severity: types.SeverityInfo, Message: "ok"},
			{Severity: types.SeverityError, Message: "boom"},
		},
	}
	report, err := m.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Summary)
	assert.Len(t, report.Issues, 1)
}

func TestMock_AnalyzeStripsSecretsBeforeInvokingHook(t *testing.T) {
	var seen string
	m := &Mock{AnalyzeFunc: func(ctx context.Context, req types.AnalysisRequest) (types.AnalysisReport, error) {
		seen = req.UserContext
		return types.AnalysisReport{}, nil
	}}
	_, err := m.Analyze(context.Background(), types.AnalysisRequest{UserContext: "key=sk-ant-abcdef0123456789"})
	require.NoError(t, err)
	assert.NotContains(t, seen, "sk-ant-abcdef0123456789")
}

func TestMock_CancellationYieldsCancelledKind(t *testing.T) {
	m := &Mock{AnalyzeFunc: func(ctx context.Context, req types.AnalysisRequest) (types.AnalysisReport, error) {
		select {
		case <-ctx.Done():
			return types.AnalysisReport{}, ctx.Err()
		case <-time.After(10 * time.Minute):
			return types.AnalysisReport{}, nil
		}
	}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := callWithTimeout(ctx, time.Minute, "mock", func(ctx context.Context) (types.AnalysisReport, error) {
		return m.Analyze(ctx, types.AnalysisRequest{})
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Cancelled))
}
