package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/loglens/loglens/internal/aiprovider"
	"github.com/loglens/loglens/pkg/apperr"
	"github.com/loglens/loglens/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_EmptyLogProducesHundredScore(t *testing.T) {
	o := New(&aiprovider.Mock{})
	report, err := o.Run(context.Background(), types.AnalysisRequest{Threshold: types.SeverityError}, nil)
	require.NoError(t, err)
	assert.Equal(t, 100.0, report.Performance.Score)
	assert.Equal(t, 0, report.Metadata.EntriesBefore)
}

func TestRun_ProgressIsMonotonicNonDecreasing(t *testing.T) {
	o := New(&aiprovider.Mock{})
	var fractions []float64
	_, err := o.Run(context.Background(), types.AnalysisRequest{
		Entries: []types.LogEntry{{Severity: types.SeverityError, Message: "x"}},
	}, func(e types.ProgressEvent) {
		fractions = append(fractions, e.Fraction)
	})
	require.NoError(t, err)
	for i := 1; i < len(fractions); i++ {
		assert.GreaterOrEqual(t, fractions[i], fractions[i-1])
	}
	assert.InDelta(t, 1.0, fractions[len(fractions)-1], 1e-9)
}

func TestRun_AIFailureIsFatalAndEnhancersNotUsed(t *testing.T) {
	boom := apperr.New(apperr.Transport, "mock", "Analyze", "simulated failure")
	o := New(&aiprovider.Mock{AnalyzeFunc: func(ctx context.Context, req types.AnalysisRequest) (types.AnalysisReport, error) {
		return types.AnalysisReport{}, boom
	}})

	report, err := o.Run(context.Background(), types.AnalysisRequest{
		Entries: []types.LogEntry{{Severity: types.SeverityError, Message: "x"}},
	}, nil)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Transport))
	assert.Empty(t, report.Summary)
}

func TestRun_CancellationDuringAIReturnsCancelledQuickly(t *testing.T) {
	o := New(&aiprovider.Mock{AnalyzeFunc: func(ctx context.Context, req types.AnalysisRequest) (types.AnalysisReport, error) {
		select {
		case <-ctx.Done():
			return types.AnalysisReport{}, apperr.New(apperr.Cancelled, "mock", "Analyze", "cancelled").Wrap(ctx.Err())
		case <-time.After(10 * time.Minute):
			return types.AnalysisReport{}, nil
		}
	}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
		close(done)
	}()

	start := time.Now()
	_, err := o.Run(ctx, types.AnalysisRequest{
		Entries: []types.LogEntry{{Severity: types.SeverityError, Message: "x"}},
	}, nil)
	elapsed := time.Since(start)
	<-done

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Cancelled))
	assert.Less(t, elapsed, 30*time.Second)
}

func TestRun_RepeatedErrorEntriesProduceSummary(t *testing.T) {
	var msgs []string
	for i := 0; i < 10; i++ {
		msgs = append(msgs, "DB timeout after 42 ms")
	}
	entries := make([]types.LogEntry, len(msgs))
	for i, m := range msgs {
		entries[i] = types.LogEntry{Severity: types.SeverityError, Message: m}
	}

	o := New(&aiprovider.Mock{})
	report, err := o.Run(context.Background(), types.AnalysisRequest{Entries: entries}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Summary)
}
