package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loglens/loglens/internal/aiprovider"
	"github.com/loglens/loglens/internal/pipeline"
	"github.com/loglens/loglens/internal/store"
	"github.com/loglens/loglens/pkg/types"
)

func newTestService(t *testing.T) (*Service, *store.DB, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "index.db")
	db, err := store.Open(context.Background(), dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := New(db, func(name string) (*pipeline.Orchestrator, error) {
		return pipeline.New(&aiprovider.Mock{}), nil
	}, nil)

	p, err := db.CreateProject(context.Background(), types.Project{ID: uuid.NewString(), Name: "demo", RootPath: t.TempDir()})
	require.NoError(t, err)
	return svc, db, p.ID
}

func waitForTerminal(t *testing.T, svc *Service, id string) types.Analysis {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		a, _, err := svc.GetAnalysis(context.Background(), id, types.FormatFull)
		require.NoError(t, err)
		if a.Status.Terminal() {
			return a
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("analysis did not reach a terminal state in time")
	return types.Analysis{}
}

func TestTriggerAnalysis_HappyPathCompletes(t *testing.T) {
	svc, _, projectID := newTestService(t)

	logPath := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(logPath, []byte("2024-01-01T00:00:00Z ERROR boom\n"), 0o644))

	id, err := svc.CreateAnalysis(context.Background(), projectID, logPath, "mock", "ERROR")
	require.NoError(t, err)

	status, err := svc.TriggerAnalysis(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, types.AnalysisRunning, status)

	final := waitForTerminal(t, svc, id)
	assert.Equal(t, types.AnalysisCompleted, final.Status)
}

func TestTriggerAnalysis_OversizeFileFails(t *testing.T) {
	svc, _, projectID := newTestService(t)

	logPath := filepath.Join(t.TempDir(), "huge.log")
	f, err := os.Create(logPath)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(MaxLogFileBytes+1))
	require.NoError(t, f.Close())

	id, err := svc.CreateAnalysis(context.Background(), projectID, logPath, "mock", "ERROR")
	require.NoError(t, err)
	_, err = svc.TriggerAnalysis(context.Background(), id)
	require.NoError(t, err)

	final := waitForTerminal(t, svc, id)
	assert.Equal(t, types.AnalysisFailed, final.Status)
	assert.NotEmpty(t, final.ErrorMessage)
}

func TestTriggerAnalysis_IsIdempotentWhileRunning(t *testing.T) {
	svc, _, projectID := newTestService(t)
	logPath := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(logPath, []byte("hello\n"), 0o644))

	id, err := svc.CreateAnalysis(context.Background(), projectID, logPath, "mock", "ERROR")
	require.NoError(t, err)

	_, err = svc.TriggerAnalysis(context.Background(), id)
	require.NoError(t, err)
	// A second trigger while the first is in flight (or already terminal)
	// must not start a duplicate run; it simply reports current status.
	status2, err := svc.TriggerAnalysis(context.Background(), id)
	require.NoError(t, err)
	assert.NotEmpty(t, status2)

	final := waitForTerminal(t, svc, id)
	assert.True(t, final.Status.Terminal())
}
