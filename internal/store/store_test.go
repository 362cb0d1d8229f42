package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loglens/loglens/pkg/apperr"
	"github.com/loglens/loglens/pkg/types"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	db, err := Open(context.Background(), path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndGetProject(t *testing.T) {
	db := openTestDB(t)
	p, err := db.CreateProject(context.Background(), types.Project{ID: uuid.NewString(), Name: "demo", RootPath: "/tmp/demo"})
	require.NoError(t, err)

	got, err := db.GetProject(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.RootPath, got.RootPath)
}

func TestGetProject_NotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetProject(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestUpdateStatus_EnforcesMonotonicTransitions(t *testing.T) {
	db := openTestDB(t)
	p, err := db.CreateProject(context.Background(), types.Project{ID: uuid.NewString(), Name: "demo", RootPath: "/tmp/demo2"})
	require.NoError(t, err)
	a, err := db.CreateAnalysis(context.Background(), types.Analysis{ID: uuid.NewString(), ProjectID: p.ID, Provider: "mock", Level: "ERROR"})
	require.NoError(t, err)

	require.NoError(t, db.UpdateStatus(context.Background(), a.ID, types.AnalysisRunning, ""))
	require.NoError(t, db.UpdateStatus(context.Background(), a.ID, types.AnalysisCompleted, ""))

	err = db.UpdateStatus(context.Background(), a.ID, types.AnalysisRunning, "")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestCreateAnalysis_ConcurrentInsertsYieldDistinctRows(t *testing.T) {
	db := openTestDB(t)
	p, err := db.CreateProject(context.Background(), types.Project{ID: uuid.NewString(), Name: "demo", RootPath: "/tmp/demo3"})
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := db.CreateAnalysis(context.Background(), types.Analysis{ID: uuid.NewString(), ProjectID: p.ID, Provider: "mock", Level: "ERROR"})
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	rows, err := db.QueryAnalyses(context.Background(), QueryAnalysesFilter{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Len(t, rows, n)
}

func TestStreamingLogsRingBuffer_TrimsToCapacity(t *testing.T) {
	db := openTestDB(t)
	p, err := db.CreateProject(context.Background(), types.Project{ID: uuid.NewString(), Name: "demo", RootPath: "/tmp/demo4"})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, db.AppendStreamingLog(context.Background(), p.ID, "src1", types.LogEntry{Message: "line"}, 5))
	}

	tail, err := db.TailStreamingLogs(context.Background(), p.ID, "src1", 100)
	require.NoError(t, err)
	assert.Len(t, tail, 5)
}
