package store

import (
	"context"
	"time"

	"github.com/loglens/loglens/pkg/apperr"
	"github.com/loglens/loglens/pkg/types"
)

// CreateAnalysis inserts a new analysis row in Pending status.
func (db *DB) CreateAnalysis(ctx context.Context, a types.Analysis) (types.Analysis, error) {
	a.Status = types.AnalysisPending
	a.CreatedAt = time.Now().UTC()
	if a.Metadata == nil {
		a.Metadata = []byte("{}")
	}

	err := withRetry(ctx, func() error {
		_, err := db.conn.NamedExecContext(ctx, `
			INSERT INTO analyses (id, project_id, log_file_path, provider, level, status, created_at, started_at, completed_at, error_message, metadata)
			VALUES (:id, :project_id, :log_file_path, :provider, :level, :status, :created_at, :started_at, :completed_at, :error_message, :metadata)
		`, a)
		return err
	})
	if err != nil {
		return types.Analysis{}, wrapIOErr("store", "CreateAnalysis", err)
	}
	return a, nil
}

// GetAnalysis loads an analysis by id.
func (db *DB) GetAnalysis(ctx context.Context, id string) (types.Analysis, error) {
	var a types.Analysis
	err := withRetry(ctx, func() error {
		return db.conn.GetContext(ctx, &a, `SELECT * FROM analyses WHERE id = ?`, id)
	})
	if err != nil {
		return types.Analysis{}, wrapIOErr("store", "GetAnalysis", err)
	}
	return a, nil
}

// QueryAnalysesFilter narrows QueryAnalyses; zero values mean "no filter".
type QueryAnalysesFilter struct {
	ProjectID string
	Status    types.AnalysisStatus
	Since     time.Time
	Limit     int
}

// defaultQueryLimit and maxQueryLimit bound query_analyses per spec.md §4.H.
const defaultQueryLimit = 50
const maxQueryLimit = 200

// QueryAnalyses lists analyses matching filter, newest-first.
func (db *DB) QueryAnalyses(ctx context.Context, filter QueryAnalysesFilter) ([]types.Analysis, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	query := `SELECT * FROM analyses WHERE 1=1`
	var args []any
	if filter.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, filter.ProjectID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if !filter.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	var out []types.Analysis
	err := withRetry(ctx, func() error {
		return db.conn.SelectContext(ctx, &out, query, args...)
	})
	if err != nil {
		return nil, wrapIOErr("store", "QueryAnalyses", err)
	}
	return out, nil
}

// CountAnalyses returns the number of analysis rows for a project, used by
// the MCP list_projects tool's aggregated counts.
func (db *DB) CountAnalyses(ctx context.Context, projectID string) (int, error) {
	var n int
	err := withRetry(ctx, func() error {
		return db.conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM analyses WHERE project_id = ?`, projectID)
	})
	if err != nil {
		return 0, wrapIOErr("store", "CountAnalyses", err)
	}
	return n, nil
}

// UpdateStatus transitions an analysis's status, enforcing the monotonic
// state machine (testable property 5 in spec.md §8). It fails with
// apperr.Conflict if the transition is illegal.
func (db *DB) UpdateStatus(ctx context.Context, id string, next types.AnalysisStatus, errMsg string) error {
	current, err := db.GetAnalysis(ctx, id)
	if err != nil {
		return err
	}
	if !current.Status.ValidTransition(next) {
		return apperr.New(apperr.Conflict, "store", "UpdateStatus", "illegal status transition: "+string(current.Status)+" -> "+string(next))
	}

	now := time.Now().UTC()
	query := `UPDATE analyses SET status = ?, error_message = ?`
	args := []any{next, errMsg}
	switch next {
	case types.AnalysisRunning:
		query += `, started_at = ?`
		args = append(args, now)
	case types.AnalysisCompleted, types.AnalysisFailed:
		query += `, completed_at = ?`
		args = append(args, now)
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	return withRetry(ctx, func() error {
		_, err := db.conn.ExecContext(ctx, query, args...)
		return wrapIOErr("store", "UpdateStatus", err)
	})
}

// SaveAnalysisResult upserts the result row for a completed analysis.
func (db *DB) SaveAnalysisResult(ctx context.Context, r types.AnalysisResult) error {
	return withRetry(ctx, func() error {
		_, err := db.conn.NamedExecContext(ctx, `
			INSERT INTO analysis_results (analysis_id, summary, full_report, patterns_detected, issues_found, metadata)
			VALUES (:analysis_id, :summary, :full_report, :patterns_detected, :issues_found, :metadata)
			ON CONFLICT(analysis_id) DO UPDATE SET
				summary = excluded.summary,
				full_report = excluded.full_report,
				patterns_detected = excluded.patterns_detected,
				issues_found = excluded.issues_found,
				metadata = excluded.metadata
		`, r)
		return wrapIOErr("store", "SaveAnalysisResult", err)
	})
}

// GetAnalysisResult loads the result row for an analysis.
func (db *DB) GetAnalysisResult(ctx context.Context, analysisID string) (types.AnalysisResult, error) {
	var r types.AnalysisResult
	err := withRetry(ctx, func() error {
		return db.conn.GetContext(ctx, &r, `SELECT * FROM analysis_results WHERE analysis_id = ?`, analysisID)
	})
	if err != nil {
		return types.AnalysisResult{}, wrapIOErr("store", "GetAnalysisResult", err)
	}
	return r, nil
}
