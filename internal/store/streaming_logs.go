package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/loglens/loglens/pkg/types"
)

// DefaultRingBufferSize bounds streaming_logs per project+source pair, per
// SPEC_FULL.md §4.I.
const DefaultRingBufferSize = 10000

// AppendStreamingLog inserts one streamed entry and trims the ring buffer
// for (projectID, sourceID) back down to capacity, oldest-first.
func (db *DB) AppendStreamingLog(ctx context.Context, projectID, sourceID string, e types.LogEntry, capacity int) error {
	if capacity <= 0 {
		capacity = DefaultRingBufferSize
	}
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		metadata = []byte("{}")
	}

	return withRetry(ctx, func() error {
		tx, err := db.conn.BeginTxx(ctx, nil)
		if err != nil {
			return wrapIOErr("store", "AppendStreamingLog", err)
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(ctx, `
			INSERT INTO streaming_logs (project_id, source_id, timestamp, severity, message, source, line, metadata, received_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, projectID, sourceID, e.Timestamp, e.Severity, e.Message, e.Source, e.Line, metadata, time.Now().UTC())
		if err != nil {
			return wrapIOErr("store", "AppendStreamingLog", err)
		}

		_, err = tx.ExecContext(ctx, `
			DELETE FROM streaming_logs
			WHERE project_id = ? AND source_id = ? AND id NOT IN (
				SELECT id FROM streaming_logs
				WHERE project_id = ? AND source_id = ?
				ORDER BY id DESC LIMIT ?
			)
		`, projectID, sourceID, projectID, sourceID, capacity)
		if err != nil {
			return wrapIOErr("store", "AppendStreamingLog", err)
		}

		if err := tx.Commit(); err != nil {
			return wrapIOErr("store", "AppendStreamingLog", err)
		}
		return nil
	})
}

// TailStreamingLogs returns up to limit most recent entries for a source,
// oldest-first.
func (db *DB) TailStreamingLogs(ctx context.Context, projectID, sourceID string, limit int) ([]types.LogEntry, error) {
	if limit <= 0 || limit > DefaultRingBufferSize {
		limit = DefaultRingBufferSize
	}

	type row struct {
		Timestamp string         `db:"timestamp"`
		Severity  types.Severity `db:"severity"`
		Message   string         `db:"message"`
		Source    string         `db:"source"`
		Line      int            `db:"line"`
		Metadata  []byte         `db:"metadata"`
	}
	var rows []row
	err := withRetry(ctx, func() error {
		return db.conn.SelectContext(ctx, &rows, `
			SELECT timestamp, severity, message, source, line, metadata FROM (
				SELECT * FROM streaming_logs WHERE project_id = ? AND source_id = ?
				ORDER BY id DESC LIMIT ?
			) ORDER BY id ASC
		`, projectID, sourceID, limit)
	})
	if err != nil {
		return nil, wrapIOErr("store", "TailStreamingLogs", err)
	}

	out := make([]types.LogEntry, len(rows))
	for i, r := range rows {
		var meta map[string]any
		_ = json.Unmarshal(r.Metadata, &meta)
		out[i] = types.LogEntry{
			Timestamp: r.Timestamp,
			Severity:  r.Severity,
			Message:   r.Message,
			Source:    r.Source,
			Line:      r.Line,
			Metadata:  meta,
		}
	}
	return out, nil
}
