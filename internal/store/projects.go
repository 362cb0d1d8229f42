package store

import (
	"context"
	"time"

	"github.com/loglens/loglens/pkg/types"
)

// CreateProject inserts a new project row. Timestamps are stamped here so
// callers never need a clock.
func (db *DB) CreateProject(ctx context.Context, p types.Project) (types.Project, error) {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Metadata == nil {
		p.Metadata = []byte("{}")
	}

	err := withRetry(ctx, func() error {
		_, err := db.conn.NamedExecContext(ctx, `
			INSERT INTO projects (id, name, root_path, created_at, updated_at, metadata)
			VALUES (:id, :name, :root_path, :created_at, :updated_at, :metadata)
		`, p)
		return err
	})
	if err != nil {
		return types.Project{}, wrapIOErr("store", "CreateProject", err)
	}
	return p, nil
}

// GetProject loads a project by id.
func (db *DB) GetProject(ctx context.Context, id string) (types.Project, error) {
	var p types.Project
	err := withRetry(ctx, func() error {
		return db.conn.GetContext(ctx, &p, `SELECT * FROM projects WHERE id = ?`, id)
	})
	if err != nil {
		return types.Project{}, wrapIOErr("store", "GetProject", err)
	}
	return p, nil
}

// GetProjectByPath loads a project by its root path.
func (db *DB) GetProjectByPath(ctx context.Context, rootPath string) (types.Project, error) {
	var p types.Project
	err := withRetry(ctx, func() error {
		return db.conn.GetContext(ctx, &p, `SELECT * FROM projects WHERE root_path = ?`, rootPath)
	})
	if err != nil {
		return types.Project{}, wrapIOErr("store", "GetProjectByPath", err)
	}
	return p, nil
}

// ListProjects returns every project row, newest-updated first.
func (db *DB) ListProjects(ctx context.Context) ([]types.Project, error) {
	var out []types.Project
	err := withRetry(ctx, func() error {
		return db.conn.SelectContext(ctx, &out, `SELECT * FROM projects ORDER BY updated_at DESC`)
	})
	if err != nil {
		return nil, wrapIOErr("store", "ListProjects", err)
	}
	return out, nil
}
