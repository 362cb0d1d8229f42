// Package store implements the SQLite index described in spec.md §4.F,
// opened as one database holding every project's rows rather than one
// database per project: schema, bounded connection pool, busy-retry discipline,
// and query/write operations over projects, analyses, and analysis
// results.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/loglens/loglens/pkg/apperr"
)

// maxOpenConns bounds the pool per open database per spec.md §4.F.
const maxOpenConns = 5

// busyRetryBackoff is the single retry delay on SQLITE_BUSY/SQLITE_LOCKED.
const busyRetryBackoff = 50 * time.Millisecond

// DB wraps one SQLite connection pool; the app opens a single DB shared by
// all projects.
type DB struct {
	conn   *sqlx.DB
	logger *logrus.Logger
}

// Open opens (creating if absent) the SQLite database at path, enables WAL
// and foreign keys, and applies pending migrations idempotently.
func Open(ctx context.Context, path string, logger *logrus.Logger) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)
	conn, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, apperr.New(apperr.IO, "store", "Open", "open database").Wrap(err)
	}
	conn.SetMaxOpenConns(maxOpenConns)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, apperr.New(apperr.IO, "store", "Open", "ping database").Wrap(err)
	}

	goose.SetBaseFS(migrationFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		conn.Close()
		return nil, apperr.New(apperr.Internal, "store", "Open", "set goose dialect").Wrap(err)
	}
	if err := goose.UpContext(ctx, conn.DB, "migrations"); err != nil {
		conn.Close()
		return nil, apperr.New(apperr.IO, "store", "Open", "apply migrations").Wrap(err)
	}

	return &DB{conn: conn, logger: logger}, nil
}

// Close releases the pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// isBusy reports whether err indicates SQLITE_BUSY or SQLITE_LOCKED.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy")
}

// withRetry executes fn, retrying exactly once after busyRetryBackoff if
// the first attempt fails with SQLITE_BUSY/SQLITE_LOCKED, per spec.md
// §4.F's stated discipline.
func withRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !isBusy(err) {
		return err
	}
	select {
	case <-time.After(busyRetryBackoff):
	case <-ctx.Done():
		return ctx.Err()
	}
	return fn()
}

// wrapIOErr maps a non-busy, non-nil database error to apperr.IO, unless
// it is already an *apperr.Error.
func wrapIOErr(component, operation string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.NotFound, component, operation, "no such row").Wrap(err)
	}
	return apperr.New(apperr.IO, component, operation, "database operation failed").Wrap(err)
}
