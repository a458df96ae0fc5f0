package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// SQLDB is the database interface used by all stores.
// Both *sql.DB and *TimedDB satisfy this interface.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var (
	_ SQLDB = (*sql.DB)(nil)
	_ SQLDB = (*TimedDB)(nil)
)

// DefaultSlowQuery is the threshold used when NewTimedDB is given zero.
const DefaultSlowQuery = 50 * time.Millisecond

// TimedDB wraps a *sql.DB, counting statements and logging slow or failed ones.
type TimedDB struct {
	db      *sql.DB
	slow    time.Duration
	queries atomic.Int64
	slowN   atomic.Int64
	failed  atomic.Int64
}

// NewTimedDB wraps db.
// PRE: db is open
// POST: Returns a TimedDB that warns on statements at or above slow
func NewTimedDB(db *sql.DB, slow time.Duration) *TimedDB {
	if slow <= 0 {
		slow = DefaultSlowQuery
	}
	return &TimedDB{db: db, slow: slow}
}

// Stats returns how many statements ran and how many were slow.
func (t *TimedDB) Stats() (queries, slow int64) {
	return t.queries.Load(), t.slowN.Load()
}

// Failed returns how many statements returned an error other than cancellation.
func (t *TimedDB) Failed() int64 {
	return t.failed.Load()
}

func (t *TimedDB) observe(op, query string, start time.Time, err error) {
	elapsed := time.Since(start)
	t.queries.Add(1)
	durationMs := float64(elapsed.Microseconds()) / 1000.0

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, sql.ErrNoRows) {
		t.failed.Add(1)
		slog.Warn("db_event", "event", "query_failed", "op", op, "query", firstLine(query), "error", err)
	}
	if elapsed >= t.slow {
		t.slowN.Add(1)
		slog.Warn("db_event", "event", "slow_query", "op", op, "query", firstLine(query), "duration_ms", durationMs)
		return
	}
	slog.Debug("db_event", "event", "query", "op", op, "duration_ms", durationMs)
}

// firstLine trims a statement to its first non-blank line for logging.
func firstLine(q string) string {
	q = strings.TrimSpace(q)
	if i := strings.IndexByte(q, '\n'); i >= 0 {
		return strings.TrimSpace(q[:i])
	}
	return q
}

func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := t.db.ExecContext(ctx, query, args...)
	t.observe("exec", query, start, err)
	return result, err
}

func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.observe("query", query, start, err)
	return rows, err
}

// QueryRowContext defers errors to Scan, so only the Err of the row is observed.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.observe("query_row", query, start, row.Err())
	return row
}

func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	tx, err := t.db.BeginTx(ctx, opts)
	t.observe("begin", "BEGIN", start, err)
	return tx, err
}

// Close closes the underlying database.
func (t *TimedDB) Close() error {
	return t.db.Close()
}

// Ping verifies the database connection.
func (t *TimedDB) Ping(ctx context.Context) error {
	return t.db.PingContext(ctx)
}
