// Package storage is the SQLite gateway shared by every component: one lazily
// opened connection, schema reconciliation on first connect, and thin
// parameterized query helpers that return rows as column maps.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

// DefaultPath is used when neither DATABASE_URL nor SQLITE_DB_PATH is set.
const DefaultPath = "./data/fintrack.db"

// ErrStorageUnavailable means the database could not be opened at all.
var ErrStorageUnavailable = errors.New("storage unavailable")

type Options struct {
	// DSN is a file path or a sqlite:// / file: URL.
	DSN    string
	Logger *slog.Logger
}

// DB owns the single database handle of the process.
type DB struct {
	path   string
	logger *slog.Logger

	mu         sync.Mutex
	db         *sql.DB
	reconciled bool
	report     ReconcileReport

	lastID atomic.Int64
}

// New builds an unopened gateway. Nothing touches the disk until Connect.
func New(opts Options) *DB {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DB{
		path:   ResolvePath(opts.DSN),
		logger: logger.With("component", "storage"),
	}
}

// ResolvePath turns a configured DSN into a file path for the sqlite driver.
func ResolvePath(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	for _, prefix := range []string{"sqlite3://", "sqlite://", "file:"} {
		if strings.HasPrefix(dsn, prefix) {
			dsn = strings.TrimPrefix(dsn, prefix)
			break
		}
	}
	if i := strings.IndexByte(dsn, '?'); i >= 0 {
		dsn = dsn[:i]
	}
	if dsn == "" {
		return DefaultPath
	}
	return dsn
}

// Path is the database file backing the gateway.
func (d *DB) Path() string { return d.path }

func (d *DB) driverDSN() string {
	return d.path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Connect returns the open handle, opening it on first use. Reconciliation
// runs once per DB; a failed open is not remembered and the next call retries.
func (d *DB) Connect(ctx context.Context) (*sql.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != nil {
		return d.db, nil
	}

	if dir := filepath.Dir(d.path); dir != "." && d.path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create db directory: %v", ErrStorageUnavailable, err)
		}
	}

	db, err := sql.Open("sqlite", d.driverDSN())
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite database: %v", ErrStorageUnavailable, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %v", ErrStorageUnavailable, err)
	}

	if !d.reconciled {
		d.report = newReconciler(db, d.driverDSN(), d.logger).run(ctx)
		d.reconciled = true
	}

	d.db = db
	d.logger.InfoContext(ctx, "Database connected", "path", d.path)
	return db, nil
}

// Reconciled reports what the schema reconciliation did on first connect.
func (d *DB) Reconciled() ReconcileReport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.report
}

func (d *DB) Ping(ctx context.Context) error {
	db, err := d.Connect(ctx)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

// Query runs a read and returns every row. No rows yields an empty slice.
func (d *DB) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	db, err := d.Connect(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out := []Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, newRow(cols, vals))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// QueryOne returns the first row, or ok=false when there is none.
func (d *DB) QueryOne(ctx context.Context, query string, args ...any) (Row, bool, error) {
	rows, err := d.Query(ctx, query, args...)
	if err != nil || len(rows) == 0 {
		return Row{}, false, err
	}
	return rows[0], true, nil
}

// Exec runs a write and returns the number of rows it changed.
func (d *DB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	db, err := d.Connect(ctx)
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Insert runs an INSERT and returns the generated id, which also becomes
// LastInsertID.
func (d *DB) Insert(ctx context.Context, query string, args ...any) (int64, error) {
	db, err := d.Connect(ctx)
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	d.lastID.Store(id)
	return id, nil
}

// LastInsertID is the id generated by the most recent Insert on this gateway.
func (d *DB) LastInsertID() int64 {
	return d.lastID.Load()
}
