package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

// StepWarning records a reconciliation step that failed. It is logged and
// collected, never returned to callers of Connect.
type StepWarning struct {
	Step string
	Err  error
}

func (w StepWarning) Error() string {
	return fmt.Sprintf("schema step %s: %v", w.Step, w.Err)
}

func (w StepWarning) Unwrap() error { return w.Err }

// ReconcileReport summarizes the first-connect schema reconciliation.
type ReconcileReport struct {
	// Fresh is true when none of the core tables existed beforehand.
	Fresh    bool
	Applied  []string
	Warnings []StepWarning
	// Fallback is true when every step failed and the minimal schema was used.
	Fallback         bool
	MigrationVersion uint
}

// OK reports whether every step succeeded.
func (r ReconcileReport) OK() bool { return len(r.Warnings) == 0 }

var coreTables = []string{"users", "starting_balance", "transactions", "categories"}

type step struct {
	name string
	run  func(ctx context.Context) error
}

type reconciler struct {
	db       *sql.DB
	dsn      string
	logger   *slog.Logger
	steps    []step
	fallback func(ctx context.Context) error
	retry    []step

	report ReconcileReport
}

func newReconciler(db *sql.DB, dsn string, logger *slog.Logger) *reconciler {
	r := &reconciler{db: db, dsn: dsn, logger: logger}
	r.steps = []step{
		{"detect", r.detect},
		{"patch-transactions", r.patchTransactions},
		{"migrate", r.migrate},
		{"indexes", r.indexes},
	}
	r.fallback = r.minimalSchema
	r.retry = []step{
		{"patch-transactions", r.patchTransactions},
		{"patch-categories", r.patchCategories},
		{"owner-indexes", r.ownerIndexes},
	}
	return r
}

// run executes every step in order. A failing step is logged and skipped;
// only when all of them fail does the minimal schema get created.
func (r *reconciler) run(ctx context.Context) ReconcileReport {
	failed := 0
	for _, s := range r.steps {
		if r.apply(ctx, s) {
			continue
		}
		failed++
	}

	if failed == len(r.steps) && r.fallback != nil {
		r.report.Fallback = true
		r.apply(ctx, step{"minimal-schema", r.fallback})
		for _, s := range r.retry {
			r.apply(ctx, s)
		}
	}

	r.logger.InfoContext(ctx, "Schema reconciliation finished",
		"fresh", r.report.Fresh,
		"applied", strings.Join(r.report.Applied, ","),
		"warnings", len(r.report.Warnings),
		"fallback", r.report.Fallback,
		"version", r.report.MigrationVersion)
	return r.report
}

func (r *reconciler) apply(ctx context.Context, s step) bool {
	if err := s.run(ctx); err != nil {
		w := StepWarning{Step: s.name, Err: err}
		r.report.Warnings = append(r.report.Warnings, w)
		r.logger.WarnContext(ctx, "Schema reconciliation step failed", "step", s.name, "error", err)
		return false
	}
	r.report.Applied = append(r.report.Applied, s.name)
	return true
}

func (r *reconciler) detect(ctx context.Context) error {
	found := 0
	for _, table := range coreTables {
		ok, err := tableExists(ctx, r.db, table)
		if err != nil {
			return err
		}
		if ok {
			found++
		}
	}
	r.report.Fresh = found == 0
	return nil
}

// transactionColumns lists the columns older databases may lack, in the order
// they are added. created_at comes first because occurred_at backfills from it.
var transactionColumns = []struct {
	name string
	ddl  string
}{
	{"user_id", "user_id INTEGER NOT NULL DEFAULT 0"},
	{"created_at", "created_at TEXT"},
	{"kind", "kind TEXT NOT NULL DEFAULT 'expense'"},
	{"occurred_at", "occurred_at TEXT"},
	{"category", "category TEXT"},
	{"updated_at", "updated_at TEXT"},
}

func (r *reconciler) patchTransactions(ctx context.Context) error {
	exists, err := tableExists(ctx, r.db, "transactions")
	if err != nil || !exists {
		return err
	}

	cols, err := tableColumns(ctx, r.db, "transactions")
	if err != nil {
		return err
	}

	added := map[string]bool{}
	for _, c := range transactionColumns {
		if cols[c.name] {
			continue
		}
		if _, err := r.db.ExecContext(ctx, "ALTER TABLE transactions ADD COLUMN "+c.ddl); err != nil {
			return fmt.Errorf("add %s to transactions: %w", c.name, err)
		}
		added[c.name] = true
		r.logger.InfoContext(ctx, "Added missing column", "table", "transactions", "column", c.name)
	}

	if added["created_at"] {
		if _, err := r.db.ExecContext(ctx,
			`UPDATE transactions SET created_at = CURRENT_TIMESTAMP WHERE created_at IS NULL`); err != nil {
			return fmt.Errorf("backfill created_at: %w", err)
		}
	}

	if added["kind"] && cols["type"] {
		if _, err := r.db.ExecContext(ctx, `
			UPDATE transactions
			SET kind = CASE WHEN lower(trim(type)) IN ('deposit', 'income') THEN 'deposit' ELSE 'expense' END`); err != nil {
			return fmt.Errorf("backfill kind from type: %w", err)
		}
	}

	source := "created_at"
	if cols["date"] {
		source = "date, created_at"
	}
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE transactions SET occurred_at = COALESCE(%s, CURRENT_TIMESTAMP) WHERE occurred_at IS NULL`, source)); err != nil {
		return fmt.Errorf("backfill occurred_at: %w", err)
	}
	return nil
}

// patchCategories adds the columns category reads and the default seeding
// rely on to a categories table that predates them.
func (r *reconciler) patchCategories(ctx context.Context) error {
	exists, err := tableExists(ctx, r.db, "categories")
	if err != nil || !exists {
		return err
	}
	cols, err := tableColumns(ctx, r.db, "categories")
	if err != nil {
		return err
	}

	if !cols["kind"] {
		if _, err := r.db.ExecContext(ctx,
			`ALTER TABLE categories ADD COLUMN kind TEXT CHECK (kind IS NULL OR kind IN ('expense', 'deposit'))`); err != nil {
			return fmt.Errorf("add kind to categories: %w", err)
		}
		r.logger.InfoContext(ctx, "Added missing column", "table", "categories", "column", "kind")
	}
	if !cols["created_at"] {
		if _, err := r.db.ExecContext(ctx, `ALTER TABLE categories ADD COLUMN created_at TEXT`); err != nil {
			return fmt.Errorf("add created_at to categories: %w", err)
		}
		if _, err := r.db.ExecContext(ctx,
			`UPDATE categories SET created_at = CURRENT_TIMESTAMP WHERE created_at IS NULL`); err != nil {
			return fmt.Errorf("backfill categories created_at: %w", err)
		}
		r.logger.InfoContext(ctx, "Added missing column", "table", "categories", "column", "created_at")
	}
	return nil
}

// ownerIndexes creates the unique indexes the starting-balance upsert and
// INSERT OR IGNORE seeding depend on. It fails on tables that already hold
// duplicates.
func (r *reconciler) ownerIndexes(ctx context.Context) error {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_starting_balance_user ON starting_balance(user_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_user_name ON categories(user_id, name)`,
	}
	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("create unique index: %w", err)
		}
	}
	return nil
}

func (r *reconciler) migrate(ctx context.Context) error {
	version, err := RunMigrations(r.dsn)
	r.report.MigrationVersion = version
	return err
}

func (r *reconciler) indexes(ctx context.Context) error {
	exists, err := tableExists(ctx, r.db, "transactions")
	if err != nil || !exists {
		return err
	}
	cols, err := tableColumns(ctx, r.db, "transactions")
	if err != nil {
		return err
	}

	var stmts []string
	if cols["user_id"] && cols["occurred_at"] {
		stmts = append(stmts, "CREATE INDEX IF NOT EXISTS idx_transactions_user_occurred ON transactions(user_id, occurred_at)")
	}
	if cols["user_id"] && cols["kind"] {
		stmts = append(stmts, "CREATE INDEX IF NOT EXISTS idx_transactions_user_kind ON transactions(user_id, kind)")
	}
	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// minimalSchema is enough for sign-in with default categories, plain
// transactions and the balance.
func (r *reconciler) minimalSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			google_id TEXT UNIQUE,
			email TEXT UNIQUE,
			name TEXT,
			picture TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			amount DECIMAL(10,2) NOT NULL,
			description TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS starting_balance (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			amount DECIMAL(10,2) NOT NULL DEFAULT 0,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '#007bff',
			kind TEXT CHECK (kind IS NULL OR kind IN ('expense', 'deposit')),
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, name)
		)`,
	}
	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func tableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("inspect sqlite_master: %w", err)
	}
	return n > 0, nil
}

// tableColumns returns the lower-cased column names of table.
func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `PRAGMA table_info(`+table+`)`)
	if err != nil {
		return nil, fmt.Errorf("inspect %s schema: %w", table, err)
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var cid, notNull, pk int
		var name, ctype string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan %s schema: %w", table, err)
		}
		cols[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s schema: %w", table, err)
	}
	return cols, nil
}
