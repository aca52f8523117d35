package records

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const transactionColumns = `id, user_id, CAST(ROUND(amount * 100) AS INTEGER) AS amount_cents,
	description, category, kind, occurred_at, created_at, updated_at`

type Transactions struct {
	db Gateway
}

func NewTransactions(db Gateway) *Transactions {
	return &Transactions{db: db}
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Kind     core.Kind
	Category string
	Range    core.DateRange
	Limit    int
}

// Changes are the fields a transaction may be updated with. OccurredAt is
// fixed at creation.
type Changes struct {
	Amount      core.Money
	Description string
	Category    *string
	Kind        core.Kind
}

func scanTransaction(r storage.Row) core.Transaction {
	return core.Transaction{
		ID:          r.Int64("id"),
		UserID:      r.Int64("user_id"),
		Amount:      r.Cents("amount_cents"),
		Description: r.String("description"),
		Category:    r.StringPtr("category"),
		Kind:        core.Kind(r.String("kind")),
		OccurredAt:  r.Time("occurred_at"),
		CreatedAt:   r.Time("created_at"),
		UpdatedAt:   r.Time("updated_at"),
	}
}

func normalizeCategoryRef(c *string) any {
	if c == nil {
		return nil
	}
	s := strings.TrimSpace(*c)
	if s == "" {
		return nil
	}
	return s
}

// Create validates and stores tx for owner. A zero OccurredAt means now.
func (t *Transactions) Create(ctx context.Context, owner int64, tx core.Transaction) (core.Transaction, error) {
	tx.Description = strings.TrimSpace(tx.Description)
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created := now()
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = created
	}

	id, err := t.db.Insert(ctx, `
		INSERT INTO transactions (user_id, amount, description, category, kind, occurred_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		owner, tx.Amount.String(), tx.Description, normalizeCategoryRef(tx.Category), string(tx.Kind),
		core.FormatTimestamp(tx.OccurredAt), core.FormatTimestamp(created))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return t.Get(ctx, owner, id)
}

func (t *Transactions) Get(ctx context.Context, owner, id int64) (core.Transaction, error) {
	row, ok, err := t.db.QueryOne(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, owner)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	if !ok {
		return core.Transaction{}, ErrNotFound
	}
	return scanTransaction(row), nil
}

// List returns the owner's transactions, newest first.
func (t *Transactions) List(ctx context.Context, owner int64, f Filter) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ?`
	args := []any{owner}

	if f.Kind != "" {
		if err := f.Kind.Validate(); err != nil {
			return nil, err
		}
		query += ` AND kind = ?`
		args = append(args, string(f.Kind))
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		query += ` AND category = ?`
		args = append(args, c)
	}
	from, to := f.Range.Bounds()
	if from != "" {
		query += ` AND datetime(occurred_at) >= datetime(?)`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND datetime(occurred_at) < datetime(?)`
		args = append(args, to)
	}
	query += ` ORDER BY datetime(occurred_at) DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := t.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, scanTransaction(r))
	}
	return out, nil
}

// Update applies c to the owner's transaction id.
func (t *Transactions) Update(ctx context.Context, owner, id int64, c Changes) (core.Transaction, error) {
	c.Description = strings.TrimSpace(c.Description)
	probe := core.Transaction{Amount: c.Amount, Description: c.Description, Kind: c.Kind}
	if err := probe.Validate(); err != nil {
		return core.Transaction{}, err
	}

	n, err := t.db.Exec(ctx, `
		UPDATE transactions
		SET amount = ?, description = ?, category = ?, kind = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		c.Amount.String(), c.Description, normalizeCategoryRef(c.Category), string(c.Kind),
		core.FormatTimestamp(now()), id, owner)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, err)
	}
	if n == 0 {
		return core.Transaction{}, ErrNotFound
	}
	return t.Get(ctx, owner, id)
}

func (t *Transactions) Delete(ctx context.Context, owner, id int64) error {
	n, err := t.db.Exec(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// StartingBalance returns the owner's base amount; no row means zero.
func (t *Transactions) StartingBalance(ctx context.Context, owner int64) (core.Money, error) {
	row, ok, err := t.db.QueryOne(ctx, `
		SELECT CAST(ROUND(amount * 100) AS INTEGER) AS amount_cents
		FROM starting_balance WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT 1`, owner)
	if err != nil {
		return core.Money{}, fmt.Errorf("starting balance: %w", err)
	}
	if !ok {
		return core.Money{}, nil
	}
	return row.Cents("amount_cents"), nil
}

// SetStartingBalance replaces the owner's base amount in one statement.
func (t *Transactions) SetStartingBalance(ctx context.Context, owner int64, amount core.Money) error {
	if amount.Cents < 0 {
		return &core.ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	_, err := t.db.Exec(ctx, `
		INSERT INTO starting_balance (user_id, amount, created_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET amount = excluded.amount, created_at = excluded.created_at`,
		owner, amount.String(), core.FormatTimestamp(now()))
	if err != nil {
		return fmt.Errorf("set starting balance: %w", err)
	}
	return nil
}

// CurrentBalance is the starting balance plus deposits minus expenses.
func (t *Transactions) CurrentBalance(ctx context.Context, owner int64) (core.Money, error) {
	start, err := t.StartingBalance(ctx, owner)
	if err != nil {
		return core.Money{}, err
	}
	row, _, err := t.db.QueryOne(ctx, `
		SELECT COALESCE(SUM(CASE WHEN kind = 'deposit'
		                         THEN CAST(ROUND(amount * 100) AS INTEGER)
		                         ELSE -CAST(ROUND(amount * 100) AS INTEGER) END), 0) AS change_cents
		FROM transactions WHERE user_id = ?`, owner)
	if err != nil {
		return core.Money{}, fmt.Errorf("current balance: %w", err)
	}
	return start.Add(row.Cents("change_cents")), nil
}
