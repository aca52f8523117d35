package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const categoryColumns = "id, user_id, name, color, kind"

type Categories struct {
	db Gateway
}

func NewCategories(db Gateway) *Categories {
	return &Categories{db: db}
}

func scanCategory(r storage.Row) core.Category {
	c := core.Category{
		ID:     r.Int64("id"),
		UserID: r.Int64("user_id"),
		Name:   r.String("name"),
		Color:  r.String("color"),
	}
	if k, err := core.ParseKind(r.String("kind")); err == nil {
		c.Kind = &k
	}
	return c
}

func kindArg(k *core.Kind) any {
	if k == nil {
		return nil
	}
	return string(*k)
}

func normalizeCategory(c *core.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Color = strings.TrimSpace(c.Color)
	if c.Color == "" {
		c.Color = core.DefaultCategoryColor
	}
	return c.Validate()
}

// Create adds a category for owner. kind may be nil, in which case the
// direction is derived from the name.
func (c *Categories) Create(ctx context.Context, owner int64, name, color string, kind *core.Kind) (core.Category, error) {
	cat := core.Category{UserID: owner, Name: name, Color: color, Kind: kind}
	if err := normalizeCategory(&cat); err != nil {
		return core.Category{}, err
	}
	if err := c.ensureNameFree(ctx, owner, cat.Name, 0); err != nil {
		return core.Category{}, err
	}

	id, err := c.db.Insert(ctx,
		`INSERT INTO categories (user_id, name, color, kind, created_at) VALUES (?, ?, ?, ?, ?)`,
		owner, cat.Name, cat.Color, kindArg(cat.Kind), core.FormatTimestamp(now()))
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, fmt.Errorf("category %q: %w", cat.Name, ErrConflict)
		}
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	cat.ID = id
	return cat, nil
}

func (c *Categories) FindByID(ctx context.Context, owner, id int64) (core.Category, error) {
	row, ok, err := c.db.QueryOne(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`, id, owner)
	if err != nil {
		return core.Category{}, fmt.Errorf("find category %d: %w", id, err)
	}
	if !ok {
		return core.Category{}, ErrNotFound
	}
	return scanCategory(row), nil
}

// ensureNameFree fails with ErrConflict when another of the owner's
// categories already uses name. Databases whose unique index could not be
// built rely on this check alone.
func (c *Categories) ensureNameFree(ctx context.Context, owner int64, name string, self int64) error {
	existing, err := c.FindByName(ctx, owner, name)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return fmt.Errorf("category %q: %w", name, ErrConflict)
	}
	return nil
}

func (c *Categories) FindByName(ctx context.Context, owner int64, name string) (core.Category, error) {
	row, ok, err := c.db.QueryOne(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? AND name = ?`, owner, strings.TrimSpace(name))
	if err != nil {
		return core.Category{}, fmt.Errorf("find category %q: %w", name, err)
	}
	if !ok {
		return core.Category{}, ErrNotFound
	}
	return scanCategory(row), nil
}

// ListByOwner returns the owner's categories sorted by name.
func (c *Categories) ListByOwner(ctx context.Context, owner int64) ([]core.Category, error) {
	rows, err := c.db.Query(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? ORDER BY name ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, scanCategory(r))
	}
	return out, nil
}

// Update changes name, color and kind. A rename is carried over to the
// transactions that reference the old name.
func (c *Categories) Update(ctx context.Context, owner, id int64, name, color string, kind *core.Kind) (core.Category, error) {
	current, err := c.FindByID(ctx, owner, id)
	if err != nil {
		return core.Category{}, err
	}

	next := core.Category{ID: id, UserID: owner, Name: name, Color: color, Kind: kind}
	if err := normalizeCategory(&next); err != nil {
		return core.Category{}, err
	}
	if err := c.ensureNameFree(ctx, owner, next.Name, id); err != nil {
		return core.Category{}, err
	}

	n, err := c.db.Exec(ctx,
		`UPDATE categories SET name = ?, color = ?, kind = ? WHERE id = ? AND user_id = ?`,
		next.Name, next.Color, kindArg(next.Kind), id, owner)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, fmt.Errorf("category %q: %w", next.Name, ErrConflict)
		}
		return core.Category{}, fmt.Errorf("update category %d: %w", id, err)
	}
	if n == 0 {
		return core.Category{}, ErrNotFound
	}

	if next.Name != current.Name {
		if _, err := c.db.Exec(ctx,
			`UPDATE transactions SET category = ? WHERE user_id = ? AND category = ?`,
			next.Name, owner, current.Name); err != nil {
			return core.Category{}, fmt.Errorf("rename category on transactions: %w", err)
		}
	}
	return next, nil
}

// Delete removes the category and clears it from the owner's transactions.
// The transactions themselves are kept.
func (c *Categories) Delete(ctx context.Context, owner, id int64) error {
	current, err := c.FindByID(ctx, owner, id)
	if err != nil {
		return err
	}

	if _, err := c.db.Exec(ctx,
		`UPDATE transactions SET category = NULL WHERE user_id = ? AND category = ?`,
		owner, current.Name); err != nil {
		return fmt.Errorf("clear category on transactions: %w", err)
	}

	n, err := c.db.Exec(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedDefaults inserts the default catalog, skipping names the owner already
// has. It returns how many categories were added.
func (c *Categories) SeedDefaults(ctx context.Context, owner int64) (int, error) {
	created := core.FormatTimestamp(now())
	added := 0
	for _, d := range core.DefaultCategories {
		n, err := c.db.Exec(ctx,
			`INSERT OR IGNORE INTO categories (user_id, name, color, kind, created_at) VALUES (?, ?, ?, ?, ?)`,
			owner, d.Name, d.Color, string(d.Kind), created)
		if err != nil {
			return added, fmt.Errorf("seed category %q: %w", d.Name, err)
		}
		added += int(n)
	}
	return added, nil
}

// Classify splits the owner's categories into expense and income groups.
func (c *Categories) Classify(ctx context.Context, owner int64) (core.GroupedCategories, error) {
	cats, err := c.ListByOwner(ctx, owner)
	if err != nil {
		return core.GroupedCategories{}, err
	}
	return core.GroupCategories(cats), nil
}

// SpendingByCategory totals the owner's categorized transactions per
// category and kind within r, largest first.
func (c *Categories) SpendingByCategory(ctx context.Context, owner int64, r core.DateRange) ([]core.CategoryTotal, error) {
	query := `
		SELECT category, kind,
		       COUNT(*) AS transaction_count,
		       SUM(CAST(ROUND(amount * 100) AS INTEGER)) AS total_cents
		FROM transactions
		WHERE user_id = ? AND category IS NOT NULL`
	args := []any{owner}

	from, to := r.Bounds()
	if from != "" {
		query += ` AND datetime(occurred_at) >= datetime(?)`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND datetime(occurred_at) < datetime(?)`
		args = append(args, to)
	}
	query += ` GROUP BY category, kind ORDER BY total_cents DESC, category ASC`

	rows, err := c.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("spending by category: %w", err)
	}
	out := make([]core.CategoryTotal, 0, len(rows))
	for _, r := range rows {
		out = append(out, CategoryTotalFromRow(r))
	}
	return out, nil
}

// CategoryTotalFromRow reads category, kind, transaction_count, total_cents
// and, when selected, avg_cents.
func CategoryTotalFromRow(r storage.Row) core.CategoryTotal {
	ct := core.CategoryTotal{
		Category:         r.String("category"),
		Kind:             core.Kind(r.String("kind")),
		TransactionCount: r.Int("transaction_count"),
		TotalAmount:      r.Cents("total_cents"),
	}
	if _, ok := r.Value("avg_cents"); ok {
		ct.AverageAmount = r.Cents("avg_cents")
	} else if ct.TransactionCount > 0 {
		ct.AverageAmount = core.Money{Cents: ct.TotalAmount.Cents / int64(ct.TransactionCount)}
	}
	return ct
}
