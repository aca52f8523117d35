// Package records holds the typed, owner-scoped accessors for users,
// categories, transactions and starting balances. Every statement that
// touches user data filters by user_id.
package records

import (
	"context"
	"errors"
	"strings"
	"time"

	"fintrack/internal/storage"
)

var (
	// ErrNotFound is returned when an id/owner pair matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write would break a uniqueness rule.
	ErrConflict = errors.New("record already exists")
)

// Gateway is the subset of *storage.DB the records need.
type Gateway interface {
	Query(ctx context.Context, query string, args ...any) ([]storage.Row, error)
	QueryOne(ctx context.Context, query string, args ...any) (storage.Row, bool, error)
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Insert(ctx context.Context, query string, args ...any) (int64, error)
}

// Store bundles the record accessors over one gateway.
type Store struct {
	Users        *Users
	Categories   *Categories
	Transactions *Transactions
}

func NewStore(db Gateway) *Store {
	return &Store{
		Users:        NewUsers(db),
		Categories:   NewCategories(db),
		Transactions: NewTransactions(db),
	}
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
