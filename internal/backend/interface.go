package backend

import (
	"context"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/charts"
	"fintrack/internal/identity"
	"fintrack/internal/records"
	"fintrack/internal/report"
	"fintrack/internal/services"
	"fintrack/internal/session"
	"fintrack/internal/storage"
)

// Authenticator is the sign-in provider. *identity.Google satisfies it.
type Authenticator interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (identity.Profile, error)
}

// Backend is everything a request handler needs, built once per process.
type Backend struct {
	DB           *storage.DB
	Store        *records.Store
	Reports      *report.Engine
	Accounts     *services.AccountService
	Transactions *services.TransactionService
	Charts       *charts.Generator
	Sessions     *session.Manager
	States       *cache.StateStore
	Caches       *cache.Manager

	// Identity is nil when sign-in is not configured; IdentityErr says why.
	Identity    Authenticator
	IdentityErr error
}

// CleanupFunc releases resources held by a Backend.
type CleanupFunc func() error

// BackendResult contains the backend instance and its cleanup function.
type BackendResult struct {
	Backend *Backend
	Cleanup CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds everything needed to assemble a Backend.
type Config struct {
	DSN string

	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string
	// Identity replaces the Google provider, mainly for tests.
	Identity Authenticator

	SessionSecret string
	SessionTTL    time.Duration
	SecureCookies bool

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	MaxPendingLogins int
	CleanupInterval  time.Duration
}
