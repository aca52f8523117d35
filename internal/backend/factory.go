package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/charts"
	"fintrack/internal/identity"
	"fintrack/internal/records"
	"fintrack/internal/report"
	"fintrack/internal/services"
	"fintrack/internal/session"
	"fintrack/internal/storage"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger.With("component", "backend")}
}

// CreateBackend assembles the gateway, records, reports and services. The
// database is opened lazily on first use; an unreachable database does not
// fail start-up.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backend config: %w", err)
	}

	db := storage.New(storage.Options{DSN: config.DSN, Logger: f.logger})
	store := records.NewStore(db)

	var publisher services.EventPublisher
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			amqpClient = client
			publisher = client
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	states := cache.NewStateStore(config.MaxPendingLogins, cache.StateTTL)
	caches := cache.NewManager(f.logger)
	caches.Register(states)
	if config.CleanupInterval > 0 {
		caches.StartCleanup(config.CleanupInterval)
	}

	b := &Backend{
		DB:           db,
		Store:        store,
		Reports:      report.New(db),
		Accounts:     services.NewAccountService(store.Users, store.Categories, f.logger),
		Transactions: services.NewTransactionService(store.Transactions, publisher, f.logger),
		Charts:       charts.NewGenerator(),
		Sessions:     session.NewManager(config.SessionSecret, config.SessionTTL, config.SecureCookies),
		States:       states,
		Caches:       caches,
	}

	if config.Identity != nil {
		b.Identity = config.Identity
	} else {
		google, err := identity.NewGoogle(identity.Config{
			ClientID:     config.GoogleClientID,
			ClientSecret: config.GoogleClientSecret,
			RedirectURL:  config.OAuthRedirectURL,
		})
		if err != nil {
			b.IdentityErr = err
			f.logger.WarnContext(ctx, "Google sign-in disabled", "error", err)
		} else {
			b.Identity = google
		}
	}

	f.logger.InfoContext(ctx, "Initialized backend",
		"db_path", db.Path(),
		"amqp_enabled", amqpClient != nil,
		"sign_in_enabled", b.Identity != nil)

	cleanup := func() error {
		caches.Stop()
		var errs []error
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				errs = append(errs, fmt.Errorf("amqp: %w", err))
			}
		}
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
		return errors.Join(errs...)
	}

	return &BackendResult{Backend: b, Cleanup: cleanup}, nil
}
