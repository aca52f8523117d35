// Package cli holds the start-up steps shared by the fintrack binaries.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

// SetupLogger builds the process logger at level and installs it as the slog
// default.
func SetupLogger(level string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: applog.ComponentApp,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig exits the process when the configuration is invalid.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenStorage creates the gateway and connects it once so schema problems
// show up at start-up instead of on the first request.
func OpenStorage(ctx context.Context, logger *slog.Logger, dsn string) (*storage.DB, error) {
	db := storage.New(storage.Options{DSN: dsn, Logger: logger})
	if _, err := db.Connect(ctx); err != nil {
		return db, err
	}
	report := db.Reconciled()
	logger.Info("Storage ready",
		"path", db.Path(),
		"fresh", report.Fresh,
		"migration_version", report.MigrationVersion,
		"warnings", len(report.Warnings))
	return db, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
