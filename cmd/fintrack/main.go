package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Slog()).CreateBackend(ctx, backendConfig)
	if err != nil {
		logger.Error("Failed to create backend", applog.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	b := result.Backend
	if b.Identity == nil {
		logger.Warn("Google sign-in disabled", applog.FieldError, b.IdentityErr)
	}
	// surface schema problems at start-up; the server still runs without a database
	if err := b.DB.Ping(ctx); err != nil {
		logger.Warn("Database not reachable at start-up", applog.FieldError, err)
	}

	srv := apphttp.NewServer(":"+cfg.Port, b, logger.WithComponent(applog.ComponentHTTP))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting fintrack server", "port", cfg.Port, "sign_in", b.Identity != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		_ = result.Cleanup()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
