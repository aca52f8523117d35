// Command fintrack-reconcile brings a database file up to the current schema
// and prints what was changed. It is safe to run repeatedly.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
)

func main() {
	os.Exit(run())
}

// run returns the exit code: 1 when the database cannot be opened, 2 when
// some step left a warning.
func run() int {
	cli.LoadEnvFile()

	cfg := config.Load()
	dsn := flag.String("dsn", cfg.DSN(), "database file path or sqlite:// URL")
	timeout := flag.Duration("timeout", time.Minute, "give up after this long")
	flag.Parse()

	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(applog.ComponentStorage)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	db, err := cli.OpenStorage(ctx, logger.Slog(), *dsn)
	if err != nil {
		logger.Error("Reconciliation failed", applog.FieldError, err, "dsn", *dsn)
		return 1
	}
	defer db.Close()

	report := db.Reconciled()
	fmt.Printf("database:          %s\n", db.Path())
	fmt.Printf("fresh:             %t\n", report.Fresh)
	fmt.Printf("migration version: %d\n", report.MigrationVersion)
	for _, step := range report.Applied {
		fmt.Printf("applied:           %s\n", step)
	}
	for _, w := range report.Warnings {
		fmt.Printf("warning:           %v\n", w)
	}
	if report.Fallback {
		fmt.Println("fallback:          minimal schema created")
	}
	if !report.OK() {
		return 2
	}
	return 0
}
