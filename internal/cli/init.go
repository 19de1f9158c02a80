// Package cli holds the shared bootstrap used by every binary and the
// cobra command tree behind the fintrack tool. The daemons
// (fintrackd, recurring-worker, ingest-worker) use the init helpers;
// the fintrack tool adds flag and preference handling on top.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

// SetupLogger builds the process logger and installs it as the slog
// default so third-party code logging through slog lands in the same
// stream.
func SetupLogger() *log.Logger {
	logger := log.New(log.DefaultConfig())
	slog.SetDefault(logger.Logger)
	return logger
}

// LoadEnvFile loads .env for local development. Missing files are
// fine; production sets real environment variables.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it, exiting
// the process on failure. A daemon with bad config has nothing useful
// left to do.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore opens the configured persistence backend, exiting the
// process on failure.
func OpenStore(ctx context.Context, logger *log.Logger, cfg *config.Config) *store.Result {
	factory := store.NewFactory(logger.Logger)
	result, err := factory.Open(ctx, store.Config{
		Type:         store.BackendType(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
		DataFilePath: cfg.DataFilePath,
	})
	if err != nil {
		logger.Error("Failed to open store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return result
}

// GracefulShutdown installs SIGINT/SIGTERM handling. The returned
// context cancels on the first signal; the channel closes once the
// cleanup callback has run (or the timeout passed).
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}

		cancel()
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the shutdown sequence finishes.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
