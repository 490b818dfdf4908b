// Package cli holds process bootstrap shared by the server and worker
// binaries, plus the flowcast-cli command tree.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"flowcast/internal/backend"
	"flowcast/internal/config"
	"flowcast/internal/core"
	"flowcast/internal/healthcfg"
	"flowcast/internal/log"
	"flowcast/internal/storage"
)

// SetupLogger initializes structured logging and installs it as the
// process default.
func SetupLogger(component string) *log.Logger {
	logger := log.New(log.DefaultConfig()).WithComponent(component)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development. Missing files are
// fine; production sets real environment variables.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and exits the process when it
// is unusable.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// LoadHealthLevels reads the health level file named in the config, falling
// back to built-in defaults when none is configured.
func LoadHealthLevels(logger *log.Logger, cfg *config.Config) []core.HealthLevel {
	levels, err := healthcfg.Load(cfg.HealthLevelsPath)
	if err != nil {
		logger.Error("failed to load health levels", "error", err, "path", cfg.HealthLevelsPath)
		os.Exit(1)
	}
	return levels
}

// InitStore opens the configured storage backend or exits the process.
func InitStore(logger *log.Logger, cfg *config.Config) storage.Store {
	store, err := backend.Open(cfg)
	if err != nil {
		logger.Error("failed to open storage backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return store
}

// GracefulShutdown returns a context cancelled on SIGINT/SIGTERM and a
// channel closed once cleanup has run.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup()
		}
		cancel()

		select {
		case <-shutdownCtx.Done():
			logger.Warn("shutdown timeout reached")
		case <-time.After(2 * time.Second):
			logger.Info("shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup has
// finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
