// Package cli holds the startup and shutdown steps shared by every command.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ricorrenze/internal/config"
	applog "ricorrenze/internal/log"
)

// Bootstrap loads .env and the configuration, installs the default logger
// for component and exits the process when the configuration is invalid.
func Bootstrap(component string) (*config.Config, *applog.Logger) {
	// Errors are ignored: .env is optional outside local development.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: component,
		JSON:      cfg.LogJSON,
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		Fatal(logger, "Configuration validation failed", err)
	}
	return cfg, logger
}

// Fatal logs err and exits.
func Fatal(logger *applog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

// WaitForShutdown blocks until SIGINT/SIGTERM arrives or ctx is done.
func WaitForShutdown(ctx context.Context, logger *applog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}
}
