package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ricorrenze/internal/backend"
	"ricorrenze/internal/cli"
	apphttp "ricorrenze/internal/http"
	applog "ricorrenze/internal/log"
	"ricorrenze/internal/middleware/ratelimit"
	"ricorrenze/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)
	logger.Info("Starting ricorrenze", "port", cfg.Port, "backend", cfg.DataBackend)

	factory := backend.NewFactory(logger.Logger)
	store, err := factory.CreateBackend(cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close backend", "error", err)
		}
	}()

	// Events are optional for the API; a broker outage must not stop it.
	publisher, closePublisher, err := factory.CreatePublisher(cfg)
	if err != nil {
		logger.Warn("Continuing without occurrence events", "error", err)
		publisher, closePublisher = nil, func() error { return nil }
	}
	defer closePublisher()

	svc := services.NewScheduledTransactionService(store.Templates, store.Modifications, publisher)
	upcoming := services.NewUpcomingService(store.Templates, store.Modifications, cfg.ReminderConcurrency)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.Caches.StartCleanup(ctx, cfg.TemplateCacheTTL)

	srv, err := apphttp.NewServer(":"+cfg.Port, svc, upcoming, apphttp.Options{
		Ready:          store.Ready,
		RateLimit:      ratelimit.Config{RequestsPerMinute: cfg.RateLimit},
		TrustedProxies: cfg.TrustedProxies,
		Logger:         logger,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to configure HTTP server", err)
	}

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			cancel()
		}
	}()

	cli.WaitForShutdown(ctx, logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	m := srv.Metrics()
	logger.Info("Server stopped", "requests", m.TotalRequests, "failed_requests", m.FailedRequests)
}
