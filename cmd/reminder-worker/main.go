package main

import (
	"context"
	"errors"

	"ricorrenze/internal/backend"
	"ricorrenze/internal/cli"
	applog "ricorrenze/internal/log"
	"ricorrenze/internal/services"
	"ricorrenze/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentReminder)
	if err := cfg.RequireAMQP(); err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}
	logger.Info("Starting reminder-worker",
		"interval", cfg.ReminderInterval,
		"horizon", cfg.ReminderHorizon,
		"concurrency", cfg.ReminderConcurrency)

	factory := backend.NewFactory(logger.Logger)
	store, err := factory.CreateBackend(cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}
	defer store.Close()

	publisher, closePublisher, err := factory.CreatePublisher(cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize publisher", err)
	}
	defer closePublisher()

	upcoming := services.NewUpcomingService(store.Templates, store.Modifications, cfg.ReminderConcurrency)
	reminders := worker.NewReminderWorker(upcoming, publisher, cfg.ReminderHorizon)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.Caches.StartCleanup(ctx, cfg.TemplateCacheTTL)

	go func() {
		if err := reminders.Run(ctx, cfg.ReminderInterval); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Reminder worker stopped", "error", err)
			cancel()
		}
	}()

	cli.WaitForShutdown(ctx, logger)
	cancel()
	logger.Info("Reminder worker shutdown complete")
}
