package main

import (
	"context"
	"errors"
	"time"

	"ricorrenze/internal/amqp"
	"ricorrenze/internal/backend"
	"ricorrenze/internal/cli"
	"ricorrenze/internal/config"
	"ricorrenze/internal/core"
	applog "ricorrenze/internal/log"
	"ricorrenze/internal/services"
	"ricorrenze/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentWorker)
	if err := cfg.RequireAMQP(); err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}
	logger.Info("Starting ricorrenze-worker", "backend", cfg.DataBackend)
	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("Memory backend does not share state with the API, only useful for local testing")
	}

	factory := backend.NewFactory(logger.Logger)
	store, err := factory.CreateBackend(cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exporter, err := factory.CreateExporter(ctx, cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize exporter", err)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer amqpClient.Close()

	// Read-only use: the worker never changes occurrences, so no publisher.
	svc := services.NewScheduledTransactionService(store.Templates, store.Modifications, nil)
	syncWorker := worker.NewSyncWorker(svc, exporter)

	// Export recorded occurrences that might have been missed while down
	now := time.Now()
	if err := syncWorker.StartupSync(ctx, core.NewDate(now.Year(), int(now.Month()), now.Day())); err != nil {
		logger.Error("Failed startup sync", "error", err)
	}

	go func() {
		if err := amqpClient.ConsumeOccurrenceEvents(ctx, syncWorker.HandleOccurrenceMessage); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
			cancel()
		}
	}()

	cli.WaitForShutdown(ctx, logger)
	cancel()
	logger.Info("Worker shutdown complete")
}
