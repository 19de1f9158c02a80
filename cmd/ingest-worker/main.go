package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/worker"
)

const storePingInterval = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting ingest-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required: the ingest worker has nothing to do without a broker")
		os.Exit(1)
	}

	ctx := context.Background()
	result := cli.OpenStore(ctx, logger, cfg)
	defer result.Cleanup()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ingest := worker.NewIngestWorker(result.Store)

	runCtx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return amqpClient.ConsumeExpenseCreated(gctx, func(msg *amqp.ExpenseCreatedMessage) error {
			return ingest.HandleExpenseCreated(gctx, msg)
		})
	})

	// Periodic store ping so a dead backend surfaces in the logs even
	// when no messages arrive.
	g.Go(func() error {
		ticker := time.NewTicker(storePingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := result.Store.Ping(gctx); err != nil {
					logger.Error("Store ping failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Ingest worker stopped", "error", err)
	}

	cli.WaitForShutdown(runCtx, done)
	logger.Info("Ingest-worker shutdown complete")
}
