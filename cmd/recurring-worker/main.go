package main

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/recurring"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	result := cli.OpenStore(ctx, logger, cfg)
	defer result.Cleanup()

	engine := recurring.NewEngine(result.Store)
	materializer := worker.NewMaterializeWorker(engine, cfg.RecurringInterval)

	logger.Info("Recurring materializer configured",
		"interval", cfg.RecurringInterval,
		"backend", cfg.DataBackend)

	runCtx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	if err := materializer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Materializer stopped", "error", err)
	}

	cli.WaitForShutdown(runCtx, done)
	logger.Info("Recurring-worker shutdown complete")
}
