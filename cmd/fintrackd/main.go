package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/advisor"
	"fintrack/internal/amqp"
	"fintrack/internal/budget"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/recurring"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting fintrackd")

	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	result := cli.OpenStore(ctx, logger, cfg)
	defer result.Cleanup()

	engine := recurring.NewEngine(result.Store)
	aggregator := budget.NewAggregator(result.Store)

	var adv *advisor.Advisor
	if cfg.AdvisorURL != "" {
		provider := advisor.NewOllamaProvider(cfg.AdvisorURL, cfg.AdvisorModel, cfg.AdvisorTimeout)
		adv = advisor.NewAdvisor(provider, result.Store, aggregator, engine)
		logger.Info("Advisor enabled", "url", cfg.AdvisorURL, "model", cfg.AdvisorModel)
	} else {
		logger.Info("Advisor disabled - no ADVISOR_URL provided")
	}

	var publisher apphttp.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// The API works without a broker; downstream consumers
			// just see nothing until it comes back.
			logger.Warn("Failed to initialize AMQP client, continuing without event publishing", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - expense events will not be published")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Logger:     logger.WithComponent(log.ComponentHTTP),
		Store:      result.Store,
		Engine:     engine,
		Aggregator: aggregator,
		Advisor:    adv,
		Publisher:  publisher,
	})

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		timeout, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(timeout); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting fintrackd server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
