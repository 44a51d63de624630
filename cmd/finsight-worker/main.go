package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finsight/internal/amqp"
	"finsight/internal/backend"
	"finsight/internal/cli"
	"finsight/internal/log"
	"finsight/internal/services"
	"finsight/internal/sheets/google"
	"finsight/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadConfig()
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat).WithComponent(log.ComponentWorker)
	cli.MustValidate(logger, cfg.ValidateWorker)

	logger.Info("Starting finsight-worker")

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	if bcfg.Type == backend.Memory {
		logger.Warn("Worker is using the memory backend; it will not see records written by the server")
	}
	// The worker only consumes events.
	bcfg.AMQPURL = ""
	res, err := backend.NewFactory(logger).Create(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", bcfg.Type)
		os.Exit(1)
	}

	mirror, err := google.New(context.Background(), google.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetPrefix:        cfg.GoogleSheetPrefix,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets mirror", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	dashboards := services.NewDashboardService(res.Store, logger, cfg.Location())
	processor := worker.NewProcessor(
		worker.NewMirrorWorker(dashboards, mirror, logger),
		worker.DefaultProcessorConfig(),
		logger,
	)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := processor.Stop(ctx); err != nil {
			logger.Error("Processor stop error", log.FieldError, err)
		}
		if err := client.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err)
		}
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	// The flush loop outlives ctx so Stop can mirror what is still pending.
	if err := processor.Start(context.Background()); err != nil {
		logger.Error("Failed to start processor", log.FieldError, err)
		os.Exit(1)
	}

	go func() {
		if err := client.Consume(ctx, processor.Enqueue); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
		}
	}()

	<-ctx.Done()
	<-done
	logger.Info("Worker stopped gracefully")
}
