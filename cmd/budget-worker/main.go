package main

import (
	"context"
	"errors"
	"os"
	"time"

	"budget/internal/amqp"
	"budget/internal/cli"
	applog "budget/internal/log"
	ports "budget/internal/sheets"
	gsheet "budget/internal/sheets/google"
	memsheet "budget/internal/sheets/memory"
	"budget/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(applog.ComponentWorker)
	logger.Info("Starting budget-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the worker")
		os.Exit(1)
	}

	ledger := cli.InitBackend(context.Background(), logger, cfg)
	defer func() {
		if err := ledger.Cleanup(); err != nil {
			logger.Error("Failed to close ledger backend", applog.FieldError, err)
		}
	}()

	var mirror ports.SummaryWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		mirror = memsheet.New()
		logger.Info("Google Sheets disabled - mirroring to memory")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(ledger.Store, mirror, logger, cfg.WorkerConcurrency)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Catch up on saves that happened while no worker was consuming.
	logger.Info("Performing startup resync...")
	if err := syncWorker.ResyncAll(ctx); err != nil {
		logger.Error("Startup resync incomplete", applog.FieldError, err)
	}

	err = amqpClient.ConsumeLedgerSaved(ctx, cfg.WorkerConcurrency, syncWorker.HandleLedgerSaved)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
	}

	cli.WaitForShutdown(ctx, done)
	synced, failed := syncWorker.Stats()
	logger.Info("budget-worker stopped", "synced", synced, "failed", failed)
}
