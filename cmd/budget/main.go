package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budget/internal/amqp"
	"budget/internal/auth"
	"budget/internal/cli"
	"budget/internal/core"
	"budget/internal/export"
	apphttp "budget/internal/http"
	applog "budget/internal/log"
	"budget/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	ledger := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := ledger.Cleanup(); err != nil {
			logger.Error("Failed to close ledger backend", applog.FieldError, err)
		}
	}()

	cascade, err := core.ParseCascadePolicy(cfg.CategoryCascade)
	if err != nil {
		logger.Error("Invalid category cascade", applog.FieldError, err)
		os.Exit(1)
	}

	opts := services.Options{Cascade: cascade, Logger: logger}

	// Sync events are optional; without a broker the spreadsheet mirror is
	// refreshed by the worker's startup resync only.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		opts.Publisher = amqpClient
		logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Warn("AMQP disabled - no AMQP_URL provided, saves will not be mirrored")
	}

	if cfg.ExportS3Bucket != "" {
		archiver, err := export.NewS3Archiver(ctx, export.S3Config{
			Bucket:    cfg.ExportS3Bucket,
			Region:    cfg.ExportS3Region,
			Endpoint:  cfg.ExportS3Endpoint,
			AccessKey: cfg.ExportS3AccessKey,
			SecretKey: cfg.ExportS3SecretKey,
		})
		if err != nil {
			logger.Error("Failed to initialize export archive", applog.FieldError, err)
			os.Exit(1)
		}
		opts.Archiver = archiver
		logger.Info("Export archive enabled", "bucket", cfg.ExportS3Bucket)
	}

	sessions := services.NewSessionStore(ledger.Store, cfg.SessionCacheSize, cfg.SessionTTL)
	svc := services.NewBudgetService(ledger.Store, sessions,
		auth.NewTokens(cfg.SessionSecret, cfg.SessionTTL), opts)

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Service:      svc,
		Sessions:     sessions,
		Ready:        ledger.Ready,
		Logger:       logger,
		SecureCookie: cfg.SecureCookie,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", applog.FieldError, err)
		os.Exit(1)
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	logger.Info("Starting budget server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
