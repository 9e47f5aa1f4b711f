package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"masarify/internal/amqp"
	"masarify/internal/backend"
	"masarify/internal/cli"
	"masarify/internal/config"
	"masarify/internal/log"
	"masarify/internal/sheets"
	gsheet "masarify/internal/sheets/google"
	mem "masarify/internal/sheets/memory"
	"masarify/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for masarify-worker")
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	logger.Info("Starting masarify-worker")
	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	if backendCfg.Type == backend.MemoryBackend {
		logger.Warn("Memory backend is private to each process, the mirror will only see an empty ledger")
	}
	be, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer be.Cleanup()

	mirror, err := newMirror(ctx, cfg, logger)
	if err != nil {
		return err
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	alerts := worker.NewAlertHandler(worker.NewLogSink(logger), logger)
	mirrorHandler := worker.NewMirrorHandler(be.Store, mirror, logger)

	// Startup sync covers changes saved while the worker was down.
	if err := mirrorHandler.Sync(ctx); err != nil {
		logger.Error("Startup mirror sync failed", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.Consume(gctx, map[string]amqp.Handler{
			amqp.RoutingBudgetAlert:   alerts.Handle,
			amqp.RoutingLedgerChanged: mirrorHandler.Handle,
		})
	})
	g.Go(func() error {
		mirrorHandler.Run(gctx, cfg.MirrorInterval)
		return nil
	})
	return g.Wait()
}

func newMirror(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.LedgerMirror, error) {
	if !cfg.MirrorEnabled() {
		logger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
		return mem.New(), nil
	}
	creds, err := cfg.GoogleCredentials()
	if err != nil {
		return nil, err
	}
	client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, creds)
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets mirror initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)
	return client, nil
}
