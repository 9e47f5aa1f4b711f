package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"masarify/internal/advisor"
	"masarify/internal/amqp"
	"masarify/internal/backend"
	"masarify/internal/cache"
	"masarify/internal/cli"
	"masarify/internal/config"
	"masarify/internal/core"
	apphttp "masarify/internal/http"
	"masarify/internal/ledger"
	"masarify/internal/log"
	"masarify/internal/notify"
	"masarify/internal/persistence"
	"masarify/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	be, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	loc := cfg.Location()
	aggregator := ledger.NewAggregator(cfg.CacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager(func(removed int) {
		logger.WithComponent(log.ComponentCache).Debug("Expired ledger totals removed", "count", removed)
	})
	cacheManager.Register(aggregator.Cache())
	cacheManager.StartCleanup(cfg.CacheTTL)
	defer cacheManager.Stop()

	var svc *services.BudgetService
	categories := func() []core.Category { return svc.State().Categories }

	notifiers := notify.Multi{notify.NewLogNotifier(logger)}
	var publisher services.ChangePublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// The API keeps working without the broker; the worker catches up
			// on its periodic sync.
			logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			defer client.Close()
			notifiers = append(notifiers, notify.NewAMQPNotifier(client, categories))
			publisher = client
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}
	notifier := notify.NewGate(notifiers, func() bool { return cfg.NotificationsEnabled })

	var gen advisor.Generator
	if cfg.GeminiAPIKey != "" {
		g, err := advisor.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("Failed to initialize Gemini client, advisor disabled", log.FieldError, err)
		} else {
			gen = g
		}
	}

	svc = services.NewBudgetService(services.Options{
		Gateway:      persistence.NewGateway(be.Store),
		Aggregator:   aggregator,
		Notifier:     notifier,
		Publisher:    publisher,
		Advisor:      advisor.New(gen, cfg.AdvisorMaxItems, cfg.AdvisorTimeout, logger),
		Conversation: advisor.NewConversation(0),
		Location:     loc,
		Logger:       logger,
		RecentLimit:  cfg.RecentLimit,
		SearchLimit:  cfg.SearchLimit,
	})
	if err := svc.Start(ctx); err != nil {
		return err
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Service:      svc,
		Logger:       logger,
		Ready:        be.Ready,
		Location:     loc,
		RateLimitRPM: cfg.RateLimitRPM,
		Cache:        aggregator.Cache(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting masarify server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"advisor_enabled", gen != nil,
			"events_enabled", publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		return nil
	})
	return g.Wait()
}
