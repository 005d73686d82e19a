package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsRadar/internal/config"
	"NewsRadar/internal/fetch"
	"NewsRadar/internal/infrastructure/embedding"
	"NewsRadar/internal/infrastructure/headless"
	"NewsRadar/internal/infrastructure/rss"
	"NewsRadar/internal/infrastructure/scheduler"
	"NewsRadar/internal/infrastructure/scrape"
	"NewsRadar/internal/infrastructure/snapshot"
	"NewsRadar/internal/infrastructure/telegram"
	"NewsRadar/internal/keyword"
	"NewsRadar/internal/ledger"
	"NewsRadar/internal/logging"
	"NewsRadar/internal/ports"
	"NewsRadar/internal/usecase"
)

// Application wires config to the pipeline and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	logger   *slog.Logger
}

// New builds a runnable application instance from configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := fetch.NewRegistry()
	registry.Register(rss.New(baseLogger.With("component", "fetcher.rss")))
	registry.Register(scrape.New(nil, baseLogger.With("component", "fetcher.html")))
	registry.Register(headless.New(0, baseLogger.With("component", "fetcher.dyn")))
	stage := fetch.NewStage(registry, baseLogger.With("component", "fetch"))

	store, err := ledger.New(cfg.Data.Dir, baseLogger.With("component", "ledger"))
	if err != nil {
		return nil, fmt.Errorf("init ledger: %w", err)
	}

	snapshots, err := snapshot.NewWriter(cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("init snapshots: %w", err)
	}

	provider, err := embedding.New(embedding.Config{
		APIKey:            cfg.Embedding.APIKey,
		Model:             cfg.Embedding.Model,
		BatchSize:         cfg.Embedding.BatchSize,
		MaxRetries:        cfg.Embedding.MaxRetries,
		MaxConcurrency:    cfg.Embedding.MaxConcurrency,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
	}, baseLogger.With("component", "embedding"))
	if err != nil {
		return nil, fmt.Errorf("init embedding provider: %w", err)
	}

	var notifier ports.Notifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Sources:  cfg.DomainSources(),
		Source:   stage,
		Ledger:   store,
		Gate:     keyword.NewGate(cfg.Keywords.Include, cfg.Keywords.Exclude),
		Enricher: usecase.NewEnricher(provider, store, cfg.Embedding.BatchSize, baseLogger.With("component", "enricher")),
		Scorer: usecase.NewScorer(
			provider,
			cfg.Scoring.SeedText,
			cfg.Scoring.BatchSize,
			time.Duration(cfg.Scoring.BatchPauseSeconds)*time.Second,
			baseLogger.With("component", "scorer"),
		),
		Snapshot:         snapshots,
		Notifier:         notifier,
		Logger:           baseLogger.With("component", "pipeline"),
		PerSourceCap:     cfg.Pipeline.PerSourceCap,
		TopN:             cfg.Pipeline.TopN,
		NearDupThreshold: cfg.Pipeline.NearDupThreshold,
		SentMaxAgeDays:   cfg.Pipeline.SentMaxAgeDays,
	})

	return &Application{cfg: cfg, pipeline: pipeline, logger: baseLogger}, nil
}

// Run executes a single pipeline batch.
func (a *Application) Run(ctx context.Context) error {
	return a.pipeline.Run(ctx)
}

// RunScheduled runs the pipeline on the configured cron schedule until ctx
// is cancelled.
func (a *Application) RunScheduled(ctx context.Context) error {
	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location())
	runner := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))

	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("daemon started", "cron", a.cfg.Scheduler.CronExpression)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return runner.Stop(stopCtx)
}
