package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"ComplianceQueue/internal/config"
	"ComplianceQueue/internal/httpapi"
	"ComplianceQueue/internal/infrastructure/probe"
	"ComplianceQueue/internal/infrastructure/scheduler"
	"ComplianceQueue/internal/infrastructure/scrape"
	"ComplianceQueue/internal/infrastructure/storage"
	"ComplianceQueue/internal/infrastructure/telegram"
	"ComplianceQueue/internal/logging"
	"ComplianceQueue/internal/ports"
	"ComplianceQueue/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     ports.ArtifactStore
	server    *httpapi.Server
	scheduler *usecase.Scheduler
	db        *sql.DB
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	app := &Application{cfg: cfg, logger: baseLogger}

	switch cfg.Database.Driver {
	case "memory":
		app.store = storage.NewMemoryRepository()
	case "postgres", "":
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		repo := storage.NewPostgresRepository(db)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			_ = db.Close()
			return nil, err
		}
		app.db = db
		app.store = repo
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	prober := probe.NewProber(nil)
	queue := usecase.NewQueue(app.store, prober, baseLogger.With("component", "queue"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Store:       app.store,
		Scraper:     scrape.NewClient(cfg.Scrape.Endpoint),
		Logger:      baseLogger.With("component", "pipeline"),
		Workers:     cfg.Pipeline.Workers,
		ItemTimeout: cfg.Pipeline.ItemTimeout(),
		ResultLimit: cfg.Pipeline.ResultLimit,
	})

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	if interval := cfg.Scheduler.RunInterval(); interval > 0 {
		driver := scheduler.NewIntervalScheduler(interval, false)
		app.scheduler = usecase.NewScheduler(driver, pipeline, notifier,
			baseLogger.With("component", "scheduler"))
	}

	app.server = httpapi.NewServer(queue, pipeline, baseLogger.With("component", "http"))
	return app, nil
}

// Run reclaims stale rows, starts scheduled runs, and serves HTTP until the
// context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	reclaimed, err := a.store.ReclaimStale(ctx, a.cfg.Pipeline.ReclaimAfter())
	if err != nil {
		return fmt.Errorf("reclaim stale artifacts: %w", err)
	}
	if reclaimed > 0 {
		a.logger.Info("reclaimed stranded artifacts", "count", reclaimed)
	}

	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Listen(a.cfg.Server.Addr)
	}()

	a.logger.Info("server listening", "addr", a.cfg.Server.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return a.shutdown()
	}
}

func (a *Application) shutdown() error {
	shutdownCtx := context.Background()

	if a.scheduler != nil {
		_ = a.scheduler.Stop(shutdownCtx)
	}
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}
	return nil
}
