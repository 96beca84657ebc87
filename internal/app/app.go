package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"proposaland/internal/collector"
	"proposaland/internal/config"
	"proposaland/internal/filters/keyword"
	"proposaland/internal/infrastructure/email"
	"proposaland/internal/infrastructure/parser"
	"proposaland/internal/infrastructure/report"
	"proposaland/internal/infrastructure/scheduler"
	"proposaland/internal/infrastructure/storage"
	"proposaland/internal/infrastructure/telegram"
	"proposaland/internal/logging"
	"proposaland/internal/ports"
	"proposaland/internal/reference"
	"proposaland/internal/scoring"
	"proposaland/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	db      *sql.DB
	repo    *storage.PostgresRepository
	engine  *scoring.Engine
	monitor *usecase.Monitor
}

// New builds the application. A configured DSN opens a Postgres pool lazily.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	client := &http.Client{Timeout: cfg.Collectors.RequestTimeout}
	registry := collector.NewRegistry()
	registry.Register(parser.NewListingCollector(client, cfg.Collectors.UserAgent))
	registry.Register(parser.NewFeedCollector(client, cfg.Collectors.UserAgent))

	source := parser.NewStrategySource(registry, cfg.Websites.All(), cfg.Collectors.Concurrency,
		baseLogger.With("component", "source"))

	a := &Application{cfg: cfg, logger: baseLogger}

	var repo ports.OpportunityRepository
	if cfg.Database.DSN != "" {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.db = db
		a.repo = storage.NewPostgresRepository(db)
		repo = a.repo
	}

	var notifiers []ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.Enabled() {
		notifiers = append(notifiers, telegram.NewNotifier(tg.APIURL, tg.BotToken, tg.ChatID))
	}
	if cfg.Notifications.Email.Enabled() {
		notifiers = append(notifiers, email.NewNotifier(cfg.Notifications.Email))
	}

	a.engine = scoring.NewEngine(cfg,
		scoring.WithLogger(baseLogger.With("component", "scoring")),
		scoring.WithWorkers(cfg.Scoring.Workers),
	)

	a.monitor = usecase.NewMonitor(usecase.MonitorDeps{
		Source:     source,
		Repository: repo,
		Exporter:   report.NewFileExporter(cfg.Output.Directory, cfg.Output.JSONFilename, cfg.Output.CSVFilename),
		Notifiers:  notifiers,
		Engine:     a.engine,
		Keywords:   keyword.New(cfg.Keywords),
		References: reference.NewExtractor(),
		Settings:   usecase.SettingsFromConfig(cfg),
		Logger:     baseLogger.With("component", "monitor"),
	})

	return a, nil
}

// Run performs a single monitor execution for today in the scheduler timezone.
func (a *Application) Run(ctx context.Context) (usecase.Result, error) {
	if err := a.ensureSchema(ctx); err != nil {
		return usecase.Result{}, err
	}
	now := time.Now().In(a.cfg.Scheduler.Location())
	return a.monitor.ProcessDay(ctx, now)
}

// RunDaemon schedules the monitor daily until ctx is cancelled.
func (a *Application) RunDaemon(ctx context.Context) error {
	if err := a.ensureSchema(ctx); err != nil {
		return err
	}

	driver, err := scheduler.NewDailyScheduler(a.cfg.Scheduler.RunAt, a.cfg.Scheduler.Location(),
		a.logger.With("component", "cron"))
	if err != nil {
		return err
	}
	sched := usecase.NewScheduler(driver, a.monitor, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started",
		"run_at", a.cfg.Scheduler.RunAt,
		"timezone", a.cfg.Scheduler.Location().String(),
		"next_run", driver.NextRun(time.Now()))

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	return nil
}

// Close releases the database pool.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *Application) ensureSchema(ctx context.Context) error {
	if a.repo == nil {
		return nil
	}
	return a.repo.EnsureSchema(ctx)
}
