package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"bondwatch/internal/alerting"
	"bondwatch/internal/config"
	"bondwatch/internal/invest"
	"bondwatch/internal/reports"
	"bondwatch/internal/scheduler"
	"bondwatch/internal/service"
	"bondwatch/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newInvestClient() *invest.Client {
	return invest.NewClient(invest.Options{
		BaseURL:   a.Config.Invest.BaseURL,
		Timeout:   a.Config.Invest.RequestTimeout,
		UserAgent: a.Config.Invest.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	cfg := a.Config.Alerting.Telegram
	if cfg.BotToken == "" {
		return nil
	}
	return alerting.NewTelegramNotifier(cfg.BotToken, cfg.APIBase, cfg.RequestTimeout, a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, errors.New("database.dsn is not configured")
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newScanService(store *storage.Store, notifier alerting.Notifier) *service.Service {
	policy := alerting.NewPolicy(store, a.Config.Alerting.Cooldown, a.Config.Alerting.MaxDaily, a.Logger)
	dispatcher := alerting.NewDispatcher(notifier, store, a.Config.Alerting.AggregateAfter, a.Logger)
	source := invest.NewSource(a.newInvestClient(), store, a.Logger)

	return service.New(store, store, store, store, source, policy, dispatcher, service.Options{
		AdvisoryLockKey: a.Config.Scheduler.AdvisoryLockKey,
		UserTimeout:     a.Config.Scheduler.UserTimeout,
		RetentionDays:   a.Config.Retention.Days,
	}, a.Logger)
}

func (a *App) newBroadcaster(store *storage.Store, notifier alerting.Notifier) *reports.Broadcaster {
	svc := reports.NewService(a.newInvestClient(), store, a.Logger)
	return reports.NewBroadcaster(svc, store, notifier, a.Logger)
}

// Run executes the long-running monitoring service: the aligned scan loop
// plus the cron-driven report broadcasts.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("alerting.telegram.bot_token is not configured")
	}

	svc := a.newScanService(store, notifier)

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	if a.Config.Reports.Enabled {
		stopReports, err := a.startReportJobs(ctx, store, notifier)
		if err != nil {
			return err
		}
		defer stopReports()
	}

	a.Logger.Info().Msg("starting monitoring service")
	err = sched.Run(ctx, func(ctx context.Context, _ time.Time) error {
		return svc.ProcessTick(ctx)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}

func (a *App) startReportJobs(ctx context.Context, store *storage.Store, notifier alerting.Notifier) (func(), error) {
	broadcaster := a.newBroadcaster(store, notifier)

	c := cron.New(cron.WithLocation(time.UTC))

	if _, err := c.AddFunc(a.Config.Reports.DailyCron, func() {
		if err := broadcaster.Broadcast(ctx, reports.ReportDaily); err != nil {
			a.Logger.Error().Err(err).Msg("daily report broadcast failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule daily report: %w", err)
	}

	if _, err := c.AddFunc(a.Config.Reports.WeeklyCron, func() {
		if err := broadcaster.Broadcast(ctx, reports.ReportWeekly); err != nil {
			a.Logger.Error().Err(err).Msg("weekly report broadcast failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule weekly report: %w", err)
	}

	c.Start()
	a.Logger.Info().Str("daily", a.Config.Reports.DailyCron).
		Str("weekly", a.Config.Reports.WeeklyCron).
		Msg("report broadcasts scheduled")

	return func() { <-c.Stop().Done() }, nil
}

// Scan runs one scan cycle and exits.
func (a *App) Scan(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("alerting.telegram.bot_token is not configured")
	}

	return a.newScanService(store, notifier).ProcessTick(ctx)
}

// Report broadcasts the requested coupon report once and exits.
func (a *App) Report(ctx context.Context, rt reports.ReportType) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("alerting.telegram.bot_token is not configured")
	}

	return a.newBroadcaster(store, notifier).Broadcast(ctx, rt)
}

// ExportOptions hold parameters for exporting one user's price history.
type ExportOptions struct {
	TelegramID int64
	From       *time.Time
	To         *time.Time
	PNGPath    string
	CSVPath    string
	MaxPoints  int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	TelegramID int64
	Limit      int
}
