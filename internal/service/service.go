package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"bondwatch/internal/alerting"
	"bondwatch/internal/invest"
	"bondwatch/internal/monitor"
	"bondwatch/internal/storage"
)

// Options parameterise the scan orchestrator.
type Options struct {
	AdvisoryLockKey int64
	UserTimeout     time.Duration
	RetentionDays   int
}

// Service runs the periodic portfolio scan: fetch prices, diff against the
// previous snapshot, gate anomalies through the anti-spam policy, and deliver
// what survives.
type Service struct {
	settings   storage.SettingsStore
	history    storage.PriceHistoryStore
	alerts     storage.AlertLogStore
	locker     storage.AdvisoryLocker
	source     invest.PriceSource
	policy     *alerting.Policy
	dispatcher *alerting.Dispatcher
	opts       Options
	logger     zerolog.Logger
}

// New wires the orchestrator together.
func New(
	settings storage.SettingsStore,
	history storage.PriceHistoryStore,
	alerts storage.AlertLogStore,
	locker storage.AdvisoryLocker,
	source invest.PriceSource,
	policy *alerting.Policy,
	dispatcher *alerting.Dispatcher,
	opts Options,
	logger zerolog.Logger,
) *Service {
	if opts.UserTimeout <= 0 {
		opts.UserTimeout = 30 * time.Second
	}
	if opts.RetentionDays <= 0 {
		opts.RetentionDays = 7
	}
	return &Service{
		settings:   settings,
		history:    history,
		alerts:     alerts,
		locker:     locker,
		source:     source,
		policy:     policy,
		dispatcher: dispatcher,
		opts:       opts,
		logger:     logger.With().Str("component", "scan").Logger(),
	}
}

// ProcessTick is the scheduler entry point. The advisory lock keeps
// concurrent replicas from scanning the same users twice; a held lock is a
// normal skip, not a failure.
func (s *Service) ProcessTick(ctx context.Context) error {
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.opts.AdvisoryLockKey)
	if err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	if !acquired {
		s.logger.Info().Msg("scan already running elsewhere, skipping tick")
		return nil
	}
	defer unlock()

	if err := s.RunScan(ctx); err != nil {
		return err
	}

	s.purgeExpired(ctx)
	return nil
}

// RunScan scans every alert-enabled user. One user's failure is logged and
// isolated; only the inability to enumerate users aborts the scan.
func (s *Service) RunScan(ctx context.Context) error {
	users, err := s.settings.ListAlertEnabledUsers(ctx)
	if err != nil {
		return fmt.Errorf("list alert-enabled users: %w", err)
	}

	started := time.Now()
	for _, telegramID := range users {
		userCtx, cancel := context.WithTimeout(ctx, s.opts.UserTimeout)
		if err := s.scanUser(userCtx, telegramID); err != nil {
			s.logger.Error().Err(err).Int64("user", telegramID).Msg("user scan failed")
		}
		cancel()
	}

	s.logger.Info().Int("users", len(users)).
		Dur("elapsed", time.Since(started)).
		Msg("scan cycle finished")
	return nil
}

func (s *Service) scanUser(ctx context.Context, telegramID int64) error {
	settings, err := s.settings.GetOrCreateSettings(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !settings.Enabled {
		return nil
	}

	current, err := s.source.PortfolioPrices(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("fetch portfolio prices: %w", err)
	}
	if len(current) == 0 {
		s.logger.Debug().Int64("user", telegramID).Msg("no bond positions, nothing to scan")
		return nil
	}

	records, err := s.history.LatestSnapshot(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("load previous snapshot: %w", err)
	}
	previous := make([]monitor.BondPrice, 0, len(records))
	for _, record := range records {
		previous = append(previous, record.BondPrice())
	}

	anomalies := monitor.Detect(current, previous, settings.Thresholds())

	approved := make([]monitor.Anomaly, 0, len(anomalies))
	for _, anomaly := range anomalies {
		ok, err := s.policy.ShouldSend(ctx, telegramID, anomaly)
		if err != nil {
			s.logger.Error().Err(err).Int64("user", telegramID).Str("figi", anomaly.FIGI).
				Msg("policy check failed, suppressing alert")
			continue
		}
		if ok {
			approved = append(approved, anomaly)
		}
	}

	s.dispatcher.Dispatch(ctx, telegramID, approved)

	// The new snapshot becomes the baseline regardless of delivery outcome,
	// so a flapping price cannot re-trigger against a stale baseline.
	if err := s.history.SaveSnapshot(ctx, telegramID, current); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	s.logger.Debug().Int64("user", telegramID).
		Int("positions", len(current)).
		Int("anomalies", len(anomalies)).
		Int("delivered", len(approved)).
		Msg("user scan finished")
	return nil
}

func (s *Service) purgeExpired(ctx context.Context) {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.opts.RetentionDays)

	prices, err := s.history.DeletePricesBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to purge price history")
	}

	alerts, err := s.alerts.DeleteAlertsBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to purge alert log")
	}

	if prices > 0 || alerts > 0 {
		s.logger.Info().Int64("prices", prices).Int64("alerts", alerts).
			Msg("expired history purged")
	}
}
