package alerting

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"bondwatch/internal/monitor"
	"bondwatch/internal/storage"
)

// Policy is the anti-spam gate deciding whether an anomaly may be notified.
// Read-only over the alert log; recording happens in the Dispatcher.
type Policy struct {
	log      storage.AlertLogStore
	cooldown time.Duration
	maxDaily int
	logger   zerolog.Logger

	now func() time.Time
}

// NewPolicy constructs the gate with the given cooldown window and daily cap.
func NewPolicy(log storage.AlertLogStore, cooldown time.Duration, maxDaily int, logger zerolog.Logger) *Policy {
	if cooldown <= 0 {
		cooldown = 4 * time.Hour
	}
	if maxDaily <= 0 {
		maxDaily = 10
	}
	return &Policy{
		log:      log,
		cooldown: cooldown,
		maxDaily: maxDaily,
		logger:   logger.With().Str("component", "alert_policy").Logger(),
		now:      time.Now,
	}
}

// ShouldSend applies, in order: the daily cap, then the per-instrument
// cooldown with its escalation exception. Escalation (warning already sent,
// matching critical now) bypasses the cooldown but never the daily cap.
func (p *Policy) ShouldSend(ctx context.Context, telegramID int64, anomaly monitor.Anomaly) (bool, error) {
	now := p.now().UTC()

	dayStart := now.Truncate(24 * time.Hour)
	count, err := p.log.CountAlertsSince(ctx, telegramID, dayStart)
	if err != nil {
		return false, err
	}
	if count >= p.maxDaily {
		p.logger.Debug().Int64("user", telegramID).Msg("daily alert cap reached")
		return false, nil
	}

	recent, err := p.log.LastAlertWithin(ctx, telegramID, anomaly.FIGI, now.Add(-p.cooldown))
	if err != nil {
		return false, err
	}
	if recent == nil {
		return true, nil
	}

	lastType, ok, err := p.log.LastAlertType(ctx, telegramID, anomaly.FIGI)
	if err != nil {
		return false, err
	}
	if ok && anomaly.Type.EscalationOf(lastType) {
		p.logger.Debug().Int64("user", telegramID).Str("figi", anomaly.FIGI).
			Msg("escalation bypasses cooldown")
		return true, nil
	}

	p.logger.Debug().Int64("user", telegramID).Str("figi", anomaly.FIGI).Msg("cooldown active")
	return false, nil
}
