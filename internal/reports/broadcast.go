package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"bondwatch/internal/alerting"
	"bondwatch/internal/storage"
)

// Broadcaster fans a report out to every active bot user.
type Broadcaster struct {
	svc      *Service
	users    storage.UserStore
	notifier alerting.Notifier
	logger   zerolog.Logger
}

// NewBroadcaster constructs the report broadcaster.
func NewBroadcaster(svc *Service, users storage.UserStore, notifier alerting.Notifier, logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		svc:      svc,
		users:    users,
		notifier: notifier,
		logger:   logger.With().Str("component", "report_broadcast").Logger(),
	}
}

// Broadcast builds the coupon report for each active user and delivers it.
// Users without a stored token are skipped; users whose chat rejects the
// message are deactivated so the next run does not retry them.
func (b *Broadcaster) Broadcast(ctx context.Context, rt ReportType) error {
	users, err := b.users.ListActiveUsers(ctx)
	if err != nil {
		return fmt.Errorf("list active users: %w", err)
	}

	since := PeriodStart(rt, time.Now())
	title := "💰 <b>Coupon payouts for today</b>"
	if rt == ReportWeekly {
		title = "💰 <b>Coupon payouts for the week</b>"
	}

	sent := 0
	for _, telegramID := range users {
		summary, err := b.svc.CouponSummary(ctx, telegramID, since)
		if err != nil {
			if errors.Is(err, ErrNoToken) {
				continue
			}
			b.logger.Error().Err(err).Int64("user", telegramID).Msg("failed to build coupon report")
			continue
		}

		text := title + "\n\n" + summary
		if err := b.notifier.SendMessage(ctx, telegramID, text); err != nil {
			b.logger.Warn().Err(err).Int64("user", telegramID).Msg("report delivery failed, deactivating user")
			if err := b.users.DeactivateUser(ctx, telegramID); err != nil {
				b.logger.Error().Err(err).Int64("user", telegramID).Msg("failed to deactivate user")
			}
			continue
		}
		sent++
	}

	b.logger.Info().Str("report", string(rt)).Int("recipients", sent).Msg("report broadcast finished")
	return nil
}
