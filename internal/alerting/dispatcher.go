package alerting

import (
	"context"

	"github.com/rs/zerolog"

	"bondwatch/internal/monitor"
	"bondwatch/internal/storage"
)

// Dispatcher turns policy-approved anomalies into user messages and records
// what was actually delivered.
type Dispatcher struct {
	notifier       Notifier
	log            storage.AlertLogStore
	aggregateAfter int
	logger         zerolog.Logger
}

// NewDispatcher constructs the dispatcher. Approved sets larger than
// aggregateAfter are collapsed into one summary message.
func NewDispatcher(notifier Notifier, log storage.AlertLogStore, aggregateAfter int, logger zerolog.Logger) *Dispatcher {
	if aggregateAfter <= 0 {
		aggregateAfter = 3
	}
	return &Dispatcher{
		notifier:       notifier,
		log:            log,
		aggregateAfter: aggregateAfter,
		logger:         logger.With().Str("component", "alert_dispatcher").Logger(),
	}
}

// Dispatch delivers the approved anomalies to the user. A failed send leaves
// those anomalies unrecorded so the next cycle may retry; failures never
// propagate since one user's delivery must not abort the scan.
func (d *Dispatcher) Dispatch(ctx context.Context, telegramID int64, anomalies []monitor.Anomaly) {
	if len(anomalies) == 0 {
		return
	}

	if len(anomalies) > d.aggregateAfter {
		d.sendAggregated(ctx, telegramID, anomalies)
		return
	}

	for _, anomaly := range anomalies {
		d.sendSingle(ctx, telegramID, anomaly)
	}
}

func (d *Dispatcher) sendSingle(ctx context.Context, telegramID int64, anomaly monitor.Anomaly) {
	if err := d.notifier.SendMessage(ctx, telegramID, renderSingle(anomaly)); err != nil {
		d.logger.Error().Err(err).Int64("user", telegramID).Str("ticker", anomaly.Ticker).
			Msg("failed to deliver alert")
		return
	}

	d.record(ctx, telegramID, anomaly)

	d.logger.Info().Int64("user", telegramID).
		Str("ticker", anomaly.Ticker).
		Str("alert_type", string(anomaly.Type)).
		Msg("alert delivered")
}

func (d *Dispatcher) sendAggregated(ctx context.Context, telegramID int64, anomalies []monitor.Anomaly) {
	if err := d.notifier.SendMessage(ctx, telegramID, renderAggregated(anomalies)); err != nil {
		d.logger.Error().Err(err).Int64("user", telegramID).Int("count", len(anomalies)).
			Msg("failed to deliver aggregated alert")
		return
	}

	for _, anomaly := range anomalies {
		d.record(ctx, telegramID, anomaly)
	}

	d.logger.Info().Int64("user", telegramID).Int("count", len(anomalies)).
		Msg("aggregated alert delivered")
}

func (d *Dispatcher) record(ctx context.Context, telegramID int64, anomaly monitor.Anomaly) {
	if err := d.log.RecordSentAlert(ctx, telegramID, anomaly.FIGI, anomaly.Type); err != nil {
		// Unrecorded but delivered: the worst case is one duplicate after
		// cooldown, so log and move on.
		d.logger.Error().Err(err).Int64("user", telegramID).Str("figi", anomaly.FIGI).
			Msg("failed to record sent alert")
	}
}
