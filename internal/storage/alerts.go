package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"bondwatch/internal/monitor"
)

const (
	insertSentAlertSQL = `INSERT INTO sent_alerts (telegram_id, figi, alert_type, sent_at)
    VALUES ($1, $2, $3, $4);`

	countAlertsSinceSQL = `SELECT COUNT(*)
    FROM sent_alerts
    WHERE telegram_id = $1
      AND sent_at >= $2;`

	lastAlertWithinSQL = `SELECT id, telegram_id, figi, alert_type, sent_at
    FROM sent_alerts
    WHERE telegram_id = $1
      AND figi = $2
      AND sent_at > $3
    ORDER BY sent_at DESC
    LIMIT 1;`

	lastAlertTypeSQL = `SELECT alert_type
    FROM sent_alerts
    WHERE telegram_id = $1
      AND figi = $2
    ORDER BY sent_at DESC
    LIMIT 1;`

	listRecentAlertsSQL = `SELECT id, telegram_id, figi, alert_type, sent_at
    FROM sent_alerts
    WHERE telegram_id = $1
    ORDER BY sent_at DESC
    LIMIT $2;`

	deleteAlertsBeforeSQL = `DELETE FROM sent_alerts WHERE sent_at < $1;`
)

// RecordSentAlert appends one row to the anti-spam log.
func (s *Store) RecordSentAlert(ctx context.Context, telegramID int64, figi string, alertType monitor.AlertType) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, insertSentAlertSQL, telegramID, figi, string(alertType), time.Now().UTC()); execErr != nil {
		return fmt.Errorf("record sent alert: %w", execErr)
	}
	return nil
}

// CountAlertsSince counts log rows for the user at or after the given time.
func (s *Store) CountAlertsSince(ctx context.Context, telegramID int64, since time.Time) (int, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int
	if scanErr := pool.QueryRow(ctx, countAlertsSinceSQL, telegramID, since).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count alerts since: %w", scanErr)
	}
	return count, nil
}

// LastAlertWithin returns the most recent log row for (user, instrument)
// strictly after the given time, or nil when none exists.
func (s *Store) LastAlertWithin(ctx context.Context, telegramID int64, figi string, since time.Time) (*SentAlert, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	var record SentAlert
	scanErr := pool.QueryRow(ctx, lastAlertWithinSQL, telegramID, figi, since).Scan(
		&record.ID,
		&record.TelegramID,
		&record.FIGI,
		&record.AlertType,
		&record.SentAt,
	)
	if errors.Is(scanErr, pgx.ErrNoRows) {
		return nil, nil
	}
	if scanErr != nil {
		return nil, fmt.Errorf("last alert within: %w", scanErr)
	}
	return &record, nil
}

// LastAlertType returns the classification of the most recent alert for
// (user, instrument). The second return is false when no parsable row exists.
func (s *Store) LastAlertType(ctx context.Context, telegramID int64, figi string) (monitor.AlertType, bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return "", false, err
	}

	var tag string
	scanErr := pool.QueryRow(ctx, lastAlertTypeSQL, telegramID, figi).Scan(&tag)
	if errors.Is(scanErr, pgx.ErrNoRows) {
		return "", false, nil
	}
	if scanErr != nil {
		return "", false, fmt.Errorf("last alert type: %w", scanErr)
	}

	alertType, ok := monitor.ParseAlertType(tag)
	return alertType, ok, nil
}

// ListRecentAlerts lists the user's most recent log rows.
func (s *Store) ListRecentAlerts(ctx context.Context, telegramID int64, limit int) ([]SentAlert, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, telegramID, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]SentAlert, 0, limit)
	for rows.Next() {
		var record SentAlert
		if err := rows.Scan(
			&record.ID,
			&record.TelegramID,
			&record.FIGI,
			&record.AlertType,
			&record.SentAt,
		); err != nil {
			return nil, err
		}
		alerts = append(alerts, record)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

// DeleteAlertsBefore purges log rows older than the cutoff.
func (s *Store) DeleteAlertsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	cmdTag, execErr := pool.Exec(ctx, deleteAlertsBeforeSQL, cutoff)
	if execErr != nil {
		return 0, fmt.Errorf("delete alerts before: %w", execErr)
	}
	return cmdTag.RowsAffected(), nil
}
