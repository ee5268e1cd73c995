package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"bondwatch/internal/monitor"
)

const (
	selectSettingsSQL = `SELECT
        telegram_id,
        alerts_enabled,
        drop_warning_threshold::text,
        drop_critical_threshold::text,
        rise_warning_threshold::text,
        rise_critical_threshold::text,
        created_at,
        updated_at
    FROM alert_settings
    WHERE telegram_id = $1;`

	insertDefaultSettingsSQL = `INSERT INTO alert_settings (telegram_id)
    VALUES ($1)
    ON CONFLICT (telegram_id) DO NOTHING;`

	updateThresholdsSQL = `UPDATE alert_settings
    SET drop_warning_threshold  = $2,
        drop_critical_threshold = $3,
        rise_warning_threshold  = $4,
        rise_critical_threshold = $5,
        updated_at              = now()
    WHERE telegram_id = $1;`

	setAlertsEnabledSQL = `UPDATE alert_settings
    SET alerts_enabled = $2, updated_at = now()
    WHERE telegram_id = $1;`

	listAlertEnabledSQL = `SELECT telegram_id
    FROM alert_settings
    WHERE alerts_enabled
    ORDER BY telegram_id;`
)

// Settings returns the user's alert settings, or nil when none exist yet.
func (s *Store) Settings(ctx context.Context, telegramID int64) (*AlertSettings, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	settings, scanErr := scanSettings(pool.QueryRow(ctx, selectSettingsSQL, telegramID))
	if errors.Is(scanErr, pgx.ErrNoRows) {
		return nil, nil
	}
	if scanErr != nil {
		return nil, fmt.Errorf("get settings: %w", scanErr)
	}
	return &settings, nil
}

// GetOrCreateSettings returns the user's settings, creating a disabled row
// with default thresholds on first access.
func (s *Store) GetOrCreateSettings(ctx context.Context, telegramID int64) (AlertSettings, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertSettings{}, err
	}

	if _, execErr := pool.Exec(ctx, insertDefaultSettingsSQL, telegramID); execErr != nil {
		return AlertSettings{}, fmt.Errorf("create settings: %w", execErr)
	}

	settings, scanErr := scanSettings(pool.QueryRow(ctx, selectSettingsSQL, telegramID))
	if scanErr != nil {
		return AlertSettings{}, fmt.Errorf("get settings: %w", scanErr)
	}
	return settings, nil
}

// UpdateThresholds replaces the four thresholds after validation.
func (s *Store) UpdateThresholds(ctx context.Context, telegramID int64, th monitor.Thresholds) error {
	if err := th.Validate(); err != nil {
		return err
	}

	if _, err := s.GetOrCreateSettings(ctx, telegramID); err != nil {
		return err
	}

	pool, err := s.getPool()
	if err != nil {
		return err
	}
	cmdTag, execErr := pool.Exec(ctx, updateThresholdsSQL,
		telegramID,
		th.DropWarning.String(),
		th.DropCritical.String(),
		th.RiseWarning.String(),
		th.RiseCritical.String(),
	)
	if execErr != nil {
		return fmt.Errorf("update thresholds: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetAlertsEnabled flips the enabled flag, creating settings when absent.
func (s *Store) SetAlertsEnabled(ctx context.Context, telegramID int64, enabled bool) error {
	if _, err := s.GetOrCreateSettings(ctx, telegramID); err != nil {
		return err
	}

	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, setAlertsEnabledSQL, telegramID, enabled); execErr != nil {
		return fmt.Errorf("set alerts enabled: %w", execErr)
	}
	return nil
}

// ToggleAlerts inverts the enabled flag and returns the new state.
func (s *Store) ToggleAlerts(ctx context.Context, telegramID int64) (bool, error) {
	settings, err := s.GetOrCreateSettings(ctx, telegramID)
	if err != nil {
		return false, err
	}

	newState := !settings.Enabled
	if err := s.SetAlertsEnabled(ctx, telegramID, newState); err != nil {
		return false, err
	}
	return newState, nil
}

// ListAlertEnabledUsers returns telegram ids with monitoring switched on.
func (s *Store) ListAlertEnabledUsers(ctx context.Context) ([]int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listAlertEnabledSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list alert enabled users: %w", queryErr)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return ids, nil
}

func scanSettings(row pgx.Row) (AlertSettings, error) {
	var (
		settings  AlertSettings
		dropWarn  string
		dropCrit  string
		riseWarn  string
		riseCrit  string
		updatedAt *time.Time
	)

	if err := row.Scan(
		&settings.TelegramID,
		&settings.Enabled,
		&dropWarn,
		&dropCrit,
		&riseWarn,
		&riseCrit,
		&settings.CreatedAt,
		&updatedAt,
	); err != nil {
		return AlertSettings{}, err
	}

	var convErr error
	if settings.DropWarning, convErr = decimal.NewFromString(dropWarn); convErr != nil {
		return AlertSettings{}, fmt.Errorf("parse drop warning threshold: %w", convErr)
	}
	if settings.DropCritical, convErr = decimal.NewFromString(dropCrit); convErr != nil {
		return AlertSettings{}, fmt.Errorf("parse drop critical threshold: %w", convErr)
	}
	if settings.RiseWarning, convErr = decimal.NewFromString(riseWarn); convErr != nil {
		return AlertSettings{}, fmt.Errorf("parse rise warning threshold: %w", convErr)
	}
	if settings.RiseCritical, convErr = decimal.NewFromString(riseCrit); convErr != nil {
		return AlertSettings{}, fmt.Errorf("parse rise critical threshold: %w", convErr)
	}

	settings.UpdatedAt = updatedAt
	return settings, nil
}
