package storage

import (
	"context"
	"fmt"
)

const createSchemaSQL = `
CREATE TABLE IF NOT EXISTS bot_users (
    telegram_id   BIGINT PRIMARY KEY,
    username      TEXT,
    invest_token  TEXT,
    is_active     BOOLEAN NOT NULL DEFAULT TRUE,
    last_activity TIMESTAMPTZ NOT NULL DEFAULT now(),
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS alert_settings (
    telegram_id             BIGINT PRIMARY KEY,
    alerts_enabled          BOOLEAN NOT NULL DEFAULT FALSE,
    drop_warning_threshold  NUMERIC(8,4) NOT NULL DEFAULT 2.0,
    drop_critical_threshold NUMERIC(8,4) NOT NULL DEFAULT 5.0,
    rise_warning_threshold  NUMERIC(8,4) NOT NULL DEFAULT 3.0,
    rise_critical_threshold NUMERIC(8,4) NOT NULL DEFAULT 7.0,
    created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at              TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS bond_price_history (
    id            BIGSERIAL PRIMARY KEY,
    telegram_id   BIGINT NOT NULL,
    figi          TEXT NOT NULL,
    ticker        TEXT NOT NULL,
    name          TEXT NOT NULL,
    price_percent NUMERIC(12,6) NOT NULL,
    account_name  TEXT NOT NULL DEFAULT '',
    recorded_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_price_history_user_figi
    ON bond_price_history (telegram_id, figi, recorded_at DESC);
CREATE INDEX IF NOT EXISTS idx_price_history_recorded
    ON bond_price_history (recorded_at);

CREATE TABLE IF NOT EXISTS sent_alerts (
    id          BIGSERIAL PRIMARY KEY,
    telegram_id BIGINT NOT NULL,
    figi        TEXT NOT NULL,
    alert_type  TEXT NOT NULL,
    sent_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sent_alerts_user_figi
    ON sent_alerts (telegram_id, figi, sent_at DESC);
CREATE INDEX IF NOT EXISTS idx_sent_alerts_sent
    ON sent_alerts (sent_at);
`

// EnsureSchema creates the tables and indexes if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, createSchemaSQL); execErr != nil {
		return fmt.Errorf("ensure schema: %w", execErr)
	}
	return nil
}
