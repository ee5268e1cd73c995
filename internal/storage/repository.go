package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bondwatch/internal/monitor"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// UserStore defines operations for bot user and brokerage token persistence.
type UserStore interface {
	RegisterUser(ctx context.Context, telegramID int64, username string) error
	Token(ctx context.Context, telegramID int64) (string, error)
	SetToken(ctx context.Context, telegramID int64, token string) error
	ClearToken(ctx context.Context, telegramID int64) error
	ListActiveUsers(ctx context.Context) ([]int64, error)
	DeactivateUser(ctx context.Context, telegramID int64) error
}

// SettingsStore defines operations for per-user alert settings.
type SettingsStore interface {
	Settings(ctx context.Context, telegramID int64) (*AlertSettings, error)
	GetOrCreateSettings(ctx context.Context, telegramID int64) (AlertSettings, error)
	UpdateThresholds(ctx context.Context, telegramID int64, th monitor.Thresholds) error
	SetAlertsEnabled(ctx context.Context, telegramID int64, enabled bool) error
	ToggleAlerts(ctx context.Context, telegramID int64) (bool, error)
	ListAlertEnabledUsers(ctx context.Context) ([]int64, error)
}

// PriceHistoryStore defines operations for snapshot persistence.
type PriceHistoryStore interface {
	LatestSnapshot(ctx context.Context, telegramID int64) ([]PriceRecord, error)
	SaveSnapshot(ctx context.Context, telegramID int64, prices []monitor.BondPrice) error
	ListPricesBetween(ctx context.Context, telegramID int64, from, to time.Time) ([]PriceRecord, error)
	DeletePricesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AlertLogStore defines operations over the append-only sent-alert log.
type AlertLogStore interface {
	RecordSentAlert(ctx context.Context, telegramID int64, figi string, alertType monitor.AlertType) error
	CountAlertsSince(ctx context.Context, telegramID int64, since time.Time) (int, error)
	LastAlertWithin(ctx context.Context, telegramID int64, figi string, since time.Time) (*SentAlert, error)
	LastAlertType(ctx context.Context, telegramID int64, figi string) (monitor.AlertType, bool, error)
	ListRecentAlerts(ctx context.Context, telegramID int64, limit int) ([]SentAlert, error)
	DeleteAlertsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to users, settings, price history, and the alert log.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctxUnlock, advisoryUnlockSQL, key); err != nil {
			// unlock best effort; log omitted in storage package
		}
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

var (
	_ UserStore         = (*Store)(nil)
	_ SettingsStore     = (*Store)(nil)
	_ PriceHistoryStore = (*Store)(nil)
	_ AlertLogStore     = (*Store)(nil)
	_ AdvisoryLocker    = (*Store)(nil)
)
