package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const (
	upsertUserSQL = `INSERT INTO bot_users (telegram_id, username)
    VALUES ($1, NULLIF($2, ''))
    ON CONFLICT (telegram_id) DO UPDATE
    SET username      = COALESCE(EXCLUDED.username, bot_users.username),
        is_active     = TRUE,
        last_activity = now();`

	tokenByUserSQL = `SELECT invest_token
    FROM bot_users
    WHERE telegram_id = $1
      AND is_active;`

	setTokenSQL = `UPDATE bot_users
    SET invest_token = $2, last_activity = now()
    WHERE telegram_id = $1;`

	clearTokenSQL = `UPDATE bot_users
    SET invest_token = NULL
    WHERE telegram_id = $1;`

	listActiveUsersSQL = `SELECT telegram_id
    FROM bot_users
    WHERE is_active
    ORDER BY telegram_id;`

	deactivateUserSQL = `UPDATE bot_users
    SET is_active = FALSE
    WHERE telegram_id = $1;`
)

// RegisterUser inserts the user or refreshes activity for an existing one.
func (s *Store) RegisterUser(ctx context.Context, telegramID int64, username string) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, upsertUserSQL, telegramID, username); execErr != nil {
		return fmt.Errorf("register user: %w", execErr)
	}
	return nil
}

// Token returns the stored brokerage token, or empty when absent.
func (s *Store) Token(ctx context.Context, telegramID int64) (string, error) {
	pool, err := s.getPool()
	if err != nil {
		return "", err
	}

	var token sql.NullString
	scanErr := pool.QueryRow(ctx, tokenByUserSQL, telegramID).Scan(&token)
	if errors.Is(scanErr, pgx.ErrNoRows) {
		return "", nil
	}
	if scanErr != nil {
		return "", fmt.Errorf("get token: %w", scanErr)
	}
	if !token.Valid {
		return "", nil
	}
	return token.String, nil
}

// SetToken stores the user's brokerage token.
func (s *Store) SetToken(ctx context.Context, telegramID int64, token string) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	cmdTag, execErr := pool.Exec(ctx, setTokenSQL, telegramID, token)
	if execErr != nil {
		return fmt.Errorf("set token: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ClearToken removes the user's brokerage token.
func (s *Store) ClearToken(ctx context.Context, telegramID int64) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, clearTokenSQL, telegramID); execErr != nil {
		return fmt.Errorf("clear token: %w", execErr)
	}
	return nil
}

// ListActiveUsers returns telegram ids of all active users.
func (s *Store) ListActiveUsers(ctx context.Context) ([]int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listActiveUsersSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list active users: %w", queryErr)
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

// DeactivateUser marks the user inactive after a delivery failure.
func (s *Store) DeactivateUser(ctx context.Context, telegramID int64) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deactivateUserSQL, telegramID); execErr != nil {
		return fmt.Errorf("deactivate user: %w", execErr)
	}
	return nil
}
