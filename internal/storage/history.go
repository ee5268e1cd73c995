package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"bondwatch/internal/monitor"
)

const (
	latestSnapshotSQL = `SELECT DISTINCT ON (figi)
        id,
        telegram_id,
        figi,
        ticker,
        name,
        price_percent::text,
        account_name,
        recorded_at
    FROM bond_price_history
    WHERE telegram_id = $1
    ORDER BY figi, recorded_at DESC;`

	insertPriceSQL = `INSERT INTO bond_price_history (
        telegram_id,
        figi,
        ticker,
        name,
        price_percent,
        account_name,
        recorded_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    );`

	listPricesBetweenSQL = `SELECT
        id,
        telegram_id,
        figi,
        ticker,
        name,
        price_percent::text,
        account_name,
        recorded_at
    FROM bond_price_history
    WHERE telegram_id = $1
      AND recorded_at >= $2
      AND recorded_at < $3
    ORDER BY recorded_at;`

	deletePricesBeforeSQL = `DELETE FROM bond_price_history WHERE recorded_at < $1;`
)

// LatestSnapshot returns the most recent record per instrument for the user.
func (s *Store) LatestSnapshot(ctx context.Context, telegramID int64) ([]PriceRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, latestSnapshotSQL, telegramID)
	if queryErr != nil {
		return nil, fmt.Errorf("latest snapshot: %w", queryErr)
	}
	defer rows.Close()

	records := make([]PriceRecord, 0)
	for rows.Next() {
		record, scanErr := scanPriceRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, record)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// SaveSnapshot persists the current prices under one shared timestamp.
func (s *Store) SaveSnapshot(ctx context.Context, telegramID int64, prices []monitor.BondPrice) error {
	if len(prices) == 0 {
		return nil
	}

	pool, err := s.getPool()
	if err != nil {
		return err
	}

	recordedAt := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, price := range prices {
		batch.Queue(insertPriceSQL,
			telegramID,
			price.FIGI,
			price.Ticker,
			price.Name,
			price.PricePercent.String(),
			price.AccountName,
			recordedAt,
		)
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()

	for range prices {
		if _, execErr := results.Exec(); execErr != nil {
			return fmt.Errorf("save snapshot: %w", execErr)
		}
	}
	return nil
}

// ListPricesBetween lists snapshot rows within a time window.
func (s *Store) ListPricesBetween(ctx context.Context, telegramID int64, from, to time.Time) ([]PriceRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listPricesBetweenSQL, telegramID, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list prices between: %w", queryErr)
	}
	defer rows.Close()

	records := make([]PriceRecord, 0)
	for rows.Next() {
		record, scanErr := scanPriceRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, record)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// DeletePricesBefore purges snapshot rows older than the cutoff.
func (s *Store) DeletePricesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	cmdTag, execErr := pool.Exec(ctx, deletePricesBeforeSQL, cutoff)
	if execErr != nil {
		return 0, fmt.Errorf("delete prices before: %w", execErr)
	}
	return cmdTag.RowsAffected(), nil
}

func scanPriceRecord(rows pgx.Rows) (PriceRecord, error) {
	var (
		record   PriceRecord
		priceStr string
	)

	if err := rows.Scan(
		&record.ID,
		&record.TelegramID,
		&record.FIGI,
		&record.Ticker,
		&record.Name,
		&priceStr,
		&record.AccountName,
		&record.RecordedAt,
	); err != nil {
		return PriceRecord{}, err
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return PriceRecord{}, fmt.Errorf("parse price percent: %w", err)
	}
	record.PricePercent = price

	return record, nil
}
