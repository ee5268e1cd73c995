package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"bondwatch/internal/monitor"
)

// BotUser is a registered bot user with an optional brokerage token.
type BotUser struct {
	TelegramID   int64
	Username     *string
	InvestToken  *string
	IsActive     bool
	LastActivity time.Time
	CreatedAt    time.Time
}

// AlertSettings holds the per-user monitoring configuration. Created lazily
// with defaults; never deleted, only soft-disabled via Enabled.
type AlertSettings struct {
	TelegramID   int64
	Enabled      bool
	DropWarning  decimal.Decimal
	DropCritical decimal.Decimal
	RiseWarning  decimal.Decimal
	RiseCritical decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// Thresholds projects the settings row onto the detector input.
func (s AlertSettings) Thresholds() monitor.Thresholds {
	return monitor.Thresholds{
		DropWarning:  s.DropWarning,
		DropCritical: s.DropCritical,
		RiseWarning:  s.RiseWarning,
		RiseCritical: s.RiseCritical,
	}
}

// PriceRecord is one persisted snapshot row. For a (user, FIGI) pair only the
// most recent row by RecordedAt is the current baseline.
type PriceRecord struct {
	ID           int64
	TelegramID   int64
	FIGI         string
	Ticker       string
	Name         string
	PricePercent decimal.Decimal
	AccountName  string
	RecordedAt   time.Time
}

// BondPrice converts the record into the detector's baseline shape.
func (r PriceRecord) BondPrice() monitor.BondPrice {
	return monitor.BondPrice{
		FIGI:         r.FIGI,
		Ticker:       r.Ticker,
		Name:         r.Name,
		PricePercent: r.PricePercent,
		AccountName:  r.AccountName,
	}
}

// SentAlert is one append-only anti-spam log row.
type SentAlert struct {
	ID         int64
	TelegramID int64
	FIGI       string
	AlertType  string
	SentAt     time.Time
}
