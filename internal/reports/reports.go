package reports

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bondwatch/internal/invest"
)

// ErrNoToken indicates the user has not stored a brokerage token.
var ErrNoToken = errors.New("reports: no brokerage token stored")

// ReportType selects the coupon report period.
type ReportType string

const (
	ReportDaily  ReportType = "daily"
	ReportWeekly ReportType = "weekly"
)

// PeriodStart returns the UTC start of the reporting period: midnight for
// daily, Monday midnight for weekly.
func PeriodStart(rt ReportType, now time.Time) time.Time {
	day := now.UTC().Truncate(24 * time.Hour)
	if rt != ReportWeekly {
		return day
	}
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// Service builds portfolio reports from the brokerage API.
type Service struct {
	client *invest.Client
	tokens invest.TokenReader
	logger zerolog.Logger
}

// NewService constructs the report service.
func NewService(client *invest.Client, tokens invest.TokenReader, logger zerolog.Logger) *Service {
	return &Service{
		client: client,
		tokens: tokens,
		logger: logger.With().Str("component", "reports").Logger(),
	}
}

func (s *Service) token(ctx context.Context, telegramID int64) (string, error) {
	token, err := s.tokens.Token(ctx, telegramID)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// CouponSummary sums coupon operations per account since the period start.
func (s *Service) CouponSummary(ctx context.Context, telegramID int64, since time.Time) (string, error) {
	token, err := s.token(ctx, telegramID)
	if err != nil {
		return "", err
	}

	accounts, err := s.client.Accounts(ctx, token)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	total := decimal.Zero

	for _, account := range accounts {
		operations, err := s.client.Operations(ctx, token, account.ID, since, time.Now().UTC())
		if err != nil {
			return "", err
		}

		accountTotal := decimal.Zero
		for _, op := range operations {
			if op.OperationType != invest.OperationTypeCoupon {
				continue
			}
			accountTotal = accountTotal.Add(op.Payment.Decimal())
		}

		total = total.Add(accountTotal)
		fmt.Fprintf(&builder, "<b>%s</b>: %s₽\n", account.Name, formatAmount(accountTotal))
	}

	fmt.Fprintf(&builder, "\n<b>Total payouts:</b> %s₽", formatAmount(total))
	return builder.String(), nil
}

type maturityEntry struct {
	ticker      string
	name        string
	maturity    time.Time
	quantity    int64
	nominal     decimal.Decimal
	currency    string
	accountName string
}

// NearestMaturities lists the next maturities in the user's portfolio.
// Returns an empty string when no bond has a future maturity date.
func (s *Service) NearestMaturities(ctx context.Context, telegramID int64, limit int) (string, error) {
	token, err := s.token(ctx, telegramID)
	if err != nil {
		return "", err
	}

	bonds, err := s.client.Bonds(ctx, token)
	if err != nil {
		return "", err
	}
	bondsByFIGI := make(map[string]invest.Bond, len(bonds))
	for _, bond := range bonds {
		bondsByFIGI[bond.FIGI] = bond
	}

	accounts, err := s.client.Accounts(ctx, token)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	entries := make([]maturityEntry, 0)

	for _, account := range accounts {
		positions, err := s.client.Portfolio(ctx, token, account.ID)
		if err != nil {
			return "", err
		}

		for _, position := range positions {
			if position.InstrumentType != "bond" {
				continue
			}
			bond, ok := bondsByFIGI[position.FIGI]
			if !ok || bond.MaturityDate == nil || !bond.MaturityDate.After(now) {
				continue
			}

			entries = append(entries, maturityEntry{
				ticker:      bond.Ticker,
				name:        bond.Name,
				maturity:    *bond.MaturityDate,
				quantity:    position.Quantity.Decimal().IntPart(),
				nominal:     bond.Nominal.Decimal(),
				currency:    bond.Currency,
				accountName: account.Name,
			})
		}
	}

	if len(entries) == 0 {
		return "", nil
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].maturity.Before(entries[j].maturity) })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	lines := make([]string, 0, len(entries))
	for i, entry := range entries {
		daysLeft := int(entry.maturity.Sub(now).Hours() / 24)
		totalNominal := entry.nominal.Mul(decimal.NewFromInt(entry.quantity))
		lines = append(lines, fmt.Sprintf(
			"%d. <code>%s</code>\n   %s\n   Maturity: %s (%d d.)\n   Qty: %d x %s = %s %s\n   Account: %s\n",
			i+1,
			entry.ticker,
			entry.name,
			entry.maturity.Format("02.01.2006"),
			daysLeft,
			entry.quantity,
			entry.nominal.StringFixed(0),
			formatAmount(totalNominal),
			strings.ToUpper(entry.currency),
			entry.accountName,
		))
	}

	return strings.Join(lines, "\n"), nil
}

type offerEntry struct {
	ticker      string
	name        string
	offerDate   time.Time
	quantity    int64
	nominal     decimal.Decimal
	currency    string
	accountName string
}

type offerKey struct {
	ticker      string
	offerDate   time.Time
	accountName string
}

// NearestOffers lists upcoming call events for portfolio bonds within the
// next year, de-duplicated per (ticker, date, account).
func (s *Service) NearestOffers(ctx context.Context, telegramID int64, limit int) (string, error) {
	token, err := s.token(ctx, telegramID)
	if err != nil {
		return "", err
	}

	bonds, err := s.client.Bonds(ctx, token)
	if err != nil {
		return "", err
	}
	bondsByFIGI := make(map[string]invest.Bond, len(bonds))
	for _, bond := range bonds {
		bondsByFIGI[bond.FIGI] = bond
	}

	accounts, err := s.client.Accounts(ctx, token)
	if err != nil {
		return "", err
	}

	type holding struct {
		accountName string
		quantity    int64
	}
	holdingsByFIGI := make(map[string][]holding)

	for _, account := range accounts {
		positions, err := s.client.Portfolio(ctx, token, account.ID)
		if err != nil {
			return "", err
		}
		for _, position := range positions {
			if position.InstrumentType != "bond" {
				continue
			}
			holdingsByFIGI[position.FIGI] = append(holdingsByFIGI[position.FIGI], holding{
				accountName: account.Name,
				quantity:    position.Quantity.Decimal().IntPart(),
			})
		}
	}

	now := time.Now().UTC()
	horizon := now.AddDate(1, 0, 0)
	offers := make(map[offerKey]offerEntry)

	for figi, holdings := range holdingsByFIGI {
		bond, ok := bondsByFIGI[figi]
		if !ok {
			continue
		}

		events, err := s.client.BondEvents(ctx, token, figi, now, horizon, invest.EventTypeCall)
		if err != nil {
			s.logger.Error().Err(err).Str("figi", figi).Str("ticker", bond.Ticker).
				Msg("failed to fetch bond events")
			continue
		}

		for _, event := range events {
			for _, h := range holdings {
				key := offerKey{ticker: bond.Ticker, offerDate: event.EventDate, accountName: h.accountName}
				if _, exists := offers[key]; exists {
					continue
				}
				offers[key] = offerEntry{
					ticker:      bond.Ticker,
					name:        bond.Name,
					offerDate:   event.EventDate,
					quantity:    h.quantity,
					nominal:     bond.Nominal.Decimal(),
					currency:    bond.Currency,
					accountName: h.accountName,
				}
			}
		}
	}

	if len(offers) == 0 {
		return "", nil
	}

	entries := make([]offerEntry, 0, len(offers))
	for _, entry := range offers {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].offerDate.Before(entries[j].offerDate) })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	lines := make([]string, 0, len(entries))
	for i, entry := range entries {
		daysLeft := int(entry.offerDate.Sub(now).Hours() / 24)
		totalNominal := entry.nominal.Mul(decimal.NewFromInt(entry.quantity))
		lines = append(lines, fmt.Sprintf(
			"%d. <code>%s</code>\n   %s\n   Offer: %s (%d d.)\n   Qty: %d x %s = %s %s\n   Account: %s\n",
			i+1,
			entry.ticker,
			entry.name,
			entry.offerDate.Format("02.01.2006"),
			daysLeft,
			entry.quantity,
			entry.nominal.StringFixed(0),
			formatAmount(totalNominal),
			strings.ToUpper(entry.currency),
			entry.accountName,
		))
	}

	return strings.Join(lines, "\n"), nil
}

// formatAmount renders a decimal with comma thousands grouping and two
// fractional digits.
func formatAmount(d decimal.Decimal) string {
	fixed := d.StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	intPart, fracPart, _ := strings.Cut(fixed, ".")
	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}

	return sign + grouped.String() + "." + fracPart
}
