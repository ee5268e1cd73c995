package invest

import (
	"context"

	"github.com/rs/zerolog"

	"bondwatch/internal/monitor"
)

// TokenReader resolves the stored brokerage token for a bot user.
type TokenReader interface {
	Token(ctx context.Context, telegramID int64) (string, error)
}

// PriceSource yields the current portfolio bond prices for a user.
type PriceSource interface {
	PortfolioPrices(ctx context.Context, telegramID int64) ([]monitor.BondPrice, error)
}

// Source assembles portfolio bond prices from the brokerage API.
type Source struct {
	client *Client
	tokens TokenReader
	logger zerolog.Logger
}

// NewSource builds a price source over the brokerage client and token store.
func NewSource(client *Client, tokens TokenReader, logger zerolog.Logger) *Source {
	return &Source{
		client: client,
		tokens: tokens,
		logger: logger.With().Str("component", "price_source").Logger(),
	}
}

// PortfolioPrices returns the user's bond positions priced as percent of
// nominal. Expected "no data" cases (missing token, empty portfolio) return
// an empty set rather than an error.
func (s *Source) PortfolioPrices(ctx context.Context, telegramID int64) ([]monitor.BondPrice, error) {
	token, err := s.tokens.Token(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if token == "" {
		s.logger.Warn().Int64("user", telegramID).Msg("no brokerage token stored")
		return nil, nil
	}

	bonds, err := s.client.Bonds(ctx, token)
	if err != nil {
		return nil, err
	}
	bondsByFIGI := make(map[string]Bond, len(bonds))
	for _, bond := range bonds {
		bondsByFIGI[bond.FIGI] = bond
	}

	accounts, err := s.client.Accounts(ctx, token)
	if err != nil {
		return nil, err
	}

	prices := make([]monitor.BondPrice, 0)
	for _, account := range accounts {
		positions, err := s.client.Portfolio(ctx, token, account.ID)
		if err != nil {
			s.logger.Error().Err(err).Int64("user", telegramID).Str("account", account.ID).
				Msg("failed to fetch account portfolio")
			continue
		}

		for _, position := range positions {
			if position.InstrumentType != "bond" {
				continue
			}
			bond, ok := bondsByFIGI[position.FIGI]
			if !ok {
				continue
			}

			prices = append(prices, monitor.BondPrice{
				FIGI:         position.FIGI,
				Ticker:       bond.Ticker,
				Name:         bond.Name,
				PricePercent: position.CurrentPrice.Decimal(),
				AccountName:  account.Name,
			})
		}
	}

	return prices, nil
}

var _ PriceSource = (*Source)(nil)
