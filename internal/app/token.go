package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"bondwatch/internal/invest"
)

// TokenOptions identify the user whose brokerage token is managed.
type TokenOptions struct {
	TelegramID int64
	Username   string
	Token      string
}

// SetUserToken validates the token against the brokerage API and stores it.
// A token the API explicitly rejects is never stored; an unreachable API also
// refuses, so a working token is never overwritten by an unverified one.
func (a *App) SetUserToken(ctx context.Context, opts TokenOptions) error {
	if opts.TelegramID == 0 {
		return errors.New("--user must be provided")
	}
	if opts.Token == "" {
		return errors.New("--token must be provided")
	}

	status, err := a.newInvestClient().ValidateToken(ctx, opts.Token)
	switch status {
	case invest.TokenInvalid:
		return fmt.Errorf("token rejected by the brokerage API: %w", err)
	case invest.TokenUnreachable:
		return fmt.Errorf("brokerage API unreachable, token not stored: %w", err)
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if err := store.RegisterUser(ctx, opts.TelegramID, opts.Username); err != nil {
		return err
	}
	if err := store.SetToken(ctx, opts.TelegramID, opts.Token); err != nil {
		return err
	}

	a.Logger.Info().Int64("user", opts.TelegramID).Msg("brokerage token stored")
	return nil
}

// ClearUserToken removes the stored brokerage token.
func (a *App) ClearUserToken(ctx context.Context, telegramID int64) error {
	if telegramID == 0 {
		return errors.New("--user must be provided")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.ClearToken(ctx, telegramID); err != nil {
		return err
	}

	a.Logger.Info().Int64("user", telegramID).Msg("brokerage token cleared")
	return nil
}

// CheckUserToken probes the stored token and prints the verdict.
func (a *App) CheckUserToken(ctx context.Context, telegramID int64) error {
	if telegramID == 0 {
		return errors.New("--user must be provided")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	token, err := store.Token(ctx, telegramID)
	if err != nil {
		return err
	}
	if token == "" {
		fmt.Fprintln(os.Stdout, "no token stored")
		return nil
	}

	status, probeErr := a.newInvestClient().ValidateToken(ctx, token)
	fmt.Fprintf(os.Stdout, "token status: %s\n", status)
	if probeErr != nil && status != invest.TokenValid {
		fmt.Fprintf(os.Stdout, "detail: %v\n", probeErr)
	}
	return nil
}
