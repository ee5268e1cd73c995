package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"bondwatch/internal/monitor"
)

// ThresholdOptions carry the four anomaly thresholds as CLI percentages.
type ThresholdOptions struct {
	TelegramID   int64
	DropWarning  float64
	DropCritical float64
	RiseWarning  float64
	RiseCritical float64
}

// Thresholds converts the options to the detector's decimal form.
func (o ThresholdOptions) Thresholds() monitor.Thresholds {
	return monitor.Thresholds{
		DropWarning:  decimal.NewFromFloat(o.DropWarning),
		DropCritical: decimal.NewFromFloat(o.DropCritical),
		RiseWarning:  decimal.NewFromFloat(o.RiseWarning),
		RiseCritical: decimal.NewFromFloat(o.RiseCritical),
	}
}

// SetAlertsEnabled switches monitoring on or off for the user.
func (a *App) SetAlertsEnabled(ctx context.Context, telegramID int64, enabled bool) error {
	if telegramID == 0 {
		return errors.New("--user must be provided")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if err := store.SetAlertsEnabled(ctx, telegramID, enabled); err != nil {
		return err
	}

	a.Logger.Info().Int64("user", telegramID).Bool("enabled", enabled).Msg("alerts switched")
	return nil
}

// ToggleAlerts inverts the user's monitoring flag and prints the new state.
func (a *App) ToggleAlerts(ctx context.Context, telegramID int64) error {
	if telegramID == 0 {
		return errors.New("--user must be provided")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	enabled, err := store.ToggleAlerts(ctx, telegramID)
	if err != nil {
		return err
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Fprintf(os.Stdout, "alerts %s\n", state)
	return nil
}

// UpdateThresholds validates and stores the user's anomaly thresholds.
// Validation runs before any store access so a bad value never costs a
// connection.
func (a *App) UpdateThresholds(ctx context.Context, opts ThresholdOptions) error {
	if opts.TelegramID == 0 {
		return errors.New("--user must be provided")
	}

	th := opts.Thresholds()
	if err := th.Validate(); err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if err := store.UpdateThresholds(ctx, opts.TelegramID, th); err != nil {
		return err
	}

	a.Logger.Info().Int64("user", opts.TelegramID).Msg("thresholds updated")
	return nil
}

// ShowSettings prints the user's alert settings, creating defaults when absent.
func (a *App) ShowSettings(ctx context.Context, telegramID int64) error {
	if telegramID == 0 {
		return errors.New("--user must be provided")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	settings, err := store.GetOrCreateSettings(ctx, telegramID)
	if err != nil {
		return err
	}

	state := "disabled"
	if settings.Enabled {
		state = "enabled"
	}
	fmt.Fprintf(os.Stdout, "alerts: %s\n", state)
	fmt.Fprintf(os.Stdout, "drop warning:  %s%%\n", settings.DropWarning.StringFixed(2))
	fmt.Fprintf(os.Stdout, "drop critical: %s%%\n", settings.DropCritical.StringFixed(2))
	fmt.Fprintf(os.Stdout, "rise warning:  %s%%\n", settings.RiseWarning.StringFixed(2))
	fmt.Fprintf(os.Stdout, "rise critical: %s%%\n", settings.RiseCritical.StringFixed(2))
	if settings.UpdatedAt != nil {
		fmt.Fprintf(os.Stdout, "updated: %s\n", settings.UpdatedAt.UTC().Format(time.RFC3339))
	}
	return nil
}
