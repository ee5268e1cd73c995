package app

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"bondwatch/internal/alerting"
	"bondwatch/internal/monitor"
)

// SimulateOptions describe the synthetic price move to run through the
// detector and formatter.
type SimulateOptions struct {
	Ticker   string
	Name     string
	Account  string
	OldPrice decimal.Decimal
	NewPrice decimal.Decimal
	ChatID   int64
}

// SimulateAlert 用给定的新旧价格走一遍检测与格式化流程。
// ChatID 非零且已配置 Telegram 时真实发送，否则仅打印。
func (a *App) SimulateAlert(ctx context.Context, opts SimulateOptions) error {
	if opts.Ticker == "" {
		opts.Ticker = "RU000A000000"
	}
	if opts.Name == "" {
		opts.Name = "Simulated bond"
	}
	if opts.Account == "" {
		opts.Account = "Simulated account"
	}

	previous := []monitor.BondPrice{{
		FIGI:         opts.Ticker,
		Ticker:       opts.Ticker,
		Name:         opts.Name,
		PricePercent: opts.OldPrice,
		AccountName:  opts.Account,
	}}
	current := []monitor.BondPrice{{
		FIGI:         opts.Ticker,
		Ticker:       opts.Ticker,
		Name:         opts.Name,
		PricePercent: opts.NewPrice,
		AccountName:  opts.Account,
	}}

	anomalies := monitor.Detect(current, previous, monitor.DefaultThresholds())
	if len(anomalies) == 0 {
		fmt.Fprintln(os.Stdout, "no anomaly: change is below every threshold")
		return nil
	}

	text := alerting.FormatAlert(anomalies[0])

	if opts.ChatID != 0 {
		notifier := a.newNotifier()
		if notifier == nil {
			return fmt.Errorf("alerting.telegram.bot_token is not configured")
		}
		if err := notifier.SendMessage(ctx, opts.ChatID, text); err != nil {
			return fmt.Errorf("send simulated alert: %w", err)
		}
		a.Logger.Info().Int64("chat_id", opts.ChatID).Msg("simulated alert delivered")
		return nil
	}

	fmt.Fprintln(os.Stdout, text)
	return nil
}
