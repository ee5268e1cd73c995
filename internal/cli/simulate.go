package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"bondwatch/internal/app"
)

var (
	simulateOld     float64
	simulateNew     float64
	simulateTicker  string
	simulateName    string
	simulateAccount string
	simulateChatID  int64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一次债券价格变动并触发告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateOld <= 0 || simulateNew <= 0 {
			return errors.New("--old 与 --new 必须大于 0")
		}

		opts := app.SimulateOptions{
			Ticker:   simulateTicker,
			Name:     simulateName,
			Account:  simulateAccount,
			OldPrice: decimal.NewFromFloat(simulateOld),
			NewPrice: decimal.NewFromFloat(simulateNew),
			ChatID:   simulateChatID,
		}
		return getApp().SimulateAlert(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulateOld, "old", 0, "基线价格（占面值百分比）")
	simulateCmd.Flags().Float64Var(&simulateNew, "new", 0, "当前价格（占面值百分比）")
	simulateCmd.Flags().StringVar(&simulateTicker, "ticker", "", "Instrument ticker")
	simulateCmd.Flags().StringVar(&simulateName, "name", "", "Instrument name")
	simulateCmd.Flags().StringVar(&simulateAccount, "account", "", "Account name")
	simulateCmd.Flags().Int64Var(&simulateChatID, "chat-id", 0, "Send to this Telegram chat instead of stdout")
}
