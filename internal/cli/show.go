package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bondwatch/internal/app"
)

var (
	showUser  int64
	showLimit int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display a user's latest snapshot and recent alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			TelegramID: showUser,
			Limit:      showLimit,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().Int64Var(&showUser, "user", 0, "Telegram user ID to inspect")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of alerts to display")
}
