package cli

import (
	"github.com/spf13/cobra"

	"bondwatch/internal/app"
)

var (
	tokenUser     int64
	tokenUsername string
	tokenValue    string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage a user's brokerage API token",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Validate and store a brokerage token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().SetUserToken(cmd.Context(), app.TokenOptions{
			TelegramID: tokenUser,
			Username:   tokenUsername,
			Token:      tokenValue,
		})
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored brokerage token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ClearUserToken(cmd.Context(), tokenUser)
	},
}

var tokenCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe the stored brokerage token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().CheckUserToken(cmd.Context(), tokenUser)
	},
}

func init() {
	tokenCmd.PersistentFlags().Int64Var(&tokenUser, "user", 0, "Telegram user ID")
	tokenSetCmd.Flags().StringVar(&tokenUsername, "username", "", "Telegram username (optional)")
	tokenSetCmd.Flags().StringVar(&tokenValue, "token", "", "Brokerage API token")

	tokenCmd.AddCommand(tokenSetCmd)
	tokenCmd.AddCommand(tokenClearCmd)
	tokenCmd.AddCommand(tokenCheckCmd)
}
