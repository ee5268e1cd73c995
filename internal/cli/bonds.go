package cli

import (
	"github.com/spf13/cobra"
)

var (
	bondsUser  int64
	bondsLimit int
)

var bondsCmd = &cobra.Command{
	Use:   "bonds",
	Short: "Print a user's nearest bond maturities and offers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().BondCalendar(cmd.Context(), bondsUser, bondsLimit)
	},
}

func init() {
	bondsCmd.Flags().Int64Var(&bondsUser, "user", 0, "Telegram user ID")
	bondsCmd.Flags().IntVar(&bondsLimit, "limit", 5, "Entries per section")
}
