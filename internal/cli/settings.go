package cli

import (
	"github.com/spf13/cobra"

	"bondwatch/internal/app"
)

var (
	settingsUser  int64
	thresholdOpts app.ThresholdOptions
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage a user's alert settings",
}

var settingsEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Switch price alerts on",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().SetAlertsEnabled(cmd.Context(), settingsUser, true)
	},
}

var settingsDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Switch price alerts off",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().SetAlertsEnabled(cmd.Context(), settingsUser, false)
	},
}

var settingsToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Invert the alerts flag and print the new state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ToggleAlerts(cmd.Context(), settingsUser)
	},
}

var settingsThresholdsCmd = &cobra.Command{
	Use:   "set-thresholds",
	Short: "Replace the four anomaly thresholds (percent)",
	RunE: func(cmd *cobra.Command, args []string) error {
		thresholdOpts.TelegramID = settingsUser
		return getApp().UpdateThresholds(cmd.Context(), thresholdOpts)
	},
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the user's alert settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ShowSettings(cmd.Context(), settingsUser)
	},
}

func init() {
	settingsCmd.PersistentFlags().Int64Var(&settingsUser, "user", 0, "Telegram user ID")

	settingsThresholdsCmd.Flags().Float64Var(&thresholdOpts.DropWarning, "drop-warning", 2.0, "Drop warning threshold")
	settingsThresholdsCmd.Flags().Float64Var(&thresholdOpts.DropCritical, "drop-critical", 5.0, "Drop critical threshold")
	settingsThresholdsCmd.Flags().Float64Var(&thresholdOpts.RiseWarning, "rise-warning", 3.0, "Rise warning threshold")
	settingsThresholdsCmd.Flags().Float64Var(&thresholdOpts.RiseCritical, "rise-critical", 7.0, "Rise critical threshold")

	settingsCmd.AddCommand(settingsEnableCmd)
	settingsCmd.AddCommand(settingsDisableCmd)
	settingsCmd.AddCommand(settingsToggleCmd)
	settingsCmd.AddCommand(settingsThresholdsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
}
