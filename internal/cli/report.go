package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bondwatch/internal/reports"
)

var reportCmd = &cobra.Command{
	Use:   "report [daily|weekly]",
	Short: "Broadcast a coupon report to all active users",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rt reports.ReportType
		switch args[0] {
		case "daily":
			rt = reports.ReportDaily
		case "weekly":
			rt = reports.ReportWeekly
		default:
			return fmt.Errorf("unknown report type %q (expected daily or weekly)", args[0])
		}

		return getApp().Report(cmd.Context(), rt)
	},
}
