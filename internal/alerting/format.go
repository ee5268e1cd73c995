package alerting

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bondwatch/internal/monitor"
)

const aggregateGroupLimit = 5

// FormatAlert renders one anomaly as the message a user would receive.
func FormatAlert(a monitor.Anomaly) string {
	return renderSingle(a)
}

// FormatSummary renders the aggregated message for a batch of anomalies.
func FormatSummary(anomalies []monitor.Anomaly) string {
	return renderAggregated(anomalies)
}

// renderSingle formats one anomaly as a standalone HTML message.
func renderSingle(a monitor.Anomaly) string {
	critical := a.Type.Severity() == monitor.SeverityCritical
	drop := a.Type.Direction() == monitor.DirectionDrop

	var header string
	switch {
	case critical && drop:
		header = "🚨 <b>Critical bond price drop!</b>"
	case critical:
		header = "🚨 <b>Critical bond price rise!</b>"
	default:
		header = "⚠️ <b>Bond price change</b>"
	}

	arrow := "📈"
	verb := "rose"
	if drop {
		arrow = "📉"
		verb = "dropped"
	}

	lines := []string{
		header,
		"",
		fmt.Sprintf("<code>%s</code> %s", a.Ticker, a.Name),
		fmt.Sprintf("%s Price %s by %s%%", arrow, verb, signedPercent(a.ChangePercent)),
		fmt.Sprintf("   Was: %s%%  →  Now: %s%%", a.OldPrice.StringFixed(2), a.NewPrice.StringFixed(2)),
		"",
		fmt.Sprintf("💼 Account: %s", a.AccountName),
	}

	if critical {
		lines = append(lines, "", "⚡ <i>Check the issuer's latest news</i>")
	}

	return strings.Join(lines, "\n")
}

// renderAggregated formats many anomalies as one summary message, critical
// group first, preserving detector order inside each group.
func renderAggregated(anomalies []monitor.Anomaly) string {
	var critical, warnings []monitor.Anomaly
	for _, a := range anomalies {
		if a.Type.Severity() == monitor.SeverityCritical {
			critical = append(critical, a)
		} else {
			warnings = append(warnings, a)
		}
	}

	lines := []string{"<b>Multiple bond price changes</b>\n"}

	if len(critical) > 0 {
		lines = append(lines, fmt.Sprintf("🚨 <b>Critical: %d</b>", len(critical)))
		lines = append(lines, groupLines(critical)...)
	}

	if len(warnings) > 0 {
		lines = append(lines, fmt.Sprintf("\n⚠️ <b>Warnings: %d</b>", len(warnings)))
		lines = append(lines, groupLines(warnings)...)
	}

	if len(anomalies) > 10 {
		lines = append(lines, fmt.Sprintf("\n... and %d more changes", len(anomalies)-10))
	}

	lines = append(lines, "\n💡 <i>Consider reviewing your portfolio</i>")

	return strings.Join(lines, "\n")
}

func groupLines(group []monitor.Anomaly) []string {
	lines := make([]string, 0, aggregateGroupLimit)
	for i, a := range group {
		if i >= aggregateGroupLimit {
			break
		}
		arrow := "📈"
		if a.Type.Direction() == monitor.DirectionDrop {
			arrow = "📉"
		}
		lines = append(lines, fmt.Sprintf("  %s <code>%s</code>: %s%%", arrow, a.Ticker, signedPercent(a.ChangePercent)))
	}
	return lines
}

func signedPercent(d decimal.Decimal) string {
	fixed := d.StringFixed(1)
	if d.Sign() > 0 {
		return "+" + fixed
	}
	return fixed
}
