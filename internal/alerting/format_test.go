package alerting

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"bondwatch/internal/monitor"
)

func TestFormatAlertCriticalDrop(t *testing.T) {
	text := FormatAlert(monitor.Anomaly{
		FIGI:          "F",
		Ticker:        "RU000A0JX0J2",
		Name:          "OFZ 26207",
		OldPrice:      decimal.NewFromInt(100),
		NewPrice:      decimal.NewFromInt(94),
		ChangePercent: decimal.NewFromInt(-6),
		Type:          monitor.AlertDropCritical,
		AccountName:   "Main",
	})

	for _, want := range []string{
		"Critical bond price drop",
		"RU000A0JX0J2",
		"-6.0%",
		"Was: 100.00%",
		"Now: 94.00%",
		"Account: Main",
		"Check the issuer's latest news",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("消息应包含 %q, 实际:\n%s", want, text)
		}
	}
}

func TestFormatAlertWarningOmitsCriticalFooter(t *testing.T) {
	text := FormatAlert(anomalyWithChange("F", monitor.AlertRiseWarning, 4))
	if strings.Contains(text, "Check the issuer's latest news") {
		t.Fatal("warning 消息不应带 critical 脚注")
	}
	if !strings.Contains(text, "+4.0%") {
		t.Fatalf("涨幅应带正号, 实际:\n%s", text)
	}
}

func TestFormatSummaryGroupsAndTruncates(t *testing.T) {
	var anomalies []monitor.Anomaly
	for i := 0; i < 8; i++ {
		anomalies = append(anomalies, anomalyWithChange("C", monitor.AlertDropCritical, -6))
	}
	for i := 0; i < 4; i++ {
		anomalies = append(anomalies, anomalyWithChange("W", monitor.AlertRiseWarning, 4))
	}

	text := FormatSummary(anomalies)

	if !strings.Contains(text, "Critical: 8") {
		t.Fatalf("应统计 critical 数量, 实际:\n%s", text)
	}
	if !strings.Contains(text, "Warnings: 4") {
		t.Fatalf("应统计 warning 数量, 实际:\n%s", text)
	}
	if !strings.Contains(text, "and 2 more changes") {
		t.Fatalf("超过 10 条应提示截断, 实际:\n%s", text)
	}
	if got := strings.Count(text, "<code>"); got > 10 {
		t.Fatalf("每组最多列 5 条, 实际列出 %d 条", got)
	}
}

func anomalyWithChange(figi string, alertType monitor.AlertType, change float64) monitor.Anomaly {
	return monitor.Anomaly{
		FIGI:          figi,
		Ticker:        figi,
		Name:          "bond " + figi,
		OldPrice:      decimal.NewFromInt(100),
		NewPrice:      decimal.NewFromFloat(100 + change),
		ChangePercent: decimal.NewFromFloat(change),
		Type:          alertType,
		AccountName:   "broker",
	}
}
