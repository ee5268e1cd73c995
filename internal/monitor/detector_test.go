package monitor

import (
	"testing"

	"github.com/shopspring/decimal"
)

func price(figi string, pct float64) BondPrice {
	return BondPrice{
		FIGI:         figi,
		Ticker:       figi,
		Name:         "bond " + figi,
		PricePercent: decimal.NewFromFloat(pct),
		AccountName:  "broker",
	}
}

func TestDetectCriticalDrop(t *testing.T) {
	current := []BondPrice{price("FIGI1", 94)}
	previous := []BondPrice{price("FIGI1", 100)}

	anomalies := Detect(current, previous, DefaultThresholds())
	if len(anomalies) != 1 {
		t.Fatalf("期望 1 个异常, 实际 %d", len(anomalies))
	}

	a := anomalies[0]
	if a.Type != AlertDropCritical {
		t.Fatalf("100→94 应判定为 %s, 实际 %s", AlertDropCritical, a.Type)
	}
	if a.ChangePercent.Cmp(decimal.NewFromInt(-6)) != 0 {
		t.Fatalf("变动应为 -6%%, 实际 %s", a.ChangePercent)
	}
}

func TestDetectWarningTiers(t *testing.T) {
	cases := []struct {
		name string
		old  float64
		new  float64
		want AlertType
	}{
		{"drop warning", 100, 97, AlertDropWarning},
		{"rise warning", 100, 104, AlertRiseWarning},
		{"rise critical", 100, 108, AlertRiseCritical},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			anomalies := Detect(
				[]BondPrice{price("F", tc.new)},
				[]BondPrice{price("F", tc.old)},
				DefaultThresholds(),
			)
			if len(anomalies) != 1 {
				t.Fatalf("期望 1 个异常, 实际 %d", len(anomalies))
			}
			if anomalies[0].Type != tc.want {
				t.Fatalf("期望 %s, 实际 %s", tc.want, anomalies[0].Type)
			}
		})
	}
}

func TestDetectExactThresholdIsAnomaly(t *testing.T) {
	// 刚好等于临界阈值应判为 critical，而不是 warning。
	anomalies := Detect(
		[]BondPrice{price("F", 95)},
		[]BondPrice{price("F", 100)},
		DefaultThresholds(),
	)
	if len(anomalies) != 1 {
		t.Fatalf("期望 1 个异常, 实际 %d", len(anomalies))
	}
	if anomalies[0].Type != AlertDropCritical {
		t.Fatalf("-5%% 应为 critical, 实际 %s", anomalies[0].Type)
	}
}

func TestDetectBelowThresholdNoAnomaly(t *testing.T) {
	anomalies := Detect(
		[]BondPrice{price("F", 99)},
		[]BondPrice{price("F", 100)},
		DefaultThresholds(),
	)
	if len(anomalies) != 0 {
		t.Fatalf("-1%% 不应产生异常, 实际 %d 个", len(anomalies))
	}
}

func TestDetectNoBaseline(t *testing.T) {
	anomalies := Detect(
		[]BondPrice{price("NEW", 80)},
		nil,
		DefaultThresholds(),
	)
	if len(anomalies) != 0 {
		t.Fatalf("无基线的持仓不应产生异常, 实际 %d 个", len(anomalies))
	}
}

func TestDetectZeroBaselineSkipped(t *testing.T) {
	anomalies := Detect(
		[]BondPrice{price("F", 50)},
		[]BondPrice{price("F", 0)},
		DefaultThresholds(),
	)
	if len(anomalies) != 0 {
		t.Fatalf("零基线应被跳过, 实际 %d 个异常", len(anomalies))
	}
}

func TestDetectUnchangedPrice(t *testing.T) {
	anomalies := Detect(
		[]BondPrice{price("F", 100)},
		[]BondPrice{price("F", 100)},
		DefaultThresholds(),
	)
	if len(anomalies) != 0 {
		t.Fatalf("价格不变不应产生异常, 实际 %d 个", len(anomalies))
	}
}

func TestDetectPreservesInputOrder(t *testing.T) {
	current := []BondPrice{price("A", 90), price("B", 110), price("C", 94)}
	previous := []BondPrice{price("C", 100), price("B", 100), price("A", 100)}

	anomalies := Detect(current, previous, DefaultThresholds())
	if len(anomalies) != 3 {
		t.Fatalf("期望 3 个异常, 实际 %d", len(anomalies))
	}
	for i, figi := range []string{"A", "B", "C"} {
		if anomalies[i].FIGI != figi {
			t.Fatalf("结果顺序应跟随 current, 位置 %d 期望 %s 实际 %s", i, figi, anomalies[i].FIGI)
		}
	}
}
