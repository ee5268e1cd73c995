package monitor

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestThresholdsValidate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Fatalf("默认阈值应合法: %v", err)
	}

	th := DefaultThresholds()
	th.DropWarning = decimal.Zero
	if err := th.Validate(); !errors.Is(err, ErrThresholdRange) {
		t.Fatalf("零阈值应返回 ErrThresholdRange, 实际 %v", err)
	}

	th = DefaultThresholds()
	th.RiseWarning = decimal.NewFromInt(101)
	if err := th.Validate(); !errors.Is(err, ErrThresholdRange) {
		t.Fatalf("超过 100 应返回 ErrThresholdRange, 实际 %v", err)
	}

	th = DefaultThresholds()
	th.DropWarning = decimal.NewFromInt(6)
	if err := th.Validate(); !errors.Is(err, ErrThresholdOrder) {
		t.Fatalf("warning 大于 critical 应返回 ErrThresholdOrder, 实际 %v", err)
	}
}

func TestEscalationOf(t *testing.T) {
	if !AlertDropCritical.EscalationOf(AlertDropWarning) {
		t.Fatal("同方向 warning→critical 应视为升级")
	}
	if AlertRiseCritical.EscalationOf(AlertDropWarning) {
		t.Fatal("方向不同不应视为升级")
	}
	if AlertDropWarning.EscalationOf(AlertDropCritical) {
		t.Fatal("critical→warning 不是升级")
	}
	if AlertDropCritical.EscalationOf(AlertDropCritical) {
		t.Fatal("critical→critical 不是升级")
	}
}

func TestParseAlertType(t *testing.T) {
	for _, tag := range []AlertType{AlertDropWarning, AlertDropCritical, AlertRiseWarning, AlertRiseCritical} {
		parsed, ok := ParseAlertType(string(tag))
		if !ok || parsed != tag {
			t.Fatalf("%s 应能回解析", tag)
		}
	}
	if _, ok := ParseAlertType("bogus"); ok {
		t.Fatal("未知标签不应解析成功")
	}
}
