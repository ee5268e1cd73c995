package app

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"bondwatch/internal/config"
	"bondwatch/internal/monitor"
)

func newTestApp() *App {
	return NewApp(&config.Config{}, zerolog.Nop())
}

func TestUpdateThresholdsValidatesBeforeStore(t *testing.T) {
	// DSN 为空, 若校验先于建库, 非法阈值应返回阈值错误而非数据库错误。
	a := newTestApp()

	err := a.UpdateThresholds(context.Background(), ThresholdOptions{
		TelegramID:   1,
		DropWarning:  6,
		DropCritical: 5,
		RiseWarning:  3,
		RiseCritical: 7,
	})
	if !errors.Is(err, monitor.ErrThresholdOrder) {
		t.Fatalf("warning 大于 critical 应返回 ErrThresholdOrder, 实际 %v", err)
	}

	err = a.UpdateThresholds(context.Background(), ThresholdOptions{
		TelegramID:   1,
		DropWarning:  0,
		DropCritical: 5,
		RiseWarning:  3,
		RiseCritical: 7,
	})
	if !errors.Is(err, monitor.ErrThresholdRange) {
		t.Fatalf("零阈值应返回 ErrThresholdRange, 实际 %v", err)
	}

	err = a.UpdateThresholds(context.Background(), ThresholdOptions{
		TelegramID:   1,
		DropWarning:  2,
		DropCritical: 5,
		RiseWarning:  3,
		RiseCritical: 7,
	})
	if errors.Is(err, monitor.ErrThresholdOrder) || errors.Is(err, monitor.ErrThresholdRange) {
		t.Fatalf("合法阈值不应报校验错误: %v", err)
	}
	if err == nil {
		t.Fatal("未配置数据库时应在校验之后失败")
	}
}

func TestUpdateThresholdsRequiresUser(t *testing.T) {
	a := newTestApp()

	err := a.UpdateThresholds(context.Background(), ThresholdOptions{
		DropWarning:  2,
		DropCritical: 5,
		RiseWarning:  3,
		RiseCritical: 7,
	})
	if err == nil {
		t.Fatal("缺少 --user 应报错")
	}
}
