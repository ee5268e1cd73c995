package alerting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bondwatch/internal/monitor"
	"bondwatch/internal/storage"
)

type fakeAlertLog struct {
	records  []storage.SentAlert
	countErr error
	lastErr  error
}

func (f *fakeAlertLog) RecordSentAlert(_ context.Context, telegramID int64, figi string, alertType monitor.AlertType) error {
	f.records = append(f.records, storage.SentAlert{
		TelegramID: telegramID,
		FIGI:       figi,
		AlertType:  string(alertType),
		SentAt:     time.Now().UTC(),
	})
	return nil
}

func (f *fakeAlertLog) CountAlertsSince(_ context.Context, telegramID int64, since time.Time) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	count := 0
	for _, r := range f.records {
		if r.TelegramID == telegramID && !r.SentAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeAlertLog) LastAlertWithin(_ context.Context, telegramID int64, figi string, since time.Time) (*storage.SentAlert, error) {
	if f.lastErr != nil {
		return nil, f.lastErr
	}
	for i := len(f.records) - 1; i >= 0; i-- {
		r := f.records[i]
		if r.TelegramID == telegramID && r.FIGI == figi && !r.SentAt.Before(since) {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeAlertLog) LastAlertType(_ context.Context, telegramID int64, figi string) (monitor.AlertType, bool, error) {
	for i := len(f.records) - 1; i >= 0; i-- {
		r := f.records[i]
		if r.TelegramID == telegramID && r.FIGI == figi {
			parsed, ok := monitor.ParseAlertType(r.AlertType)
			return parsed, ok, nil
		}
	}
	return "", false, nil
}

func (f *fakeAlertLog) ListRecentAlerts(context.Context, int64, int) ([]storage.SentAlert, error) {
	return f.records, nil
}

func (f *fakeAlertLog) DeleteAlertsBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

var _ storage.AlertLogStore = (*fakeAlertLog)(nil)

func anomaly(figi string, alertType monitor.AlertType) monitor.Anomaly {
	return monitor.Anomaly{
		FIGI:          figi,
		Ticker:        figi,
		Name:          "bond " + figi,
		OldPrice:      decimal.NewFromInt(100),
		NewPrice:      decimal.NewFromInt(94),
		ChangePercent: decimal.NewFromInt(-6),
		Type:          alertType,
		AccountName:   "broker",
	}
}

func newTestPolicy(log storage.AlertLogStore) *Policy {
	return NewPolicy(log, 4*time.Hour, 10, zerolog.Nop())
}

func TestPolicyAllowsFirstAlert(t *testing.T) {
	p := newTestPolicy(&fakeAlertLog{})

	ok, err := p.ShouldSend(context.Background(), 1, anomaly("F", monitor.AlertDropWarning))
	if err != nil {
		t.Fatalf("ShouldSend 不应报错: %v", err)
	}
	if !ok {
		t.Fatal("无历史记录时应放行")
	}
}

func TestPolicyCooldownBlocksRepeat(t *testing.T) {
	log := &fakeAlertLog{}
	_ = log.RecordSentAlert(context.Background(), 1, "F", monitor.AlertDropWarning)

	p := newTestPolicy(log)
	ok, err := p.ShouldSend(context.Background(), 1, anomaly("F", monitor.AlertDropWarning))
	if err != nil {
		t.Fatalf("ShouldSend 不应报错: %v", err)
	}
	if ok {
		t.Fatal("冷却期内重复告警应被拦截")
	}
}

func TestPolicyEscalationBypassesCooldown(t *testing.T) {
	log := &fakeAlertLog{}
	_ = log.RecordSentAlert(context.Background(), 1, "F", monitor.AlertDropWarning)

	p := newTestPolicy(log)
	ok, err := p.ShouldSend(context.Background(), 1, anomaly("F", monitor.AlertDropCritical))
	if err != nil {
		t.Fatalf("ShouldSend 不应报错: %v", err)
	}
	if !ok {
		t.Fatal("warning→critical 升级应绕过冷却期")
	}
}

func TestPolicyNoDeescalation(t *testing.T) {
	log := &fakeAlertLog{}
	_ = log.RecordSentAlert(context.Background(), 1, "F", monitor.AlertDropCritical)

	p := newTestPolicy(log)
	ok, err := p.ShouldSend(context.Background(), 1, anomaly("F", monitor.AlertDropWarning))
	if err != nil {
		t.Fatalf("ShouldSend 不应报错: %v", err)
	}
	if ok {
		t.Fatal("critical 之后的 warning 不应绕过冷却期")
	}
}

func TestPolicyDailyCapBeatsEscalation(t *testing.T) {
	log := &fakeAlertLog{}
	for i := 0; i < 10; i++ {
		_ = log.RecordSentAlert(context.Background(), 1, "OTHER", monitor.AlertRiseWarning)
	}
	_ = log.RecordSentAlert(context.Background(), 1, "F", monitor.AlertDropWarning)

	p := newTestPolicy(log)
	ok, err := p.ShouldSend(context.Background(), 1, anomaly("F", monitor.AlertDropCritical))
	if err != nil {
		t.Fatalf("ShouldSend 不应报错: %v", err)
	}
	if ok {
		t.Fatal("到达每日上限后, 升级也应被拦截")
	}
}

func TestPolicyStoreErrorDenies(t *testing.T) {
	wantErr := errors.New("db down")
	p := newTestPolicy(&fakeAlertLog{countErr: wantErr})

	ok, err := p.ShouldSend(context.Background(), 1, anomaly("F", monitor.AlertDropWarning))
	if !errors.Is(err, wantErr) {
		t.Fatalf("存储错误应透传, 实际 %v", err)
	}
	if ok {
		t.Fatal("存储错误时不应放行")
	}
}

func TestPolicyCooldownLookupErrorDenies(t *testing.T) {
	wantErr := errors.New("db down")
	p := newTestPolicy(&fakeAlertLog{lastErr: wantErr})

	ok, err := p.ShouldSend(context.Background(), 1, anomaly("F", monitor.AlertDropWarning))
	if !errors.Is(err, wantErr) {
		t.Fatalf("冷却期查询错误应透传, 实际 %v", err)
	}
	if ok {
		t.Fatal("冷却期查询错误时不应放行")
	}
}
