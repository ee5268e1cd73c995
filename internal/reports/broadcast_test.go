package reports

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"bondwatch/internal/invest"
	"bondwatch/internal/storage"
)

type fakeUsers struct {
	active      []int64
	tokens      map[int64]string
	deactivated []int64
}

func (f *fakeUsers) RegisterUser(context.Context, int64, string) error { return nil }

func (f *fakeUsers) Token(_ context.Context, telegramID int64) (string, error) {
	return f.tokens[telegramID], nil
}

func (f *fakeUsers) SetToken(context.Context, int64, string) error { return nil }
func (f *fakeUsers) ClearToken(context.Context, int64) error       { return nil }

func (f *fakeUsers) ListActiveUsers(context.Context) ([]int64, error) {
	return f.active, nil
}

func (f *fakeUsers) DeactivateUser(_ context.Context, telegramID int64) error {
	f.deactivated = append(f.deactivated, telegramID)
	return nil
}

var _ storage.UserStore = (*fakeUsers)(nil)

type recordingNotifier struct {
	sent    map[int64]string
	failFor int64
}

func (r *recordingNotifier) SendMessage(_ context.Context, chatID int64, text string) error {
	if chatID == r.failFor {
		return errors.New("chat not found")
	}
	if r.sent == nil {
		r.sent = make(map[int64]string)
	}
	r.sent[chatID] = text
	return nil
}

func couponAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "GetAccounts"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"accounts": []map[string]string{{"id": "acc-1", "name": "Main"}},
			})
		case strings.Contains(r.URL.Path, "GetOperations"):
			_, _ = w.Write([]byte(`{"operations":[
				{"id":"1","operationType":"OPERATION_TYPE_COUPON","payment":{"currency":"rub","units":"500","nano":0}}
			]}`))
		default:
			t.Fatalf("未预期的请求路径: %s", r.URL.Path)
		}
	}))
}

func newTestBroadcaster(t *testing.T, baseURL string, users *fakeUsers, notifier *recordingNotifier) *Broadcaster {
	t.Helper()
	client := invest.NewClient(invest.Options{BaseURL: baseURL, Timeout: time.Second}, zerolog.Nop())
	svc := NewService(client, tokenMapReader{users.tokens}, zerolog.Nop())
	return NewBroadcaster(svc, users, notifier, zerolog.Nop())
}

type tokenMapReader struct {
	tokens map[int64]string
}

func (r tokenMapReader) Token(_ context.Context, telegramID int64) (string, error) {
	return r.tokens[telegramID], nil
}

func TestBroadcastDeliversToActiveUsers(t *testing.T) {
	srv := couponAPIServer(t)
	defer srv.Close()

	users := &fakeUsers{
		active: []int64{1, 2},
		tokens: map[int64]string{1: "tok-1", 2: "tok-2"},
	}
	notifier := &recordingNotifier{}

	b := newTestBroadcaster(t, srv.URL, users, notifier)
	if err := b.Broadcast(context.Background(), ReportDaily); err != nil {
		t.Fatalf("Broadcast 不应报错: %v", err)
	}

	if len(notifier.sent) != 2 {
		t.Fatalf("两名活跃用户都应收到日报, 实际 %d", len(notifier.sent))
	}
	if !strings.Contains(notifier.sent[1], "Coupon payouts for today") {
		t.Fatalf("日报标题不正确:\n%s", notifier.sent[1])
	}
	if !strings.Contains(notifier.sent[1], "500.00₽") {
		t.Fatalf("日报应包含券息金额:\n%s", notifier.sent[1])
	}
}

func TestBroadcastSkipsUsersWithoutToken(t *testing.T) {
	srv := couponAPIServer(t)
	defer srv.Close()

	users := &fakeUsers{
		active: []int64{1, 2},
		tokens: map[int64]string{2: "tok-2"},
	}
	notifier := &recordingNotifier{}

	b := newTestBroadcaster(t, srv.URL, users, notifier)
	if err := b.Broadcast(context.Background(), ReportWeekly); err != nil {
		t.Fatalf("Broadcast 不应报错: %v", err)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("无 token 用户应被跳过, 实际发送 %d 条", len(notifier.sent))
	}
	if len(users.deactivated) != 0 {
		t.Fatal("无 token 不应导致停用")
	}
	if !strings.Contains(notifier.sent[2], "Coupon payouts for the week") {
		t.Fatalf("周报标题不正确:\n%s", notifier.sent[2])
	}
}

func TestBroadcastDeactivatesOnDeliveryFailure(t *testing.T) {
	srv := couponAPIServer(t)
	defer srv.Close()

	users := &fakeUsers{
		active: []int64{1, 2},
		tokens: map[int64]string{1: "tok-1", 2: "tok-2"},
	}
	notifier := &recordingNotifier{failFor: 1}

	b := newTestBroadcaster(t, srv.URL, users, notifier)
	if err := b.Broadcast(context.Background(), ReportDaily); err != nil {
		t.Fatalf("Broadcast 不应报错: %v", err)
	}

	if len(users.deactivated) != 1 || users.deactivated[0] != 1 {
		t.Fatalf("投递失败的用户应被停用, 实际 %v", users.deactivated)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("其余用户仍应收到日报, 实际 %d", len(notifier.sent))
	}
}
