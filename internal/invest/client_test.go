package invest

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
	"github.com/shopspring/decimal"
)

func testClient(baseURL string) *Client {
	return NewClient(Options{
		BaseURL:   baseURL,
		Timeout:   time.Second,
		UserAgent: "test",
	}, zerolog.Nop())
}

func TestClientAccountsSuccess(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "GetAccounts") {
			t.Fatalf("路径应包含 GetAccounts, 实际 %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accounts": []map[string]string{
				{"id": "acc-1", "name": "Main", "type": "ACCOUNT_TYPE_TINKOFF", "status": "ACCOUNT_STATUS_OPEN"},
			},
		})
	}))
	defer srv.Close()

	accounts, err := testClient(srv.URL).Accounts(context.Background(), "secret")
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if len(accounts) != 1 || accounts[0].ID != "acc-1" {
		t.Fatalf("账户解析不正确: %#v", accounts)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("应携带 Bearer token, 实际 %q", gotAuth)
	}
}

func TestClientAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 40003, "message": "token is invalid"})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Accounts(context.Background(), "bad")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("应返回 APIError, 实际 %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("状态码应为 401, 实际 %d", apiErr.StatusCode)
	}
	if apiErr.Message != "token is invalid" {
		t.Fatalf("应解析错误消息, 实际 %q", apiErr.Message)
	}
}

func TestClientPortfolioParsesQuotation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// int64 按 proto3 JSON 映射以字符串形式下发。
		_, _ = w.Write([]byte(`{"positions":[{"figi":"F1","instrumentType":"bond","quantity":{"units":"10","nano":0},"currentPrice":{"units":"98","nano":500000000}}]}`))
	}))
	defer srv.Close()

	positions, err := testClient(srv.URL).Portfolio(context.Background(), "secret", "acc-1")
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("期望 1 个持仓, 实际 %d", len(positions))
	}
	price := positions[0].CurrentPrice.Decimal()
	if price.Cmp(decimal.NewFromFloat(98.5)) != 0 {
		t.Fatalf("units+nano 应合成 98.5, 实际 %s", price)
	}
}

func TestValidateTokenTriState(t *testing.T) {
	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"tariff": "investor"})
	}))
	defer okSrv.Close()

	status, err := testClient(okSrv.URL).ValidateToken(context.Background(), "good")
	if err != nil || status != TokenValid {
		t.Fatalf("200 应判定 valid, 实际 %s (%v)", status, err)
	}

	deniedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 40003, "message": "unauthenticated"})
	}))
	defer deniedSrv.Close()

	status, err = testClient(deniedSrv.URL).ValidateToken(context.Background(), "bad")
	if status != TokenInvalid {
		t.Fatalf("401 应判定 invalid, 实际 %s", status)
	}
	if err == nil {
		t.Fatal("invalid 应附带错误详情")
	}

	downSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer downSrv.Close()

	status, _ = testClient(downSrv.URL).ValidateToken(context.Background(), "good")
	if status != TokenUnreachable {
		t.Fatalf("500 应判定 unreachable, 实际 %s", status)
	}
}
