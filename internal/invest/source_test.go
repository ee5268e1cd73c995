package invest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type staticTokens struct {
	token string
}

func (s staticTokens) Token(context.Context, int64) (string, error) {
	return s.token, nil
}

func TestSourceNoTokenReturnsEmpty(t *testing.T) {
	source := NewSource(testClient("http://unreachable.invalid"), staticTokens{}, zerolog.Nop())

	prices, err := source.PortfolioPrices(context.Background(), 1)
	if err != nil {
		t.Fatalf("缺少 token 应静默跳过: %v", err)
	}
	if len(prices) != 0 {
		t.Fatalf("缺少 token 应返回空结果, 实际 %d", len(prices))
	}
}

func TestSourceFiltersBonds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "Bonds"):
			_, _ = w.Write([]byte(`{"instruments":[
				{"figi":"BOND1","ticker":"RU01","name":"OFZ 1","currency":"rub","nominal":{"currency":"rub","units":"1000","nano":0}}
			]}`))
		case strings.Contains(r.URL.Path, "GetAccounts"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"accounts": []map[string]string{{"id": "acc-1", "name": "Main"}},
			})
		case strings.Contains(r.URL.Path, "GetPortfolio"):
			_, _ = w.Write([]byte(`{"positions":[
				{"figi":"BOND1","instrumentType":"bond","quantity":{"units":"10","nano":0},"currentPrice":{"units":"97","nano":250000000}},
				{"figi":"SHARE1","instrumentType":"share","quantity":{"units":"5","nano":0},"currentPrice":{"units":"250","nano":0}}
			]}`))
		default:
			t.Fatalf("未预期的请求路径: %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	source := NewSource(NewClient(Options{BaseURL: srv.URL, Timeout: time.Second}, zerolog.Nop()), staticTokens{token: "tok"}, zerolog.Nop())

	prices, err := source.PortfolioPrices(context.Background(), 1)
	if err != nil {
		t.Fatalf("PortfolioPrices 不应报错: %v", err)
	}
	if len(prices) != 1 {
		t.Fatalf("只有债券持仓应被保留, 实际 %d", len(prices))
	}

	p := prices[0]
	if p.FIGI != "BOND1" || p.Ticker != "RU01" || p.AccountName != "Main" {
		t.Fatalf("持仓字段映射不正确: %#v", p)
	}
	if p.PricePercent.Cmp(decimal.NewFromFloat(97.25)) != 0 {
		t.Fatalf("价格应为 97.25, 实际 %s", p.PricePercent)
	}
}
