package invest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	accountsEndpoint   = "tinkoff.public.invest.api.contract.v1.UsersService/GetAccounts"
	userInfoEndpoint   = "tinkoff.public.invest.api.contract.v1.UsersService/GetInfo"
	operationsEndpoint = "tinkoff.public.invest.api.contract.v1.OperationsService/GetOperations"
	portfolioEndpoint  = "tinkoff.public.invest.api.contract.v1.OperationsService/GetPortfolio"
	bondsEndpoint      = "tinkoff.public.invest.api.contract.v1.InstrumentsService/Bonds"
	bondEventsEndpoint = "tinkoff.public.invest.api.contract.v1.InstrumentsService/GetBondEvents"
)

// APIError carries a structured brokerage API failure.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("invest api error (%d): %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("invest api error (%d): %s", e.StatusCode, e.Message)
}

// Options parameterise the brokerage REST client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client is a POST-JSON client for the T-Invest public REST API. The bearer
// token is supplied per call since every bot user carries their own.
type Client struct {
	opts    Options
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewClient constructs a brokerage client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://invest-public-api.tinkoff.ru/rest"
	}

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "invest_client").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

func (c *Client) post(ctx context.Context, token, endpoint string, payload, out any) error {
	if payload == nil {
		payload = struct{}{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	payloadBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return parseAPIError(resp.StatusCode, payloadBytes)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payloadBytes, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseAPIError(status int, payload []byte) error {
	var apiErr struct {
		Code    json.Number `json:"code"`
		Message string      `json:"message"`
	}
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Message != "" {
		return &APIError{StatusCode: status, Code: apiErr.Code.String(), Message: apiErr.Message}
	}
	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(payload))}
}

// Accounts lists the user's brokerage accounts.
func (c *Client) Accounts(ctx context.Context, token string) ([]Account, error) {
	var resp accountsResponse
	if err := c.post(ctx, token, accountsEndpoint, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

// UserInfo fetches account status; used as the token validation probe.
func (c *Client) UserInfo(ctx context.Context, token string) (UserInfo, error) {
	var info UserInfo
	if err := c.post(ctx, token, userInfoEndpoint, nil, &info); err != nil {
		return UserInfo{}, err
	}
	return info, nil
}

// Portfolio fetches the open positions of one account.
func (c *Client) Portfolio(ctx context.Context, token, accountID string) ([]PortfolioPosition, error) {
	payload := map[string]string{"accountId": accountID}
	var resp portfolioResponse
	if err := c.post(ctx, token, portfolioEndpoint, payload, &resp); err != nil {
		return nil, err
	}
	return resp.Positions, nil
}

// Operations lists account operations within [from, to].
func (c *Client) Operations(ctx context.Context, token, accountID string, from, to time.Time) ([]Operation, error) {
	payload := map[string]string{
		"accountId": accountID,
		"from":      from.UTC().Format(time.RFC3339),
		"to":        to.UTC().Format(time.RFC3339),
	}
	var resp operationsResponse
	if err := c.post(ctx, token, operationsEndpoint, payload, &resp); err != nil {
		return nil, err
	}
	return resp.Operations, nil
}

// Bonds fetches the full bond catalogue.
func (c *Client) Bonds(ctx context.Context, token string) ([]Bond, error) {
	payload := map[string]string{"instrumentStatus": "INSTRUMENT_STATUS_BASE"}
	var resp bondsResponse
	if err := c.post(ctx, token, bondsEndpoint, payload, &resp); err != nil {
		return nil, err
	}
	return resp.Instruments, nil
}

// BondEvents lists issuer events of the given type for one instrument.
func (c *Client) BondEvents(ctx context.Context, token, figi string, from, to time.Time, eventType string) ([]BondEvent, error) {
	payload := map[string]string{
		"instrumentId": figi,
		"from":         from.UTC().Format(time.RFC3339),
		"to":           to.UTC().Format(time.RFC3339),
		"type":         eventType,
	}
	var resp bondEventsResponse
	if err := c.post(ctx, token, bondEventsEndpoint, payload, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}
