package invest

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quotation is the units+nano fixed-point number used across the REST API.
// Per proto3 JSON mapping, int64 units arrive as a string.
type Quotation struct {
	Units int64 `json:"units,string"`
	Nano  int32 `json:"nano"`
}

// Decimal converts the quotation into a decimal value.
func (q Quotation) Decimal() decimal.Decimal {
	return decimal.NewFromInt(q.Units).Add(decimal.New(int64(q.Nano), -9))
}

// MoneyValue is a quotation tagged with a currency.
type MoneyValue struct {
	Currency string `json:"currency"`
	Units    int64  `json:"units,string"`
	Nano     int32  `json:"nano"`
}

// Decimal converts the money value into a decimal amount.
func (m MoneyValue) Decimal() decimal.Decimal {
	return decimal.NewFromInt(m.Units).Add(decimal.New(int64(m.Nano), -9))
}

// Account is one brokerage account of a user.
type Account struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

type accountsResponse struct {
	Accounts []Account `json:"accounts"`
}

// UserInfo is the tariff/status payload used for token validation.
type UserInfo struct {
	PremStatus bool   `json:"premStatus"`
	QualStatus bool   `json:"qualStatus"`
	Tariff     string `json:"tariff"`
}

// Operation types relevant to the coupon report.
const (
	OperationTypeCoupon = "OPERATION_TYPE_COUPON"
)

// Operation is one account operation.
type Operation struct {
	ID             string     `json:"id"`
	OperationType  string     `json:"operationType"`
	Payment        MoneyValue `json:"payment"`
	FIGI           string     `json:"figi"`
	InstrumentType string     `json:"instrumentType"`
	Date           time.Time  `json:"date"`
}

type operationsResponse struct {
	Operations []Operation `json:"operations"`
}

// PortfolioPosition is one open position inside an account portfolio.
type PortfolioPosition struct {
	FIGI           string    `json:"figi"`
	InstrumentType string    `json:"instrumentType"`
	Quantity       Quotation `json:"quantity"`
	CurrentPrice   Quotation `json:"currentPrice"`
}

type portfolioResponse struct {
	Positions []PortfolioPosition `json:"positions"`
}

// Bond is one instrument from the bond catalogue.
type Bond struct {
	FIGI         string     `json:"figi"`
	Ticker       string     `json:"ticker"`
	Name         string     `json:"name"`
	Nominal      MoneyValue `json:"nominal"`
	Currency     string     `json:"currency"`
	MaturityDate *time.Time `json:"maturityDate"`
}

type bondsResponse struct {
	Instruments []Bond `json:"instruments"`
}

// Bond event types.
const (
	EventTypeCall     = "EVENT_TYPE_CALL"
	EventTypeMaturity = "EVENT_TYPE_MTY"
)

// BondEvent is one issuer event (offer, maturity, ...) for a bond.
type BondEvent struct {
	EventDate time.Time `json:"eventDate"`
	EventType string    `json:"eventType"`
}

type bondEventsResponse struct {
	Events []BondEvent `json:"events"`
}
