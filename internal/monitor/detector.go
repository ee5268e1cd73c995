package monitor

import (
	"github.com/shopspring/decimal"
)

var dec100 = decimal.NewFromInt(100)

// Detect compares the current prices against the previous snapshot and
// returns classified anomalies in current-iteration order.
//
// An instrument without a baseline in previous is never an anomaly, and a
// zero baseline is skipped entirely since the change percent is undefined.
// Pure and deterministic; no I/O.
func Detect(current, previous []BondPrice, th Thresholds) []Anomaly {
	prevByFIGI := make(map[string]BondPrice, len(previous))
	for _, p := range previous {
		prevByFIGI[p.FIGI] = p
	}

	var anomalies []Anomaly
	for _, cur := range current {
		prev, ok := prevByFIGI[cur.FIGI]
		if !ok {
			continue
		}
		if prev.PricePercent.IsZero() {
			continue
		}

		change := cur.PricePercent.Sub(prev.PricePercent).
			Div(prev.PricePercent).
			Mul(dec100)

		alertType, ok := classify(change, th)
		if !ok {
			continue
		}

		anomalies = append(anomalies, Anomaly{
			FIGI:          cur.FIGI,
			Ticker:        cur.Ticker,
			Name:          cur.Name,
			OldPrice:      prev.PricePercent,
			NewPrice:      cur.PricePercent,
			ChangePercent: change,
			Type:          alertType,
			AccountName:   cur.AccountName,
		})
	}

	return anomalies
}

// classify maps a signed change percent onto an alert type. Critical tiers
// are checked before warning tiers so a large move never yields both.
func classify(change decimal.Decimal, th Thresholds) (AlertType, bool) {
	switch change.Sign() {
	case -1:
		drop := change.Abs()
		if drop.GreaterThanOrEqual(th.DropCritical) {
			return AlertDropCritical, true
		}
		if drop.GreaterThanOrEqual(th.DropWarning) {
			return AlertDropWarning, true
		}
	case 1:
		if change.GreaterThanOrEqual(th.RiseCritical) {
			return AlertRiseCritical, true
		}
		if change.GreaterThanOrEqual(th.RiseWarning) {
			return AlertRiseWarning, true
		}
	}
	return "", false
}
