package monitor

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrThresholdRange indicates a threshold outside the (0, 100] percent range.
	ErrThresholdRange = errors.New("monitor: threshold must be within (0, 100]")
	// ErrThresholdOrder indicates a warning threshold above its critical counterpart.
	ErrThresholdOrder = errors.New("monitor: warning threshold must not exceed critical threshold")
)

// AlertType is the closed set of anomaly classifications.
type AlertType string

const (
	AlertDropWarning  AlertType = "drop_warning"
	AlertDropCritical AlertType = "drop_critical"
	AlertRiseWarning  AlertType = "rise_warning"
	AlertRiseCritical AlertType = "rise_critical"
)

// Severity distinguishes warning and critical tiers.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Direction distinguishes price drops from price rises.
type Direction string

const (
	DirectionDrop Direction = "drop"
	DirectionRise Direction = "rise"
)

// Severity returns the tier of the alert type.
func (t AlertType) Severity() Severity {
	switch t {
	case AlertDropCritical, AlertRiseCritical:
		return SeverityCritical
	default:
		return SeverityWarning
	}
}

// Direction returns the price move direction of the alert type.
func (t AlertType) Direction() Direction {
	switch t {
	case AlertDropWarning, AlertDropCritical:
		return DirectionDrop
	default:
		return DirectionRise
	}
}

// EscalationOf reports whether t is the critical escalation of prev:
// same direction, prev at the warning tier and t at the critical tier.
func (t AlertType) EscalationOf(prev AlertType) bool {
	if t.Severity() != SeverityCritical || prev.Severity() != SeverityWarning {
		return false
	}
	return t.Direction() == prev.Direction()
}

// ParseAlertType restores an AlertType from its persisted tag.
func ParseAlertType(tag string) (AlertType, bool) {
	switch AlertType(tag) {
	case AlertDropWarning, AlertDropCritical, AlertRiseWarning, AlertRiseCritical:
		return AlertType(tag), true
	}
	return "", false
}

// BondPrice is one bond position priced as percent of nominal.
type BondPrice struct {
	FIGI         string
	Ticker       string
	Name         string
	PricePercent decimal.Decimal
	AccountName  string
}

// Anomaly is a classified price move produced by Detect.
type Anomaly struct {
	FIGI          string
	Ticker        string
	Name          string
	OldPrice      decimal.Decimal
	NewPrice      decimal.Decimal
	ChangePercent decimal.Decimal
	Type          AlertType
	AccountName   string
}

// Thresholds carry the per-user anomaly thresholds, all positive percentages.
type Thresholds struct {
	DropWarning  decimal.Decimal
	DropCritical decimal.Decimal
	RiseWarning  decimal.Decimal
	RiseCritical decimal.Decimal
}

// Validate rejects thresholds outside (0, 100] and warning tiers configured
// above their critical counterpart, which would make the warning tier
// unreachable given critical-first classification.
func (t Thresholds) Validate() error {
	for _, v := range []decimal.Decimal{t.DropWarning, t.DropCritical, t.RiseWarning, t.RiseCritical} {
		if v.Sign() <= 0 || v.GreaterThan(dec100) {
			return ErrThresholdRange
		}
	}
	if t.DropWarning.GreaterThan(t.DropCritical) || t.RiseWarning.GreaterThan(t.RiseCritical) {
		return ErrThresholdOrder
	}
	return nil
}

// DefaultThresholds returns the thresholds applied to newly created settings.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DropWarning:  decimal.NewFromFloat(2.0),
		DropCritical: decimal.NewFromFloat(5.0),
		RiseWarning:  decimal.NewFromFloat(3.0),
		RiseCritical: decimal.NewFromFloat(7.0),
	}
}
