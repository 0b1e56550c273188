package models

import "time"

// Severity is the ordinal urgency classification of an alert.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IsValidSeverity reports whether s names a known severity.
func IsValidSeverity(s Severity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// RuleCondition is the structured predicate of a user-registered rule.
// Every specified constraint must hold for the condition to match; an empty
// condition is invalid and rejected at registration.
type RuleCondition struct {
	// PriceChangePct, when set, is an inclusive [min, max] range on the
	// stats price_change_pct field.
	PriceChangePct *[2]float64 `json:"price_change_pct,omitempty"`
	// VolatilityMin, when set, requires stats volatility >= the threshold.
	VolatilityMin *float64 `json:"volatility_min,omitempty"`
	// Patterns, when set, requires at least one of the listed pattern types
	// among the current pass's signals.
	Patterns []PatternType `json:"patterns,omitempty"`
}

// Empty reports whether no constraint is specified.
func (c RuleCondition) Empty() bool {
	return c.PriceChangePct == nil && c.VolatilityMin == nil && len(c.Patterns) == 0
}

// AlertRule is a user-registered alerting rule. Instrument is a specific
// instrument id or "*" for all instruments.
type AlertRule struct {
	RuleID         string        `json:"rule_id"`
	Instrument     string        `json:"instrument_filter"`
	Condition      RuleCondition `json:"condition"`
	Severity       Severity      `json:"severity"`
	Message        string        `json:"message_template"`
	ActionRequired bool          `json:"action_required"`
}

// AlertSignal is one generated alert. Terminal once created; appended to a
// capped rolling history.
type AlertSignal struct {
	AlertID        string                 `json:"alert_id"`
	InstrumentID   string                 `json:"instrument_id"`
	AlertType      string                 `json:"alert_type"`
	Severity       Severity               `json:"severity"`
	Message        string                 `json:"message"`
	Timestamp      time.Time              `json:"timestamp"`
	Data           map[string]interface{} `json:"data,omitempty"`
	ActionRequired bool                   `json:"action_required"`
}

// AnalysisResult is the published outcome of one analysis pass for one
// instrument; replaced wholesale each pass.
type AnalysisResult struct {
	InstrumentID string          `json:"instrument_id"`
	Timestamp    time.Time       `json:"timestamp"`
	Stats        StatsSnapshot   `json:"stats"`
	Patterns     []PatternSignal `json:"patterns"`
	Alerts       []AlertSignal   `json:"alerts"`
	LatestSample Sample          `json:"latest_sample"`
}
