package models

// Requests for the engine HTTP endpoints. Defined in domain for consistency and reuse.

type RuleRequest struct {
	RuleID         string        `json:"rule_id" validate:"required"`
	Instrument     string        `json:"instrument_filter" default:"*" validate:"required"`
	Condition      RuleCondition `json:"condition"`
	Severity       string        `json:"severity" default:"medium" validate:"oneof=low medium high critical"`
	Message        string        `json:"message_template"`
	ActionRequired bool          `json:"action_required"`
}

type AlertsRequest struct {
	Severity string `query:"severity" json:"severity" validate:"omitempty,oneof=low medium high critical"`
	Limit    int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type InstrumentRequest struct {
	InstrumentID string `json:"instrument_id" validate:"required"`
}
