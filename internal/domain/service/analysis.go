package service

import (
	"PulseWatch/internal/domain/models"
)

// PatternDetector turns one buffer snapshot plus its statistics into zero or
// more pattern signals.
type PatternDetector interface {
	Detect(samples []models.Sample, stats models.StatsSnapshot) []models.PatternSignal
}

// AlertEngine evaluates built-in heuristics and user rules against one pass's
// signals and statistics, and owns the rolling alert history.
type AlertEngine interface {
	Generate(instrumentID string, patterns []models.PatternSignal, stats models.StatsSnapshot) []models.AlertSignal
	RegisterRule(rule models.AlertRule) error
	UnregisterRule(ruleID string) bool
	History(severity models.Severity, limit int) []models.AlertSignal
	HistoryLen() int
}
