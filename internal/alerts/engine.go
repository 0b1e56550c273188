package alerts

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"PulseWatch/internal/domain/models"
)

// DefaultHistoryCapacity bounds the rolling alert history.
const DefaultHistoryCapacity = 1000

// Severity thresholds for the built-in statistics heuristics.
const (
	priceChangeAlertPct  = 5.0
	priceChangeHighPct   = 10.0
	volatilityAlertMin   = 2.0
	patternMinConfidence = 0.7
)

// Engine evaluates pattern signals, statistics heuristics, and user rules,
// and retains a capped FIFO history of every alert it emits. Safe for
// concurrent use; rule registration may race with an in-progress evaluation
// and applies no later than the next pass.
type Engine struct {
	rulesMu sync.RWMutex
	rules   map[string]models.AlertRule

	histMu  sync.Mutex
	history []models.AlertSignal // FIFO, oldest first
	cap     int

	seq atomic.Uint64

	// now is swappable for tests
	now func() time.Time
}

// NewEngine creates an alert engine with the given history capacity
// (DefaultHistoryCapacity when <= 0).
func NewEngine(historyCap int) *Engine {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCapacity
	}
	return &Engine{
		rules:   make(map[string]models.AlertRule),
		history: make([]models.AlertSignal, 0, historyCap),
		cap:     historyCap,
		now:     time.Now,
	}
}

// Generate evaluates one pass for one instrument. Evaluation order is fixed:
// pattern alerts, then statistics alerts, then user rules. Every emitted
// alert is appended to the history before Generate returns.
func (e *Engine) Generate(instrumentID string, patterns []models.PatternSignal, stats models.StatsSnapshot) []models.AlertSignal {
	var out []models.AlertSignal

	for _, p := range patterns {
		if a := e.patternAlert(instrumentID, p); a != nil {
			out = append(out, *a)
		}
	}
	out = append(out, e.statsAlerts(instrumentID, stats)...)
	out = append(out, e.ruleAlerts(instrumentID, stats, patterns)...)

	if len(out) > 0 {
		e.appendHistory(out)
	}
	return out
}

// patternAlert maps a pattern signal to an alert when its confidence clears
// the emission threshold.
func (e *Engine) patternAlert(instrumentID string, p models.PatternSignal) *models.AlertSignal {
	if p.Confidence <= patternMinConfidence {
		return nil
	}
	sev := severityFor(p.PatternType)
	return &models.AlertSignal{
		AlertID:        e.nextID(instrumentID, string(p.PatternType)),
		InstrumentID:   instrumentID,
		AlertType:      string(p.PatternType),
		Severity:       sev,
		Message:        fmt.Sprintf("%s: %s detected (confidence: %.2f)", instrumentID, p.PatternType, p.Confidence),
		Timestamp:      p.Timestamp,
		Data:           p.Metadata,
		ActionRequired: sev == models.SeverityHigh || sev == models.SeverityCritical,
	}
}

// severityFor is the fixed pattern-to-severity mapping. The switch is
// exhaustive over the closed PatternType set.
func severityFor(p models.PatternType) models.Severity {
	switch p {
	case models.PatternBreakout:
		return models.SeverityHigh
	case models.PatternVolumeSpike, models.PatternVolatilityExp,
		models.PatternHammer, models.PatternShootingStar:
		return models.SeverityMedium
	case models.PatternSupportLevel, models.PatternResistanceLevel:
		return models.SeverityLow
	default:
		return models.SeverityLow
	}
}

func (e *Engine) statsAlerts(instrumentID string, stats models.StatsSnapshot) []models.AlertSignal {
	var out []models.AlertSignal
	now := e.now()

	if pct := stats.PriceChangePct; pct > priceChangeAlertPct || pct < -priceChangeAlertPct {
		sev := models.SeverityMedium
		if pct > priceChangeHighPct || pct < -priceChangeHighPct {
			sev = models.SeverityHigh
		}
		out = append(out, models.AlertSignal{
			AlertID:        e.nextID(instrumentID, "price_change"),
			InstrumentID:   instrumentID,
			AlertType:      "price_change",
			Severity:       sev,
			Message:        fmt.Sprintf("%s: significant price change (%.2f%%)", instrumentID, pct),
			Timestamp:      now,
			Data:           statsData(stats),
			ActionRequired: sev == models.SeverityHigh,
		})
	}

	if stats.Volatility > volatilityAlertMin {
		out = append(out, models.AlertSignal{
			AlertID:        e.nextID(instrumentID, "high_volatility"),
			InstrumentID:   instrumentID,
			AlertType:      "high_volatility",
			Severity:       models.SeverityMedium,
			Message:        fmt.Sprintf("%s: high volatility detected (%.2f)", instrumentID, stats.Volatility),
			Timestamp:      now,
			Data:           statsData(stats),
			ActionRequired: false,
		})
	}
	return out
}

func (e *Engine) ruleAlerts(instrumentID string, stats models.StatsSnapshot, patterns []models.PatternSignal) []models.AlertSignal {
	e.rulesMu.RLock()
	matched := make([]models.AlertRule, 0, len(e.rules))
	for _, r := range e.rules {
		if r.Instrument != instrumentID && r.Instrument != "*" {
			continue
		}
		if conditionHolds(r.Condition, stats, patterns) {
			matched = append(matched, r)
		}
	}
	e.rulesMu.RUnlock()

	out := make([]models.AlertSignal, 0, len(matched))
	now := e.now()
	for _, r := range matched {
		detected := make([]string, 0, len(patterns))
		for _, p := range patterns {
			detected = append(detected, string(p.PatternType))
		}
		msg := r.Message
		if msg == "" {
			msg = fmt.Sprintf("rule triggered: %s", r.RuleID)
		}
		out = append(out, models.AlertSignal{
			AlertID:        e.nextID(instrumentID, r.RuleID),
			InstrumentID:   instrumentID,
			AlertType:      "rule:" + r.RuleID,
			Severity:       r.Severity,
			Message:        msg,
			Timestamp:      now,
			Data: map[string]interface{}{
				"rule_id":  r.RuleID,
				"stats":    statsData(stats),
				"patterns": detected,
			},
			ActionRequired: r.ActionRequired,
		})
	}
	return out
}

// RegisterRule validates and stores a rule. Malformed rules are rejected
// with a descriptive error, never silently accepted. Re-registering an
// existing rule id replaces it.
func (e *Engine) RegisterRule(rule models.AlertRule) error {
	if err := validateRule(rule); err != nil {
		return err
	}
	e.rulesMu.Lock()
	e.rules[rule.RuleID] = rule
	e.rulesMu.Unlock()
	return nil
}

// UnregisterRule removes a rule; returns false when the id is unknown.
func (e *Engine) UnregisterRule(ruleID string) bool {
	e.rulesMu.Lock()
	defer e.rulesMu.Unlock()
	if _, ok := e.rules[ruleID]; !ok {
		return false
	}
	delete(e.rules, ruleID)
	return true
}

// RuleCount returns the number of registered rules.
func (e *Engine) RuleCount() int {
	e.rulesMu.RLock()
	defer e.rulesMu.RUnlock()
	return len(e.rules)
}

// History returns the retained alerts, newest last, optionally filtered by
// severity, capped at limit entries from the newest end (0 = all).
func (e *Engine) History(severity models.Severity, limit int) []models.AlertSignal {
	e.histMu.Lock()
	defer e.histMu.Unlock()

	out := make([]models.AlertSignal, 0, len(e.history))
	for _, a := range e.history {
		if severity != "" && a.Severity != severity {
			continue
		}
		out = append(out, a)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// HistoryLen returns the number of retained alerts.
func (e *Engine) HistoryLen() int {
	e.histMu.Lock()
	defer e.histMu.Unlock()
	return len(e.history)
}

// appendHistory appends alerts, evicting from the oldest end once capacity
// is exceeded. FIFO only; never drops the newest.
func (e *Engine) appendHistory(alerts []models.AlertSignal) {
	e.histMu.Lock()
	e.history = append(e.history, alerts...)
	if over := len(e.history) - e.cap; over > 0 {
		e.history = append(e.history[:0], e.history[over:]...)
	}
	e.histMu.Unlock()
}

func (e *Engine) nextID(instrumentID, kind string) string {
	return fmt.Sprintf("%s_%s_%d", instrumentID, kind, e.seq.Add(1))
}

func statsData(stats models.StatsSnapshot) map[string]interface{} {
	return map[string]interface{}{
		"current_price":    stats.CurrentPrice,
		"price_change":     stats.PriceChange,
		"price_change_pct": stats.PriceChangePct,
		"volatility":       stats.Volatility,
		"volume_avg":       stats.VolumeAvg,
		"volume_trend":     string(stats.VolumeTrend),
		"price_trend":      string(stats.PriceTrend),
		"sample_count":     stats.SampleCount,
		"time_span":        stats.TimeSpan,
	}
}
