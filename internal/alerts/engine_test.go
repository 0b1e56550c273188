package alerts

import (
	"testing"
	"time"

	"PulseWatch/internal/domain/models"
)

func signalOf(pt models.PatternType, confidence float64) models.PatternSignal {
	return models.PatternSignal{
		PatternType: pt,
		Confidence:  confidence,
		Direction:   models.Bullish,
		Strength:    1,
		Timestamp:   time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC),
	}
}

func TestPatternAlertSeverityMapping(t *testing.T) {
	cases := []struct {
		pattern models.PatternType
		want    models.Severity
		action  bool
	}{
		{models.PatternBreakout, models.SeverityHigh, true},
		{models.PatternVolumeSpike, models.SeverityMedium, false},
		{models.PatternVolatilityExp, models.SeverityMedium, false},
		{models.PatternHammer, models.SeverityMedium, false},
		{models.PatternShootingStar, models.SeverityMedium, false},
		{models.PatternSupportLevel, models.SeverityLow, false},
		{models.PatternResistanceLevel, models.SeverityLow, false},
	}
	for _, tc := range cases {
		e := NewEngine(10)
		got := e.Generate("AAPL", []models.PatternSignal{signalOf(tc.pattern, 0.9)}, models.StatsSnapshot{})
		if len(got) != 1 {
			t.Fatalf("%s: expected 1 alert, got %d", tc.pattern, len(got))
		}
		if got[0].Severity != tc.want {
			t.Fatalf("%s: expected severity %s, got %s", tc.pattern, tc.want, got[0].Severity)
		}
		if got[0].ActionRequired != tc.action {
			t.Fatalf("%s: expected action_required %v", tc.pattern, tc.action)
		}
	}
}

func TestPatternAlertConfidenceThreshold(t *testing.T) {
	e := NewEngine(10)
	// 0.7 exactly does not clear the threshold
	got := e.Generate("AAPL", []models.PatternSignal{signalOf(models.PatternBreakout, 0.7)}, models.StatsSnapshot{})
	if len(got) != 0 {
		t.Fatalf("expected no alert at confidence 0.7, got %d", len(got))
	}
}

func TestStatsAlerts(t *testing.T) {
	e := NewEngine(10)

	got := e.Generate("AAPL", nil, models.StatsSnapshot{PriceChangePct: 6})
	if len(got) != 1 || got[0].Severity != models.SeverityMedium || got[0].AlertType != "price_change" {
		t.Fatalf("expected medium price_change alert, got %+v", got)
	}

	got = e.Generate("AAPL", nil, models.StatsSnapshot{PriceChangePct: -12})
	if len(got) != 1 || got[0].Severity != models.SeverityHigh || !got[0].ActionRequired {
		t.Fatalf("expected high actionable alert for -12%%, got %+v", got)
	}

	got = e.Generate("AAPL", nil, models.StatsSnapshot{Volatility: 2.5})
	if len(got) != 1 || got[0].AlertType != "high_volatility" {
		t.Fatalf("expected high_volatility alert, got %+v", got)
	}
	if got[0].Severity != models.SeverityMedium || got[0].ActionRequired {
		t.Fatalf("volatility alert must be medium and not actionable, got %+v", got[0])
	}

	got = e.Generate("AAPL", nil, models.StatsSnapshot{PriceChangePct: 3, Volatility: 1})
	if len(got) != 0 {
		t.Fatalf("expected no alerts under thresholds, got %d", len(got))
	}
}

func TestHistoryFIFOCap(t *testing.T) {
	e := NewEngine(5)
	for i := 0; i < 8; i++ {
		e.Generate("AAPL", nil, models.StatsSnapshot{PriceChangePct: 6})
	}
	if e.HistoryLen() != 5 {
		t.Fatalf("expected history capped at 5, got %d", e.HistoryLen())
	}
	hist := e.History("", 0)
	// alert ids are sequential; the oldest three must be gone
	if hist[0].AlertID != "AAPL_price_change_4" {
		t.Fatalf("expected oldest surviving alert to be seq 4, got %s", hist[0].AlertID)
	}
	if hist[4].AlertID != "AAPL_price_change_8" {
		t.Fatalf("expected newest alert kept, got %s", hist[4].AlertID)
	}
}

func TestHistoryFilterAndLimit(t *testing.T) {
	e := NewEngine(100)
	e.Generate("AAPL", nil, models.StatsSnapshot{PriceChangePct: 6})   // medium
	e.Generate("AAPL", nil, models.StatsSnapshot{PriceChangePct: 12})  // high
	e.Generate("AAPL", nil, models.StatsSnapshot{PriceChangePct: -12}) // high

	if got := e.History(models.SeverityHigh, 0); len(got) != 2 {
		t.Fatalf("expected 2 high alerts, got %d", len(got))
	}
	if got := e.History("", 1); len(got) != 1 {
		t.Fatalf("expected limit 1, got %d", len(got))
	}
	got := e.History("", 1)
	if got[0].Severity != models.SeverityHigh {
		t.Fatalf("limit must keep the newest alert, got %+v", got[0])
	}
}

func TestRegisterRuleValidation(t *testing.T) {
	e := NewEngine(10)
	vol := 2.0
	valid := models.AlertRule{
		RuleID:     "r1",
		Instrument: "*",
		Severity:   models.SeverityMedium,
		Condition:  models.RuleCondition{VolatilityMin: &vol},
	}
	if err := e.RegisterRule(valid); err != nil {
		t.Fatalf("valid rule rejected: %v", err)
	}

	bad := []models.AlertRule{
		{Instrument: "*", Severity: models.SeverityLow, Condition: models.RuleCondition{VolatilityMin: &vol}},     // no id
		{RuleID: "r2", Severity: models.SeverityLow, Condition: models.RuleCondition{VolatilityMin: &vol}},        // no instrument
		{RuleID: "r3", Instrument: "*", Severity: "urgent", Condition: models.RuleCondition{VolatilityMin: &vol}}, // bad severity
		{RuleID: "r4", Instrument: "*", Severity: models.SeverityLow},                                             // empty condition
		{RuleID: "r5", Instrument: "*", Severity: models.SeverityLow,
			Condition: models.RuleCondition{PriceChangePct: &[2]float64{5, 1}}}, // inverted range
		{RuleID: "r6", Instrument: "*", Severity: models.SeverityLow,
			Condition: models.RuleCondition{Patterns: []models.PatternType{"head_and_shoulders"}}}, // unknown pattern
	}
	for i, r := range bad {
		if err := e.RegisterRule(r); err == nil {
			t.Fatalf("case %d: expected rejection for %+v", i, r)
		}
	}
	if e.RuleCount() != 1 {
		t.Fatalf("expected only the valid rule registered, got %d", e.RuleCount())
	}
}

func TestRuleMatching(t *testing.T) {
	e := NewEngine(10)
	rule := models.AlertRule{
		RuleID:     "swing",
		Instrument: "*",
		Severity:   models.SeverityCritical,
		Condition:  models.RuleCondition{PriceChangePct: &[2]float64{5, 10}},
		Message:    "swing range hit",
	}
	if err := e.RegisterRule(rule); err != nil {
		t.Fatalf("register: %v", err)
	}

	got := e.Generate("AAPL", nil, models.StatsSnapshot{PriceChangePct: 7})
	var ruleAlert *models.AlertSignal
	for i := range got {
		if got[i].AlertType == "rule:swing" {
			ruleAlert = &got[i]
		}
	}
	if ruleAlert == nil {
		t.Fatalf("expected rule alert, got %+v", got)
	}
	if ruleAlert.Severity != models.SeverityCritical || ruleAlert.Message != "swing range hit" {
		t.Fatalf("unexpected rule alert %+v", ruleAlert)
	}

	// outside the inclusive range
	got = e.Generate("AAPL", nil, models.StatsSnapshot{PriceChangePct: 4})
	for _, a := range got {
		if a.AlertType == "rule:swing" {
			t.Fatalf("rule must not fire at 4%%")
		}
	}
}

func TestRuleRequiresAllConstraints(t *testing.T) {
	e := NewEngine(10)
	vol := 2.0
	rule := models.AlertRule{
		RuleID:     "combo",
		Instrument: "AAPL",
		Severity:   models.SeverityHigh,
		Condition: models.RuleCondition{
			VolatilityMin: &vol,
			Patterns:      []models.PatternType{models.PatternBreakout},
		},
	}
	if err := e.RegisterRule(rule); err != nil {
		t.Fatalf("register: %v", err)
	}

	// volatility satisfied, pattern absent: partial match is not a match
	got := e.Generate("AAPL", nil, models.StatsSnapshot{Volatility: 2.5})
	for _, a := range got {
		if a.AlertType == "rule:combo" {
			t.Fatalf("rule fired on partial match")
		}
	}

	// both satisfied
	got = e.Generate("AAPL",
		[]models.PatternSignal{signalOf(models.PatternBreakout, 0.9)},
		models.StatsSnapshot{Volatility: 2.5})
	found := false
	for _, a := range got {
		if a.AlertType == "rule:combo" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected rule alert when all constraints hold, got %+v", got)
	}
}

func TestRuleInstrumentFilter(t *testing.T) {
	e := NewEngine(10)
	vol := 1.0
	rule := models.AlertRule{
		RuleID:     "only-msft",
		Instrument: "MSFT",
		Severity:   models.SeverityLow,
		Condition:  models.RuleCondition{VolatilityMin: &vol},
	}
	if err := e.RegisterRule(rule); err != nil {
		t.Fatalf("register: %v", err)
	}
	got := e.Generate("AAPL", nil, models.StatsSnapshot{Volatility: 1.5})
	for _, a := range got {
		if a.AlertType == "rule:only-msft" {
			t.Fatalf("rule for MSFT fired on AAPL")
		}
	}
}

func TestUnregisterRule(t *testing.T) {
	e := NewEngine(10)
	vol := 1.0
	_ = e.RegisterRule(models.AlertRule{
		RuleID:     "r",
		Instrument: "*",
		Severity:   models.SeverityLow,
		Condition:  models.RuleCondition{VolatilityMin: &vol},
	})
	if !e.UnregisterRule("r") {
		t.Fatalf("expected removal of known rule")
	}
	if e.UnregisterRule("r") {
		t.Fatalf("expected false for unknown rule")
	}
}
