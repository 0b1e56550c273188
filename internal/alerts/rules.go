package alerts

import (
	"fmt"

	"PulseWatch/internal/domain/models"
)

// validateRule rejects malformed rules at registration time. The supported
// condition fields are fixed: a price_change_pct range, a volatility
// minimum, and a required-patterns list.
func validateRule(r models.AlertRule) error {
	if r.RuleID == "" {
		return fmt.Errorf("rule_id is required")
	}
	if r.Instrument == "" {
		return fmt.Errorf("rule %q: instrument filter is required (use \"*\" for all)", r.RuleID)
	}
	if !models.IsValidSeverity(r.Severity) {
		return fmt.Errorf("rule %q: invalid severity %q", r.RuleID, r.Severity)
	}
	if r.Condition.Empty() {
		return fmt.Errorf("rule %q: condition must specify at least one constraint", r.RuleID)
	}
	if rng := r.Condition.PriceChangePct; rng != nil && rng[0] > rng[1] {
		return fmt.Errorf("rule %q: price_change_pct range min %.2f exceeds max %.2f", r.RuleID, rng[0], rng[1])
	}
	for _, p := range r.Condition.Patterns {
		if !models.IsValidPatternType(p) {
			return fmt.Errorf("rule %q: unknown pattern type %q", r.RuleID, p)
		}
	}
	return nil
}

// conditionHolds reports whether every specified constraint is satisfied.
// A partial match is not a match.
func conditionHolds(c models.RuleCondition, stats models.StatsSnapshot, patterns []models.PatternSignal) bool {
	if rng := c.PriceChangePct; rng != nil {
		if stats.PriceChangePct < rng[0] || stats.PriceChangePct > rng[1] {
			return false
		}
	}
	if c.VolatilityMin != nil && stats.Volatility < *c.VolatilityMin {
		return false
	}
	if len(c.Patterns) > 0 {
		found := false
		for _, want := range c.Patterns {
			for _, p := range patterns {
				if p.PatternType == want {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
