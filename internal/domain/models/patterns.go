package models

import "time"

// PatternType is the closed set of chart patterns the detector can report.
type PatternType string

const (
	PatternSupportLevel    PatternType = "support_level"
	PatternResistanceLevel PatternType = "resistance_level"
	PatternBreakout        PatternType = "breakout"
	PatternHammer          PatternType = "hammer"
	PatternShootingStar    PatternType = "shooting_star"
	PatternVolumeSpike     PatternType = "volume_spike"
	PatternVolatilityExp   PatternType = "volatility_expansion"
)

// IsValidPatternType reports whether s names a known pattern.
func IsValidPatternType(s PatternType) bool {
	switch s {
	case PatternSupportLevel, PatternResistanceLevel, PatternBreakout,
		PatternHammer, PatternShootingStar, PatternVolumeSpike, PatternVolatilityExp:
		return true
	default:
		return false
	}
}

// Direction is the directional bias of a pattern signal.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

// PatternSignal is a detector's structured claim that a chart condition is
// present. Produced fresh each pass; not retained beyond the AnalysisResult
// that contains it.
type PatternSignal struct {
	PatternType PatternType            `json:"pattern_type"`
	Confidence  float64                `json:"confidence"`
	Direction   Direction              `json:"direction"`
	Strength    float64                `json:"strength"`
	Timestamp   time.Time              `json:"timestamp"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
