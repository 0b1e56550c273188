package models

import "time"

// Sample is a single market-data reading for one instrument.
// Immutable once created; owned by the history buffer after insertion.
type Sample struct {
	InstrumentID string    `json:"instrument_id"`
	Timestamp    time.Time `json:"timestamp"`
	Price        float64   `json:"price"`
	Volume       float64   `json:"volume"`
	Bid          float64   `json:"bid,omitempty"`
	Ask          float64   `json:"ask,omitempty"`
	High         float64   `json:"high,omitempty"`
	Low          float64   `json:"low,omitempty"`
	Open         float64   `json:"open,omitempty"`
}

// VolumeTrend classifies recent volume behaviour.
type VolumeTrend string

const (
	VolumeNeutral    VolumeTrend = "neutral" // insufficient history
	VolumeIncreasing VolumeTrend = "increasing"
	VolumeDecreasing VolumeTrend = "decreasing"
	VolumeStable     VolumeTrend = "stable"
)

// PriceTrend classifies the linear trend of recent prices.
type PriceTrend string

const (
	TrendNeutral  PriceTrend = "neutral" // insufficient history
	TrendUp       PriceTrend = "uptrend"
	TrendDown     PriceTrend = "downtrend"
	TrendSideways PriceTrend = "sideways"
)

// StatsSnapshot holds rolling statistics derived from one buffer snapshot.
// Recomputed fresh on every pass; never persisted.
type StatsSnapshot struct {
	CurrentPrice   float64     `json:"current_price"`
	PriceChange    float64     `json:"price_change"`
	PriceChangePct float64     `json:"price_change_pct"`
	Volatility     float64     `json:"volatility"`
	VolumeAvg      float64     `json:"volume_avg"`
	VolumeTrend    VolumeTrend `json:"volume_trend"`
	PriceTrend     PriceTrend  `json:"price_trend"`
	SampleCount    int         `json:"sample_count"`
	TimeSpan       float64     `json:"time_span"` // seconds
}
