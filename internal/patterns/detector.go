package patterns

import (
	"time"

	"PulseWatch/internal/domain/models"
	"PulseWatch/internal/stream"
)

// Config carries the detector thresholds. Zero values are replaced by the
// defaults below; the defaults are fixed policy constants.
type Config struct {
	MinSamples int // minimum snapshot length before any detector runs

	// support/resistance
	PeakSeparation   int     // minimum samples between accepted extrema
	PeakProminence   float64 // fraction of price std-dev an extremum must clear its neighbors by
	ClusterTolerance float64 // cluster width as a fraction of price std-dev
	LevelMemberFrac  float64 // cluster member share required to qualify as a level
	LevelConfidence  float64 // minimum confidence to emit a level signal

	// breakout
	ContractionRatio   float64 // recent/prior volatility ratio treated as contraction
	VolumeSurgeRatio   float64 // recent/prior volume ratio confirming a breakout
	BreakoutConfidence float64

	// reversal candles
	ShadowBodyRatio    float64 // dominant shadow must exceed this multiple of the body
	OppositeShadowFrac float64 // opposite shadow must stay under this fraction of the body
	ReversalConfidence float64

	// volume spike
	SpikeRatio      float64 // latest volume vs trailing mean
	SpikeConfidence float64

	// volatility expansion
	ExpansionRatio      float64 // recent vs prior volatility
	ExpansionConfidence float64
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MinSamples:          20,
		PeakSeparation:      5,
		PeakProminence:      0.5,
		ClusterTolerance:    0.1,
		LevelMemberFrac:     0.3,
		LevelConfidence:     0.7,
		ContractionRatio:    0.7,
		VolumeSurgeRatio:    1.5,
		BreakoutConfidence:  0.8,
		ShadowBodyRatio:     2.0,
		OppositeShadowFrac:  0.5,
		ReversalConfidence:  0.8,
		SpikeRatio:          3.0,
		SpikeConfidence:     0.9,
		ExpansionRatio:      2.0,
		ExpansionConfidence: 0.8,
	}
}

// Detector runs five independent pattern detectors over one buffer snapshot.
// Stateless; safe for concurrent use.
type Detector struct {
	cfg Config
}

// New creates a Detector, filling zero config fields with defaults.
func New(cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.MinSamples <= 0 {
		cfg = def
	}
	return &Detector{cfg: cfg}
}

// Detect returns zero or more pattern signals for the snapshot. Fewer than
// MinSamples samples yields no signals; that is not an error.
func (d *Detector) Detect(samples []models.Sample, stats models.StatsSnapshot) []models.PatternSignal {
	if len(samples) < d.cfg.MinSamples {
		return nil
	}

	prices := make([]float64, len(samples))
	volumes := make([]float64, len(samples))
	for i, s := range samples {
		prices[i] = s.Price
		volumes[i] = s.Volume
	}
	ts := samples[len(samples)-1].Timestamp

	var out []models.PatternSignal
	out = append(out, d.detectSupportResistance(prices, ts)...)
	if sig := d.detectBreakout(prices, volumes, ts); sig != nil {
		out = append(out, *sig)
	}
	if sig := d.detectReversal(prices, ts); sig != nil {
		out = append(out, *sig)
	}
	if sig := d.detectVolumeSpike(prices, volumes, ts); sig != nil {
		out = append(out, *sig)
	}
	if sig := d.detectVolatilityExpansion(prices, ts); sig != nil {
		out = append(out, *sig)
	}
	return out
}

// detectSupportResistance clusters local maxima into resistance levels and
// local minima into support levels. Confidence is the cluster's share of the
// extrema found on its side.
func (d *Detector) detectSupportResistance(prices []float64, ts time.Time) []models.PatternSignal {
	std := stream.StdDev(prices)
	if std == 0 {
		return nil
	}
	prominence := std * d.cfg.PeakProminence
	tolerance := std * d.cfg.ClusterTolerance

	peaks := findExtrema(prices, prominence, d.cfg.PeakSeparation, false)
	valleys := findExtrema(prices, prominence, d.cfg.PeakSeparation, true)

	var out []models.PatternSignal
	for _, lvl := range clusterLevels(indexPrices(prices, peaks), tolerance, d.cfg.LevelMemberFrac) {
		if lvl.confidence <= d.cfg.LevelConfidence {
			continue
		}
		out = append(out, models.PatternSignal{
			PatternType: models.PatternResistanceLevel,
			Confidence:  lvl.confidence,
			Direction:   models.Bearish,
			Strength:    lvl.confidence,
			Timestamp:   ts,
			Metadata:    map[string]interface{}{"level": lvl.price, "type": "resistance", "members": lvl.members},
		})
	}
	for _, lvl := range clusterLevels(indexPrices(prices, valleys), tolerance, d.cfg.LevelMemberFrac) {
		if lvl.confidence <= d.cfg.LevelConfidence {
			continue
		}
		out = append(out, models.PatternSignal{
			PatternType: models.PatternSupportLevel,
			Confidence:  lvl.confidence,
			Direction:   models.Bullish,
			Strength:    lvl.confidence,
			Timestamp:   ts,
			Metadata:    map[string]interface{}{"level": lvl.price, "type": "support", "members": lvl.members},
		})
	}
	return out
}

// detectBreakout looks for a volatility contraction over the most recent 10
// samples against the prior 20, confirmed by a volume surge.
func (d *Detector) detectBreakout(prices, volumes []float64, ts time.Time) *models.PatternSignal {
	n := len(prices)
	if n < 30 {
		return nil
	}
	recentVol := stream.StdDev(prices[n-10:])
	priorVol := stream.StdDev(prices[n-30 : n-10])
	if priorVol == 0 || recentVol >= priorVol*d.cfg.ContractionRatio {
		return nil
	}

	recentVolume := meanOf(volumes[n-5:])
	priorVolume := meanOf(volumes[n-15 : n-5])
	if priorVolume == 0 || recentVolume <= priorVolume*d.cfg.VolumeSurgeRatio {
		return nil
	}

	change := prices[n-1] - prices[n-10]
	// a flat delta counts as bearish, bullish only on a strict rise
	dir := models.Bearish
	if change > 0 {
		dir = models.Bullish
	}
	strength := 0.0
	if prices[n-10] != 0 {
		strength = abs(change) / prices[n-10]
	}
	return &models.PatternSignal{
		PatternType: models.PatternBreakout,
		Confidence:  d.cfg.BreakoutConfidence,
		Direction:   dir,
		Strength:    strength,
		Timestamp:   ts,
		Metadata: map[string]interface{}{
			"volatility_contraction": recentVol / priorVol,
			"volume_surge":           recentVolume / priorVolume,
			"price_change":           change,
		},
	}
}

// detectReversal checks the last 5 samples for a hammer or shooting-star
// shape, treating the first as open and the last as close.
func (d *Detector) detectReversal(prices []float64, ts time.Time) *models.PatternSignal {
	n := len(prices)
	if n < 5 {
		return nil
	}
	window := prices[n-5:]

	openP, closeP := window[0], window[len(window)-1]
	high, low := window[0], window[0]
	for _, p := range window {
		if p > high {
			high = p
		}
		if p < low {
			low = p
		}
	}
	body := abs(closeP - openP)
	if body == 0 {
		return nil
	}
	lowerShadow := minOf(openP, closeP) - low
	upperShadow := high - maxOf(openP, closeP)

	meta := map[string]interface{}{
		"body_size":    body,
		"lower_shadow": lowerShadow,
		"upper_shadow": upperShadow,
	}
	if lowerShadow > body*d.cfg.ShadowBodyRatio && upperShadow < body*d.cfg.OppositeShadowFrac {
		return &models.PatternSignal{
			PatternType: models.PatternHammer,
			Confidence:  d.cfg.ReversalConfidence,
			Direction:   models.Bullish,
			Strength:    lowerShadow / body,
			Timestamp:   ts,
			Metadata:    meta,
		}
	}
	if upperShadow > body*d.cfg.ShadowBodyRatio && lowerShadow < body*d.cfg.OppositeShadowFrac {
		return &models.PatternSignal{
			PatternType: models.PatternShootingStar,
			Confidence:  d.cfg.ReversalConfidence,
			Direction:   models.Bearish,
			Strength:    upperShadow / body,
			Timestamp:   ts,
			Metadata:    meta,
		}
	}
	return nil
}

// detectVolumeSpike fires when the latest volume exceeds SpikeRatio times the
// trailing-20 mean. The boundary is exclusive: exactly SpikeRatio does not fire.
func (d *Detector) detectVolumeSpike(prices, volumes []float64, ts time.Time) *models.PatternSignal {
	n := len(volumes)
	if n < 20 {
		return nil
	}
	latest := volumes[n-1]
	avg := meanOf(volumes[n-20:])
	if avg == 0 || latest <= avg*d.cfg.SpikeRatio {
		return nil
	}

	change := 0.0
	if len(prices) > 1 {
		change = prices[len(prices)-1] - prices[len(prices)-2]
	}
	dir := models.Bearish
	if change > 0 {
		dir = models.Bullish
	}
	return &models.PatternSignal{
		PatternType: models.PatternVolumeSpike,
		Confidence:  d.cfg.SpikeConfidence,
		Direction:   dir,
		Strength:    latest / avg,
		Timestamp:   ts,
		Metadata: map[string]interface{}{
			"volume_ratio": latest / avg,
			"price_change": change,
		},
	}
}

// detectVolatilityExpansion fires when recent volatility exceeds
// ExpansionRatio times the prior window's.
func (d *Detector) detectVolatilityExpansion(prices []float64, ts time.Time) *models.PatternSignal {
	n := len(prices)
	if n < 30 {
		return nil
	}
	recent := stream.StdDev(prices[n-10:])
	prior := stream.StdDev(prices[n-30 : n-10])
	if prior == 0 || recent <= prior*d.cfg.ExpansionRatio {
		return nil
	}
	return &models.PatternSignal{
		PatternType: models.PatternVolatilityExp,
		Confidence:  d.cfg.ExpansionConfidence,
		Direction:   models.Neutral,
		Strength:    recent / prior,
		Timestamp:   ts,
		Metadata: map[string]interface{}{
			"volatility_ratio":   recent / prior,
			"current_volatility": recent,
		},
	}
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func minOf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxOf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
