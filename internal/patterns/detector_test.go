package patterns

import (
	"testing"
	"time"

	"PulseWatch/internal/domain/models"
	"PulseWatch/internal/stream"
)

func mkSamples(prices, volumes []float64) []models.Sample {
	out := make([]models.Sample, len(prices))
	base := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	for i := range prices {
		v := 100.0
		if volumes != nil {
			v = volumes[i]
		}
		out[i] = models.Sample{
			InstrumentID: "TEST",
			Timestamp:    base.Add(time.Duration(i) * time.Second),
			Price:        prices[i],
			Volume:       v,
		}
	}
	return out
}

func findSignal(signals []models.PatternSignal, pt models.PatternType) *models.PatternSignal {
	for i := range signals {
		if signals[i].PatternType == pt {
			return &signals[i]
		}
	}
	return nil
}

func TestDetectTooFewSamples(t *testing.T) {
	d := New(DefaultConfig())
	samples := mkSamples(make([]float64, 10), nil)
	stats := stream.ComputeStats(samples)
	if got := d.Detect(samples, stats); got != nil {
		t.Fatalf("expected no signals under MinSamples, got %d", len(got))
	}
}

func TestDetectVolumeSpike(t *testing.T) {
	d := New(DefaultConfig())
	prices := make([]float64, 20)
	volumes := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 + 0.1*float64(i%3) // avoid zero std without moving price
		volumes[i] = 100
	}
	volumes[19] = 400 // trailing-20 mean is 115, threshold 345

	samples := mkSamples(prices, volumes)
	signals := d.Detect(samples, stream.ComputeStats(samples))
	sig := findSignal(signals, models.PatternVolumeSpike)
	if sig == nil {
		t.Fatalf("expected volume spike, got %v", signals)
	}
	if sig.Confidence != 0.9 {
		t.Fatalf("expected confidence 0.9, got %v", sig.Confidence)
	}
}

func TestDetectVolumeSpikeFlatPriceIsBearish(t *testing.T) {
	d := New(DefaultConfig())
	prices := make([]float64, 20)
	volumes := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 + 0.1*float64(i%3)
		volumes[i] = 100
	}
	prices[19] = prices[18] // zero price delta on the spike sample
	volumes[19] = 400

	samples := mkSamples(prices, volumes)
	signals := d.Detect(samples, stream.ComputeStats(samples))
	sig := findSignal(signals, models.PatternVolumeSpike)
	if sig == nil {
		t.Fatalf("expected volume spike, got %v", signals)
	}
	if sig.Direction != models.Bearish {
		t.Fatalf("expected bearish on flat delta, got %s", sig.Direction)
	}
}

func TestDetectVolumeSpikeBelowThreshold(t *testing.T) {
	d := New(DefaultConfig())
	prices := make([]float64, 20)
	volumes := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 + 0.1*float64(i%3)
		volumes[i] = 100
	}
	volumes[19] = 300 // trailing-20 mean is 110, threshold 330

	samples := mkSamples(prices, volumes)
	signals := d.Detect(samples, stream.ComputeStats(samples))
	if sig := findSignal(signals, models.PatternVolumeSpike); sig != nil {
		t.Fatalf("expected no spike at sub-threshold volume, got %+v", sig)
	}
}

func TestDetectBreakout(t *testing.T) {
	d := New(DefaultConfig())
	prices := make([]float64, 30)
	volumes := make([]float64, 30)
	for i := 0; i < 20; i++ {
		// choppy prior window, std around 3
		prices[i] = 97
		if i%2 == 1 {
			prices[i] = 103
		}
		volumes[i] = 100
	}
	for i := 20; i < 30; i++ {
		// tight recent window drifting up
		prices[i] = 100 + 0.01*float64(i-20)
		volumes[i] = 100
	}
	for i := 25; i < 30; i++ {
		volumes[i] = 250 // recent-5 volume surge over prior-10
	}

	samples := mkSamples(prices, volumes)
	signals := d.Detect(samples, stream.ComputeStats(samples))
	sig := findSignal(signals, models.PatternBreakout)
	if sig == nil {
		t.Fatalf("expected breakout, got %v", signals)
	}
	if sig.Confidence != 0.8 {
		t.Fatalf("expected confidence 0.8, got %v", sig.Confidence)
	}
	if sig.Direction != models.Bullish {
		t.Fatalf("expected bullish direction, got %s", sig.Direction)
	}
}

func TestDetectBreakoutFlatDeltaIsBearish(t *testing.T) {
	d := New(DefaultConfig())
	prices := make([]float64, 30)
	volumes := make([]float64, 30)
	for i := 0; i < 20; i++ {
		prices[i] = 97
		if i%2 == 1 {
			prices[i] = 103
		}
		volumes[i] = 100
	}
	for i := 20; i < 30; i++ {
		// recent window pinned flat: contraction with zero price delta
		prices[i] = 100
		volumes[i] = 100
	}
	for i := 25; i < 30; i++ {
		volumes[i] = 250
	}

	samples := mkSamples(prices, volumes)
	signals := d.Detect(samples, stream.ComputeStats(samples))
	sig := findSignal(signals, models.PatternBreakout)
	if sig == nil {
		t.Fatalf("expected breakout, got %v", signals)
	}
	if sig.Direction != models.Bearish {
		t.Fatalf("expected bearish on flat delta, got %s", sig.Direction)
	}
}

func TestDetectBreakoutNeedsVolumeConfirmation(t *testing.T) {
	d := New(DefaultConfig())
	prices := make([]float64, 30)
	for i := 0; i < 20; i++ {
		prices[i] = 97
		if i%2 == 1 {
			prices[i] = 103
		}
	}
	for i := 20; i < 30; i++ {
		prices[i] = 100 + 0.01*float64(i-20)
	}
	// flat volume everywhere: contraction present, no surge
	samples := mkSamples(prices, nil)
	signals := d.Detect(samples, stream.ComputeStats(samples))
	if sig := findSignal(signals, models.PatternBreakout); sig != nil {
		t.Fatalf("expected no breakout without volume surge, got %+v", sig)
	}
}

func TestDetectVolatilityExpansion(t *testing.T) {
	d := New(DefaultConfig())
	prices := make([]float64, 30)
	for i := 0; i < 20; i++ {
		// quiet prior window
		prices[i] = 100
		if i%2 == 1 {
			prices[i] = 100.2
		}
	}
	for i := 20; i < 30; i++ {
		// recent window swinging hard
		prices[i] = 98
		if i%2 == 1 {
			prices[i] = 102
		}
	}

	samples := mkSamples(prices, nil)
	signals := d.Detect(samples, stream.ComputeStats(samples))
	sig := findSignal(signals, models.PatternVolatilityExp)
	if sig == nil {
		t.Fatalf("expected volatility expansion, got %v", signals)
	}
	if sig.Direction != models.Neutral {
		t.Fatalf("expected neutral direction, got %s", sig.Direction)
	}
	if sig.Confidence != 0.8 {
		t.Fatalf("expected confidence 0.8, got %v", sig.Confidence)
	}
}

func TestDetectHammer(t *testing.T) {
	d := New(DefaultConfig())
	prices := make([]float64, 20)
	for i := 0; i < 15; i++ {
		prices[i] = 100 + 0.1*float64(i%2)
	}
	// last 5: open 100, deep dip, close 101 -> long lower shadow
	copy(prices[15:], []float64{100, 95, 96, 100.5, 101})

	samples := mkSamples(prices, nil)
	signals := d.Detect(samples, stream.ComputeStats(samples))
	sig := findSignal(signals, models.PatternHammer)
	if sig == nil {
		t.Fatalf("expected hammer, got %v", signals)
	}
	if sig.Direction != models.Bullish {
		t.Fatalf("expected bullish hammer, got %s", sig.Direction)
	}
}

func TestDetectShootingStar(t *testing.T) {
	d := New(DefaultConfig())
	prices := make([]float64, 20)
	for i := 0; i < 15; i++ {
		prices[i] = 100 + 0.1*float64(i%2)
	}
	// last 5: open 101, spike up, close 100 -> long upper shadow
	copy(prices[15:], []float64{101, 106, 105, 100.5, 100})

	samples := mkSamples(prices, nil)
	signals := d.Detect(samples, stream.ComputeStats(samples))
	sig := findSignal(signals, models.PatternShootingStar)
	if sig == nil {
		t.Fatalf("expected shooting star, got %v", signals)
	}
	if sig.Direction != models.Bearish {
		t.Fatalf("expected bearish, got %s", sig.Direction)
	}
}

func TestDetectReversalSkipsFlatBody(t *testing.T) {
	d := New(DefaultConfig())
	prices := make([]float64, 20)
	for i := 0; i < 15; i++ {
		prices[i] = 100 + 0.1*float64(i%2)
	}
	// open == close: no body, no reversal claim
	copy(prices[15:], []float64{100, 95, 96, 99, 100})

	samples := mkSamples(prices, nil)
	signals := d.Detect(samples, stream.ComputeStats(samples))
	if findSignal(signals, models.PatternHammer) != nil || findSignal(signals, models.PatternShootingStar) != nil {
		t.Fatalf("expected no reversal for zero body, got %v", signals)
	}
}

func TestDetectSupportResistance(t *testing.T) {
	d := New(DefaultConfig())
	// repeated peaks near 110 and valleys near 90
	prices := make([]float64, 0, 36)
	for i := 0; i < 6; i++ {
		prices = append(prices, 100, 110, 100, 90, 100, 100)
	}

	samples := mkSamples(prices, nil)
	signals := d.Detect(samples, stream.ComputeStats(samples))
	res := findSignal(signals, models.PatternResistanceLevel)
	sup := findSignal(signals, models.PatternSupportLevel)
	if res == nil {
		t.Fatalf("expected resistance level, got %v", signals)
	}
	if sup == nil {
		t.Fatalf("expected support level, got %v", signals)
	}
	if res.Direction != models.Bearish || sup.Direction != models.Bullish {
		t.Fatalf("unexpected directions: %s/%s", res.Direction, sup.Direction)
	}
	if res.Confidence <= 0.7 || sup.Confidence <= 0.7 {
		t.Fatalf("expected confident levels, got %v/%v", res.Confidence, sup.Confidence)
	}
}
