package stream

import (
	"math"
	"testing"
	"time"

	"PulseWatch/internal/domain/models"
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

func TestComputeStatsEmpty(t *testing.T) {
	st := ComputeStats(nil)
	if st.VolumeTrend != models.VolumeNeutral || st.PriceTrend != models.TrendNeutral {
		t.Fatalf("expected neutral trends, got %s/%s", st.VolumeTrend, st.PriceTrend)
	}
	if st.SampleCount != 0 || st.CurrentPrice != 0 {
		t.Fatalf("expected zero snapshot, got %+v", st)
	}
}

func TestComputeStatsSingleSample(t *testing.T) {
	st := ComputeStats(mkSamples([]float64{100}, nil))
	if st.CurrentPrice != 100 {
		t.Fatalf("expected current price 100, got %v", st.CurrentPrice)
	}
	if st.PriceChange != 0 || st.PriceChangePct != 0 || st.Volatility != 0 {
		t.Fatalf("expected neutral stats for one sample, got %+v", st)
	}
	if st.VolumeTrend != models.VolumeNeutral || st.PriceTrend != models.TrendNeutral {
		t.Fatalf("expected neutral trends, got %s/%s", st.VolumeTrend, st.PriceTrend)
	}
}

func TestComputeStatsPriceChangePct(t *testing.T) {
	st := ComputeStats(mkSamples([]float64{100, 105, 110}, nil))
	if st.PriceChange != 10 {
		t.Fatalf("expected change 10, got %v", st.PriceChange)
	}
	if math.Abs(st.PriceChangePct-10) > 1e-9 {
		t.Fatalf("expected 10%%, got %v", st.PriceChangePct)
	}
	if st.TimeSpan != 2 {
		t.Fatalf("expected 2s span, got %v", st.TimeSpan)
	}
}

func TestComputeStatsVolatility(t *testing.T) {
	// population std of {99, 101} alternating is 1
	prices := make([]float64, 10)
	for i := range prices {
		prices[i] = 99
		if i%2 == 1 {
			prices[i] = 101
		}
	}
	st := ComputeStats(mkSamples(prices, nil))
	if math.Abs(st.Volatility-1) > 1e-9 {
		t.Fatalf("expected volatility 1, got %v", st.Volatility)
	}
}

func TestVolumeTrendClassification(t *testing.T) {
	cases := []struct {
		name    string
		volumes []float64
		want    models.VolumeTrend
	}{
		{"increasing", []float64{100, 100, 100, 100, 100, 150, 150, 150, 150, 150}, models.VolumeIncreasing},
		{"decreasing", []float64{100, 100, 100, 100, 100, 70, 70, 70, 70, 70}, models.VolumeDecreasing},
		{"stable", []float64{100, 100, 100, 100, 100, 105, 105, 105, 105, 105}, models.VolumeStable},
		{"too_few", []float64{100, 200, 300}, models.VolumeNeutral},
	}
	for _, tc := range cases {
		prices := make([]float64, len(tc.volumes))
		for i := range prices {
			prices[i] = 100
		}
		st := ComputeStats(mkSamples(prices, tc.volumes))
		if st.VolumeTrend != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, st.VolumeTrend)
		}
	}
}

func TestPriceTrendClassification(t *testing.T) {
	up := make([]float64, 12)
	down := make([]float64, 12)
	flat := make([]float64, 12)
	for i := range up {
		up[i] = 100 + float64(i)
		down[i] = 100 - float64(i)
		flat[i] = 100
	}

	if st := ComputeStats(mkSamples(up, nil)); st.PriceTrend != models.TrendUp {
		t.Fatalf("expected uptrend, got %s", st.PriceTrend)
	}
	if st := ComputeStats(mkSamples(down, nil)); st.PriceTrend != models.TrendDown {
		t.Fatalf("expected downtrend, got %s", st.PriceTrend)
	}
	if st := ComputeStats(mkSamples(flat, nil)); st.PriceTrend != models.TrendSideways {
		t.Fatalf("expected sideways, got %s", st.PriceTrend)
	}
	if st := ComputeStats(mkSamples(up[:5], nil)); st.PriceTrend != models.TrendNeutral {
		t.Fatalf("expected neutral under 10 samples, got %s", st.PriceTrend)
	}
}

func TestSlope(t *testing.T) {
	if got := Slope([]float64{0, 1, 2, 3}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("expected slope 1, got %v", got)
	}
	if got := Slope([]float64{5}); got != 0 {
		t.Fatalf("expected 0 for single point, got %v", got)
	}
}
