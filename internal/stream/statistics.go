package stream

import (
	"math"

	"PulseWatch/internal/domain/models"
)

// Thresholds for trend classification. Fixed policy values; exposed here so
// tests and docs reference one place.
const (
	trendMinSamples = 10
	volumeRatioHigh = 1.2
	volumeRatioLow  = 0.8
	trendSlopeUp    = 0.01
	trendSlopeDown  = -0.01
)

// ComputeStats derives rolling statistics from a buffer snapshot. It is a
// pure function of its input: fewer than two samples yields a neutral
// snapshot, never an error.
func ComputeStats(samples []models.Sample) models.StatsSnapshot {
	n := len(samples)
	if n == 0 {
		return models.StatsSnapshot{VolumeTrend: models.VolumeNeutral, PriceTrend: models.TrendNeutral}
	}

	prices := make([]float64, n)
	volumes := make([]float64, n)
	for i, s := range samples {
		prices[i] = s.Price
		volumes[i] = s.Volume
	}

	st := models.StatsSnapshot{
		CurrentPrice: prices[n-1],
		VolumeAvg:    mean(volumes),
		VolumeTrend:  models.VolumeNeutral,
		PriceTrend:   models.TrendNeutral,
		SampleCount:  n,
	}
	if n < 2 {
		return st
	}

	st.PriceChange = prices[n-1] - prices[0]
	if prices[0] != 0 {
		st.PriceChangePct = st.PriceChange / prices[0] * 100
	}
	st.Volatility = StdDev(prices)
	st.TimeSpan = samples[n-1].Timestamp.Sub(samples[0].Timestamp).Seconds()
	st.VolumeTrend = volumeTrend(volumes)
	st.PriceTrend = priceTrend(prices)
	return st
}

// volumeTrend compares the mean of the most recent 5 volumes to the mean of
// the preceding 5.
func volumeTrend(volumes []float64) models.VolumeTrend {
	if len(volumes) < trendMinSamples {
		return models.VolumeNeutral
	}
	recent := mean(volumes[len(volumes)-5:])
	earlier := mean(volumes[len(volumes)-10 : len(volumes)-5])
	switch {
	case recent > earlier*volumeRatioHigh:
		return models.VolumeIncreasing
	case recent < earlier*volumeRatioLow:
		return models.VolumeDecreasing
	default:
		return models.VolumeStable
	}
}

// priceTrend fits a least-squares slope over the snapshot prices.
func priceTrend(prices []float64) models.PriceTrend {
	if len(prices) < trendMinSamples {
		return models.TrendNeutral
	}
	slope := Slope(prices)
	switch {
	case slope > trendSlopeUp:
		return models.TrendUp
	case slope < trendSlopeDown:
		return models.TrendDown
	default:
		return models.TrendSideways
	}
}

// Slope returns the least-squares linear slope of ys over x = 0..n-1.
func Slope(ys []float64) float64 {
	n := float64(len(ys))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// StdDev returns the population standard deviation of xs.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sum2 float64
	for _, x := range xs {
		d := x - m
		sum2 += d * d
	}
	return math.Sqrt(sum2 / float64(len(xs)))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
