package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	passesTotal       *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
	lastPrice         *prometheus.GaugeVec
	latency           *prometheus.HistogramVec
	signalsTotal      *prometheus.CounterVec
	alertsTotal       *prometheus.CounterVec
	activeInstruments prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		passesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsewatch_analysis_passes_total",
				Help: "Total number of completed analysis passes",
			},
			[]string{"instrument"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsewatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pulsewatch_last_price",
				Help: "Last recorded price for an instrument",
			},
			[]string{"instrument"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pulsewatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsewatch_pattern_signals_total",
				Help: "Total pattern signals detected",
			},
			[]string{"pattern"},
		),
		alertsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsewatch_alerts_total",
				Help: "Total alerts generated",
			},
			[]string{"severity"},
		),
		activeInstruments: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pulsewatch_active_instruments",
				Help: "Number of instruments under analysis",
			},
		),
	}
}

// RecordPass records one completed analysis pass for an instrument.
func (r *Recorder) RecordPass(instrument string) {
	r.passesTotal.WithLabelValues(instrument).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for an instrument.
func (r *Recorder) RecordLastPrice(instrument string, price float64) {
	r.lastPrice.WithLabelValues(instrument).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordSignal records one detected pattern signal.
func (r *Recorder) RecordSignal(pattern string) {
	r.signalsTotal.WithLabelValues(pattern).Inc()
}

// RecordAlert records one generated alert.
func (r *Recorder) RecordAlert(severity string) {
	r.alertsTotal.WithLabelValues(severity).Inc()
}

// SetActiveInstruments records the size of the active instrument set.
func (r *Recorder) SetActiveInstruments(n int) {
	r.activeInstruments.Set(float64(n))
}
