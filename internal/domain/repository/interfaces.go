package repository

import (
	"context"
	"errors"

	"PulseWatch/internal/domain/models"
)

// ErrUnavailable is returned by a SampleSource when no fresh reading can be
// produced for an instrument this tick. The caller skips the instrument and
// retries next tick.
var ErrUnavailable = errors.New("sample unavailable")

// SampleSource supplies one current price/volume reading per instrument on
// request. Implementations must respect ctx deadlines and never block
// indefinitely.
type SampleSource interface {
	Fetch(ctx context.Context, instrumentID string) (*models.Sample, error)
}

// AlertSink delivers generated alerts to an external system (broker, store).
type AlertSink interface {
	Name() string
	Publish(ctx context.Context, alerts []models.AlertSignal) error
	Close() error
}

// ResultMirror republishes the latest AnalysisResult per instrument to a
// shared cache for out-of-process readers. Best effort; failures must not
// affect the analysis loop.
type ResultMirror interface {
	Store(ctx context.Context, res *models.AnalysisResult) error
	Remove(ctx context.Context, instrumentID string) error
}

// Metrics records operational measurements for the engine.
type Metrics interface {
	RecordPass(instrumentID string)
	RecordError(kind string)
	RecordLastPrice(instrumentID string, price float64)
	RecordLatency(op string, seconds float64)
	RecordSignal(pattern string)
	RecordAlert(severity string)
	SetActiveInstruments(n int)
}
