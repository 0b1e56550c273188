package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"PulseWatch/internal/alerts"
	"PulseWatch/internal/domain/models"
	drepo "PulseWatch/internal/domain/repository"
	"PulseWatch/internal/patterns"
	applogger "PulseWatch/pkg/logger"
)

// fakeSource replays a fixed price sequence per instrument, holding the last
// price once the sequence is exhausted.
type fakeSource struct {
	mu     sync.Mutex
	prices map[string][]float64
	idx    map[string]int
	errs   map[string]error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		prices: make(map[string][]float64),
		idx:    make(map[string]int),
		errs:   make(map[string]error),
	}
}

func (f *fakeSource) Fetch(_ context.Context, id string) (*models.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	seq := f.prices[id]
	if len(seq) == 0 {
		return nil, drepo.ErrUnavailable
	}
	i := f.idx[id]
	if i >= len(seq) {
		i = len(seq) - 1
	}
	f.idx[id] = i + 1
	return &models.Sample{
		InstrumentID: id,
		Timestamp:    time.Now(),
		Price:        seq[i],
		Volume:       100,
	}, nil
}

// fakeMetrics counts recorded errors by kind and ignores the rest.
type fakeMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{errors: make(map[string]int)}
}

func (m *fakeMetrics) RecordPass(string) {}
func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}
func (m *fakeMetrics) RecordLastPrice(string, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64)   {}
func (m *fakeMetrics) RecordSignal(string)             {}
func (m *fakeMetrics) RecordAlert(string)              {}
func (m *fakeMetrics) SetActiveInstruments(int)        {}

func (m *fakeMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newTestOrchestrator(t *testing.T, src *fakeSource, opts ...OrchestratorOption) *Orchestrator {
	t.Helper()
	base := []OrchestratorOption{WithInterval(time.Hour)} // keep the ticker inert
	return NewOrchestrator(
		src,
		patterns.New(patterns.DefaultConfig()),
		alerts.NewEngine(100),
		newFakeMetrics(),
		testLogger(t),
		append(base, opts...)...,
	)
}

func TestStartStopIdempotent(t *testing.T) {
	src := newFakeSource()
	src.prices["A"] = []float64{100}

	o := newTestOrchestrator(t, src)
	o.Start([]string{"A"})
	o.Start([]string{"A"}) // must not spawn a second loop
	if !o.Running() {
		t.Fatalf("expected running after Start")
	}
	o.Stop()
	if o.Running() {
		t.Fatalf("expected stopped after Stop")
	}
	o.Stop() // second Stop is a no-op
}

func TestRunPassFailureIsolation(t *testing.T) {
	src := newFakeSource()
	src.errs["A"] = errors.New("feed down")
	src.prices["B"] = []float64{100}

	o := newTestOrchestrator(t, src)
	o.Start([]string{"A", "B"})
	defer o.Stop()

	o.runPass(context.Background())

	if _, err := o.GetResult("A"); !errors.Is(err, ErrInstrumentNotFound) {
		t.Fatalf("expected no result for failing instrument, got %v", err)
	}
	res, err := o.GetResult("B")
	if err != nil {
		t.Fatalf("expected result for healthy instrument: %v", err)
	}
	if res.Stats.CurrentPrice != 100 {
		t.Fatalf("expected current price 100, got %v", res.Stats.CurrentPrice)
	}
}

func TestAddRemoveInstrument(t *testing.T) {
	src := newFakeSource()
	src.prices["A"] = []float64{100}

	o := newTestOrchestrator(t, src)
	o.AddInstrument("A")
	o.runPass(context.Background())

	if _, err := o.GetResult("A"); err != nil {
		t.Fatalf("expected result after pass: %v", err)
	}
	if !o.RemoveInstrument("A") {
		t.Fatalf("expected removal of known instrument")
	}
	if _, err := o.GetResult("A"); !errors.Is(err, ErrInstrumentNotFound) {
		t.Fatalf("expected result dropped with instrument, got %v", err)
	}
	if o.RemoveInstrument("A") {
		t.Fatalf("expected false for unknown instrument")
	}
}

func TestRemovalDuringPassDoesNotResurrectResult(t *testing.T) {
	src := newFakeSource()
	src.prices["A"] = []float64{100}

	o := newTestOrchestrator(t, src)
	o.AddInstrument("A")

	o.mu.Lock()
	st := o.active["A"]
	o.mu.Unlock()

	// removal lands after the pass captured the state but before it publishes
	if !o.RemoveInstrument("A") {
		t.Fatalf("expected removal of known instrument")
	}
	o.analyze(context.Background(), "A", st)

	if _, err := o.GetResult("A"); !errors.Is(err, ErrInstrumentNotFound) {
		t.Fatalf("removed instrument's result must stay gone, got %v", err)
	}
	if res := o.GetAllResults(); len(res) != 0 {
		t.Fatalf("expected empty result map, got %d entries", len(res))
	}
}

func TestAlertHistorySurvivesRemoval(t *testing.T) {
	src := newFakeSource()
	src.prices["A"] = []float64{100, 120} // 20% move triggers a price_change alert

	o := newTestOrchestrator(t, src)
	o.AddInstrument("A")
	o.runPass(context.Background())
	o.runPass(context.Background())

	before := o.GetActiveAlerts("", 0)
	if len(before) == 0 {
		t.Fatalf("expected alerts after 20%% move")
	}

	o.RemoveInstrument("A")
	after := o.GetActiveAlerts("", 0)
	if len(after) != len(before) {
		t.Fatalf("alert history must survive removal: %d != %d", len(after), len(before))
	}
}

func TestGetStatus(t *testing.T) {
	src := newFakeSource()
	src.prices["A"] = []float64{100}
	src.prices["B"] = []float64{200}

	o := newTestOrchestrator(t, src)
	o.Start([]string{"A", "B"})
	defer o.Stop()
	o.runPass(context.Background())

	st := o.GetStatus()
	if !st.Running {
		t.Fatalf("expected running status")
	}
	if len(st.ActiveInstruments) != 2 {
		t.Fatalf("expected 2 active instruments, got %d", len(st.ActiveInstruments))
	}
	if st.ResultCount != 2 {
		t.Fatalf("expected 2 results, got %d", st.ResultCount)
	}
}

func TestRuleRoundTrip(t *testing.T) {
	src := newFakeSource()
	o := newTestOrchestrator(t, src)

	vol := 1.5
	rule := models.AlertRule{
		RuleID:     "r1",
		Instrument: "*",
		Severity:   models.SeverityMedium,
		Condition:  models.RuleCondition{VolatilityMin: &vol},
	}
	if err := o.RegisterRule(rule); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !o.UnregisterRule("r1") {
		t.Fatalf("expected rule removal")
	}
	if o.UnregisterRule("r1") {
		t.Fatalf("expected false for unknown rule")
	}
}
