package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"PulseWatch/internal/domain/models"
	drepo "PulseWatch/internal/domain/repository"
	dsvc "PulseWatch/internal/domain/service"
	"PulseWatch/internal/stream"
	applogger "PulseWatch/pkg/logger"
)

// ErrInstrumentNotFound is returned by GetResult for unknown instruments.
var ErrInstrumentNotFound = errors.New("instrument not found")

// instrumentState is everything the orchestrator tracks per instrument.
// Its mutex serializes buffer mutation and result publication so each
// instrument has exactly one writer per tick.
type instrumentState struct {
	mu  sync.Mutex
	buf *stream.HistoryBuffer
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithInterval sets the analysis tick interval.
func WithInterval(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithFetchTimeout bounds a single sample fetch.
func WithFetchTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.fetchTimeout = d
		}
	}
}

// WithBufferCapacity sets the per-instrument history depth.
func WithBufferCapacity(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.bufCap = n
		}
	}
}

// WithSnapshotSize sets how many recent samples feed each analysis pass.
func WithSnapshotSize(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.snapshot = n
		}
	}
}

// WithDispatcher attaches an async alert dispatcher.
func WithDispatcher(d *AlertDispatcher) OrchestratorOption {
	return func(o *Orchestrator) { o.dispatcher = d }
}

// WithResultMirror attaches a best-effort external result mirror.
func WithResultMirror(m drepo.ResultMirror) OrchestratorOption {
	return func(o *Orchestrator) { o.mirror = m }
}

// Orchestrator owns the active instrument set, drives one analysis pass per
// instrument per tick, and publishes the latest AnalysisResult per
// instrument for external readers.
type Orchestrator struct {
	detector dsvc.PatternDetector
	alerts   dsvc.AlertEngine
	fetch    drepo.SampleSource
	metrics  drepo.Metrics
	log      *applogger.Logger

	interval     time.Duration
	fetchTimeout time.Duration
	bufCap       int
	snapshot     int

	dispatcher *AlertDispatcher
	mirror     drepo.ResultMirror

	mu      sync.Mutex // guards active, running, stopCh, done
	active  map[string]*instrumentState
	running bool
	stopCh  chan struct{}
	done    chan struct{}

	resMu   sync.RWMutex
	results map[string]*models.AnalysisResult
}

// NewOrchestrator wires the analysis pipeline. All collaborators are
// injected; the orchestrator performs no I/O beyond the SampleSource.
func NewOrchestrator(
	source drepo.SampleSource,
	detector dsvc.PatternDetector,
	alertEngine dsvc.AlertEngine,
	metrics drepo.Metrics,
	log *applogger.Logger,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		detector:     detector,
		alerts:       alertEngine,
		fetch:        source,
		metrics:      metrics,
		log:          log,
		interval:     time.Second,
		fetchTimeout: 2 * time.Second,
		bufCap:       stream.DefaultCapacity,
		snapshot:     100,
		active:       make(map[string]*instrumentState),
		results:      make(map[string]*models.AnalysisResult),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start adds the instruments to the active set and, if the loop is not
// already running, begins the periodic driver. Idempotent: a second call
// never spawns a second loop or duplicates instruments.
func (o *Orchestrator) Start(instrumentIDs []string) {
	o.mu.Lock()
	for _, id := range instrumentIDs {
		if _, ok := o.active[id]; !ok {
			o.active[id] = &instrumentState{buf: stream.NewHistoryBuffer(o.bufCap)}
		}
	}
	count := len(o.active)
	alreadyRunning := o.running
	if !o.running {
		o.running = true
		o.stopCh = make(chan struct{})
		o.done = make(chan struct{})
		go o.loop(o.stopCh, o.done)
	}
	o.mu.Unlock()

	o.metrics.SetActiveInstruments(count)
	if !alreadyRunning {
		o.log.Info("analysis started",
			applogger.Int("instruments", count),
			applogger.Duration("interval", o.interval),
		)
	}
}

// Stop halts the driver loop and waits for any in-flight pass to complete.
// No further passes begin after Stop returns. Published results are kept.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	close(o.stopCh)
	done := o.done
	o.mu.Unlock()

	<-done
	o.log.Info("analysis stopped")
}

// Running reports whether the driver loop is active.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// AddInstrument adds one instrument; it is picked up from the next tick.
func (o *Orchestrator) AddInstrument(id string) {
	o.mu.Lock()
	if _, ok := o.active[id]; !ok {
		o.active[id] = &instrumentState{buf: stream.NewHistoryBuffer(o.bufCap)}
	}
	count := len(o.active)
	o.mu.Unlock()

	o.metrics.SetActiveInstruments(count)
	o.log.Info("instrument added", applogger.String("instrument", id))
}

// RemoveInstrument drops an instrument, its history, and its published
// result. The alert history is deliberately retained.
func (o *Orchestrator) RemoveInstrument(id string) bool {
	o.mu.Lock()
	_, ok := o.active[id]
	delete(o.active, id)
	count := len(o.active)
	o.mu.Unlock()

	o.resMu.Lock()
	delete(o.results, id)
	o.resMu.Unlock()

	if o.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), o.fetchTimeout)
		if err := o.mirror.Remove(ctx, id); err != nil {
			o.metrics.RecordError("mirror_remove")
		}
		cancel()
	}

	o.metrics.SetActiveInstruments(count)
	if ok {
		o.log.Info("instrument removed", applogger.String("instrument", id))
	}
	return ok
}

// GetResult returns the most recently published result for the instrument,
// or ErrInstrumentNotFound.
func (o *Orchestrator) GetResult(id string) (*models.AnalysisResult, error) {
	o.resMu.RLock()
	defer o.resMu.RUnlock()
	res, ok := o.results[id]
	if !ok {
		return nil, ErrInstrumentNotFound
	}
	return res, nil
}

// GetAllResults returns a copy of the published result map.
func (o *Orchestrator) GetAllResults() map[string]*models.AnalysisResult {
	o.resMu.RLock()
	defer o.resMu.RUnlock()
	out := make(map[string]*models.AnalysisResult, len(o.results))
	for id, res := range o.results {
		out[id] = res
	}
	return out
}

// GetActiveAlerts returns retained alerts filtered by optional severity.
func (o *Orchestrator) GetActiveAlerts(severity models.Severity, limit int) []models.AlertSignal {
	return o.alerts.History(severity, limit)
}

// RegisterRule adds a user alert rule; malformed rules are rejected.
func (o *Orchestrator) RegisterRule(rule models.AlertRule) error {
	return o.alerts.RegisterRule(rule)
}

// UnregisterRule removes a user alert rule.
func (o *Orchestrator) UnregisterRule(ruleID string) bool {
	return o.alerts.UnregisterRule(ruleID)
}

// Status summarizes the engine for the control surface.
type Status struct {
	Running           bool     `json:"running"`
	ActiveInstruments []string `json:"active_instruments"`
	ResultCount       int      `json:"result_count"`
	AlertsRetained    int      `json:"alerts_retained"`
}

// GetStatus returns a point-in-time engine summary.
func (o *Orchestrator) GetStatus() Status {
	o.mu.Lock()
	ids := make([]string, 0, len(o.active))
	for id := range o.active {
		ids = append(ids, id)
	}
	running := o.running
	o.mu.Unlock()

	o.resMu.RLock()
	results := len(o.results)
	o.resMu.RUnlock()

	return Status{
		Running:           running,
		ActiveInstruments: ids,
		ResultCount:       results,
		AlertsRetained:    o.alerts.HistoryLen(),
	}
}

func (o *Orchestrator) loop(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			o.runPass(context.Background())
		}
	}
}

// runPass analyzes every instrument in the active set once. Instruments are
// processed concurrently; a failure for one never affects the others.
func (o *Orchestrator) runPass(ctx context.Context) {
	o.mu.Lock()
	batch := make(map[string]*instrumentState, len(o.active))
	for id, st := range o.active {
		batch[id] = st
	}
	o.mu.Unlock()

	var wg sync.WaitGroup
	for id, st := range batch {
		wg.Add(1)
		go func(id string, st *instrumentState) {
			defer wg.Done()
			o.analyze(ctx, id, st)
		}(id, st)
	}
	wg.Wait()
}

// analyze performs one fetch-append-detect-alert-publish cycle for one
// instrument. st.mu makes this the single writer for the instrument's state.
func (o *Orchestrator) analyze(ctx context.Context, id string, st *instrumentState) {
	start := time.Now()

	fetchCtx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
	sample, err := o.fetch.Fetch(fetchCtx, id)
	cancel()
	if err != nil {
		// unavailable this tick; skip and retry next tick
		o.metrics.RecordError("fetch")
		o.log.Debug("sample unavailable",
			applogger.String("instrument", id),
			applogger.Error(err),
		)
		return
	}

	st.mu.Lock()
	st.buf.Append(*sample)
	snapshot := st.buf.Snapshot(o.snapshot)
	st.mu.Unlock()

	stats := stream.ComputeStats(snapshot)
	signals := o.detector.Detect(snapshot, stats)
	generated := o.alerts.Generate(id, signals, stats)

	res := &models.AnalysisResult{
		InstrumentID: id,
		Timestamp:    time.Now(),
		Stats:        stats,
		Patterns:     signals,
		Alerts:       generated,
		LatestSample: *sample,
	}

	// publish by replacement so readers never see a partial result. The
	// membership re-check under o.mu keeps a pass that raced RemoveInstrument
	// from resurrecting the deleted result: removal deletes from active before
	// it deletes the result, so publishing only while still active (and for
	// this generation of the state) can never leave an orphan entry.
	o.mu.Lock()
	cur, live := o.active[id]
	if live && cur == st {
		o.resMu.Lock()
		o.results[id] = res
		o.resMu.Unlock()
	}
	o.mu.Unlock()
	if !live || cur != st {
		return
	}

	if o.dispatcher != nil && len(generated) > 0 {
		o.dispatcher.Enqueue(generated...)
	}
	if o.mirror != nil {
		if err := o.mirror.Store(ctx, res); err != nil {
			o.metrics.RecordError("mirror_store")
		}
	}

	o.metrics.RecordPass(id)
	o.metrics.RecordLastPrice(id, sample.Price)
	for _, s := range signals {
		o.metrics.RecordSignal(string(s.PatternType))
	}
	for _, a := range generated {
		o.metrics.RecordAlert(string(a.Severity))
	}
	o.metrics.RecordLatency("analyze", time.Since(start).Seconds())
}
