package usecase

import (
	"context"
	"sync"
	"time"

	"PulseWatch/internal/domain/models"
	drepo "PulseWatch/internal/domain/repository"
	applogger "PulseWatch/pkg/logger"
)

// DispatcherOption configures an AlertDispatcher.
type DispatcherOption func(*AlertDispatcher)

// WithQueueSize sets the in-memory alert queue depth.
func WithQueueSize(n int) DispatcherOption {
	return func(d *AlertDispatcher) {
		if n > 0 {
			d.queueSize = n
		}
	}
}

// WithPublishTimeout bounds one sink delivery attempt.
func WithPublishTimeout(t time.Duration) DispatcherOption {
	return func(d *AlertDispatcher) {
		if t > 0 {
			d.pubTimeout = t
		}
	}
}

// WithMaxAttempts bounds delivery attempts per alert before it is dropped.
func WithMaxAttempts(n int) DispatcherOption {
	return func(d *AlertDispatcher) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

// AlertDispatcher fans generated alerts out to external sinks (broker,
// archive) without ever blocking the analysis loop. Enqueue is non-blocking:
// when the queue is full the alert is dropped and counted, never queued at
// the loop's expense. A failed delivery is retried with capped exponential
// backoff up to maxAttempts for the same alert; only then is it dropped and
// counted.
type AlertDispatcher struct {
	sinks   []drepo.AlertSink
	metrics drepo.Metrics
	log     *applogger.Logger

	queueSize   int
	pubTimeout  time.Duration
	maxAttempts int

	queue   chan models.AlertSignal
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
	wg      sync.WaitGroup
}

// NewAlertDispatcher creates a dispatcher over the given sinks.
func NewAlertDispatcher(sinks []drepo.AlertSink, metrics drepo.Metrics, log *applogger.Logger, opts ...DispatcherOption) *AlertDispatcher {
	d := &AlertDispatcher{
		sinks:       sinks,
		metrics:     metrics,
		log:         log,
		queueSize:   1000,
		pubTimeout:  5 * time.Second,
		maxAttempts: 5,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = make(chan models.AlertSignal, d.queueSize)
	d.stopCh = make(chan struct{})
	return d
}

// Start launches the background delivery worker. Safe to call once.
func (d *AlertDispatcher) Start() {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	d.wg.Add(1)
	go d.deliverLoop()
}

// Stop halts the worker and closes the sinks. Alerts still queued are dropped.
func (d *AlertDispatcher) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	d.mu.Unlock()

	close(d.stopCh)
	d.wg.Wait()
	for _, s := range d.sinks {
		if err := s.Close(); err != nil {
			d.log.Warn("sink close error",
				applogger.String("sink", s.Name()),
				applogger.Error(err),
			)
		}
	}
}

// Enqueue queues alerts for delivery, dropping on overflow.
func (d *AlertDispatcher) Enqueue(alerts ...models.AlertSignal) {
	for _, a := range alerts {
		select {
		case d.queue <- a:
		default:
			d.metrics.RecordError("dispatch_queue_full")
		}
	}
}

func (d *AlertDispatcher) deliverLoop() {
	defer d.wg.Done()

	for {
		select {
		case <-d.stopCh:
			return
		case a := <-d.queue:
			if !d.deliverWithRetry(a) {
				return
			}
		}
	}
}

// deliverWithRetry keeps re-attempting the same alert with capped exponential
// backoff until it lands or maxAttempts is exhausted, then drops it. Returns
// false only when the dispatcher stopped mid-retry.
func (d *AlertDispatcher) deliverWithRetry(a models.AlertSignal) bool {
	backoff := 50 * time.Millisecond
	for attempt := 1; ; attempt++ {
		if d.deliver(a) {
			return true
		}
		if attempt >= d.maxAttempts {
			d.metrics.RecordError("dispatch_drop")
			d.log.Warn("alert dropped after retries",
				applogger.String("alert", a.AlertID),
				applogger.Int("attempts", attempt),
			)
			return true
		}
		select {
		case <-d.stopCh:
			return false
		case <-time.After(backoff):
		}
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
}

// deliver pushes one alert to every sink; returns false if any sink failed.
// A failing sink does not stop delivery to the others.
func (d *AlertDispatcher) deliver(a models.AlertSignal) bool {
	ok := true
	for _, s := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.pubTimeout)
		err := s.Publish(ctx, []models.AlertSignal{a})
		cancel()
		if err != nil {
			ok = false
			d.metrics.RecordError("dispatch_" + s.Name())
			d.log.Warn("alert delivery failed",
				applogger.String("sink", s.Name()),
				applogger.String("alert", a.AlertID),
				applogger.Error(err),
			)
		}
	}
	return ok
}
