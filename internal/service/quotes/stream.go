package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"PulseWatch/internal/domain/models"
	drepo "PulseWatch/internal/domain/repository"
	applogger "PulseWatch/pkg/logger"

	"github.com/gorilla/websocket"
)

// StreamSource is a SampleSource backed by a websocket quote feed. A
// background read loop keeps a last-quote table current; Fetch returns the
// cached quote and reports unavailable when none has arrived or the cached
// one is older than staleAfter.
type StreamSource struct {
	url            string
	apiKey         string
	staleAfter     time.Duration
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *applogger.Logger

	conn   *websocket.Conn
	connMu sync.Mutex

	mu     sync.RWMutex
	latest map[string]models.Sample
	subs   map[string]struct{}

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewStreamSource creates a websocket quote source.
func NewStreamSource(url, apiKey string, staleAfter, reconnectDelay, pingInterval time.Duration, log *applogger.Logger) *StreamSource {
	if staleAfter <= 0 {
		staleAfter = 30 * time.Second
	}
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &StreamSource{
		url:            url,
		apiKey:         apiKey,
		staleAfter:     staleAfter,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
		latest:         make(map[string]models.Sample),
		subs:           make(map[string]struct{}),
		stopCh:         make(chan struct{}),
	}
}

// Start connects and launches the read and ping loops. Reconnects with a
// fixed delay until Close is called.
func (s *StreamSource) Start(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	s.wg.Add(2)
	go s.readLoop(ctx)
	go s.pingLoop()
	return nil
}

// Close stops the background loops and closes the connection.
func (s *StreamSource) Close() error {
	close(s.stopCh)
	s.connMu.Lock()
	conn := s.conn
	s.conn = nil
	s.connMu.Unlock()
	var err error
	if conn != nil {
		err = conn.Close()
	}
	s.wg.Wait()
	return err
}

// Subscribe registers instruments with the feed. Safe to call any time;
// resubscribed automatically after a reconnect.
func (s *StreamSource) Subscribe(ids []string) error {
	s.mu.Lock()
	for _, id := range ids {
		s.subs[id] = struct{}{}
	}
	s.mu.Unlock()

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("quote stream not connected")
	}
	for _, id := range ids {
		msg := map[string]string{"type": "subscribe", "instrument": id}
		if err := s.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", id, err)
		}
	}
	return nil
}

// Fetch returns the latest cached quote for the instrument.
func (s *StreamSource) Fetch(_ context.Context, instrumentID string) (*models.Sample, error) {
	s.mu.RLock()
	sample, ok := s.latest[instrumentID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no quote yet for %s: %w", instrumentID, drepo.ErrUnavailable)
	}
	if time.Since(sample.Timestamp) > s.staleAfter {
		return nil, fmt.Errorf("stale quote for %s: %w", instrumentID, drepo.ErrUnavailable)
	}
	return &sample, nil
}

func (s *StreamSource) connect(ctx context.Context) error {
	u := s.url
	if s.apiKey != "" {
		u = fmt.Sprintf("%s?token=%s", s.url, s.apiKey)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("quote stream connect: %w", err)
	}
	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	s.mu.RLock()
	ids := make([]string, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	if len(ids) > 0 {
		if err := s.Subscribe(ids); err != nil {
			return err
		}
	}
	s.log.Info("quote stream connected", applogger.Int("subscriptions", len(ids)))
	return nil
}

type feedQuote struct {
	Instrument string  `json:"instrument"`
	Price      float64 `json:"price"`
	Volume     float64 `json:"volume"`
	Bid        float64 `json:"bid"`
	Ask        float64 `json:"ask"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Open       float64 `json:"open"`
	T          int64   `json:"t"` // ms
}

type feedMessage struct {
	Type string      `json:"type"`
	Data []feedQuote `json:"data"`
}

func (s *StreamSource) readLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()
		if conn == nil {
			if !s.sleepOrStop(s.reconnectDelay) {
				return
			}
			if err := s.connect(ctx); err != nil {
				s.log.Warn("quote stream reconnect failed", applogger.Error(err))
			}
			continue
		}

		_, b, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
			}
			s.log.Warn("quote stream read error", applogger.Error(err))
			s.connMu.Lock()
			s.conn = nil
			s.connMu.Unlock()
			_ = conn.Close()
			continue
		}

		var m feedMessage
		if err := json.Unmarshal(b, &m); err != nil {
			// ignore non-quote frames
			continue
		}
		if m.Type != "quote" {
			continue
		}
		s.mu.Lock()
		for _, q := range m.Data {
			if q.Instrument == "" || q.Price <= 0 {
				continue
			}
			ts := time.Now()
			if q.T > 0 {
				ts = time.Unix(q.T/1000, (q.T%1000)*int64(time.Millisecond))
			}
			s.latest[q.Instrument] = models.Sample{
				InstrumentID: q.Instrument,
				Timestamp:    ts,
				Price:        q.Price,
				Volume:       q.Volume,
				Bid:          q.Bid,
				Ask:          q.Ask,
				High:         q.High,
				Low:          q.Low,
				Open:         q.Open,
			}
		}
		s.mu.Unlock()
	}
}

func (s *StreamSource) pingLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				_ = s.conn.WriteMessage(websocket.PingMessage, nil)
			}
			s.connMu.Unlock()
		}
	}
}

func (s *StreamSource) sleepOrStop(d time.Duration) bool {
	select {
	case <-s.stopCh:
		return false
	case <-time.After(d):
		return true
	}
}
