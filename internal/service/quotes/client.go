package quotes

import (
	"context"
	"fmt"
	"time"

	"PulseWatch/internal/domain/models"
	drepo "PulseWatch/internal/domain/repository"
	"PulseWatch/internal/service/ratelimit"
	xhttp "PulseWatch/pkg/http"
)

// RESTClient is a polling SampleSource over a JSON quote API. Each Fetch is
// one GET bounded by the client timeout; a per-instrument token bucket keeps
// the upstream call rate bounded when many instruments are active.
type RESTClient struct {
	baseURL string
	apiKey  string
	client  *xhttp.Client
	limiter *ratelimit.Limiter
	rate    float64 // fetches per second per instrument
}

// NewRESTClient creates a REST quote source. rate <= 0 disables throttling.
func NewRESTClient(baseURL, apiKey string, timeout time.Duration, rate float64) *RESTClient {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &RESTClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter: ratelimit.New(),
		rate:    rate,
	}
}

type quoteResp struct {
	InstrumentID string  `json:"instrument_id"`
	Price        float64 `json:"price"`
	Volume       float64 `json:"volume"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	Open         float64 `json:"open"`
	Timestamp    int64   `json:"timestamp"` // unix seconds; 0 means "now"
}

// Fetch returns the current quote for one instrument, or ErrUnavailable.
func (c *RESTClient) Fetch(ctx context.Context, instrumentID string) (*models.Sample, error) {
	if c.rate > 0 && !c.limiter.Allow(instrumentID, c.rate, c.rate) {
		return nil, fmt.Errorf("%s throttled: %w", instrumentID, drepo.ErrUnavailable)
	}

	var q quoteResp
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/quote",
		QueryParams: map[string][]string{
			"instrument": {instrumentID},
			"token":      {c.apiKey},
		},
	}, &q)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", instrumentID, drepo.ErrUnavailable)
	}
	if q.Price <= 0 {
		return nil, fmt.Errorf("quote %s: empty payload: %w", instrumentID, drepo.ErrUnavailable)
	}

	ts := time.Now()
	if q.Timestamp > 0 {
		ts = time.Unix(q.Timestamp, 0)
	}
	return &models.Sample{
		InstrumentID: instrumentID,
		Timestamp:    ts,
		Price:        q.Price,
		Volume:       q.Volume,
		Bid:          q.Bid,
		Ask:          q.Ask,
		High:         q.High,
		Low:          q.Low,
		Open:         q.Open,
	}, nil
}
