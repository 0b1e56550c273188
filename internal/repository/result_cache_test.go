package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"PulseWatch/internal/domain/models"
	pkgcache "PulseWatch/pkg/cache"
)

func TestCacheResultMirrorStoreAndRemove(t *testing.T) {
	mc := pkgcache.NewMemoryCache()
	defer mc.Close()

	m := NewCacheResultMirror(mc, time.Minute)
	ctx := context.Background()

	res := &models.AnalysisResult{
		InstrumentID: "AAPL",
		Timestamp:    time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC),
		Stats:        models.StatsSnapshot{CurrentPrice: 101.5, SampleCount: 42},
	}
	if err := m.Store(ctx, res); err != nil {
		t.Fatalf("store: %v", err)
	}

	var got models.AnalysisResult
	if err := mc.Get(ctx, "result:AAPL", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stats.CurrentPrice != 101.5 || got.Stats.SampleCount != 42 {
		t.Fatalf("unexpected mirrored result: %+v", got)
	}

	if err := m.Remove(ctx, "AAPL"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := mc.Get(ctx, "result:AAPL", &got); !errors.Is(err, pkgcache.ErrCacheMiss) {
		t.Fatalf("expected cache miss after remove, got %v", err)
	}
}
