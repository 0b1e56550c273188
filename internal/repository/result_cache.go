package repository

import (
	"context"
	"fmt"
	"time"

	"PulseWatch/internal/domain/models"
	pkgcache "PulseWatch/pkg/cache"
)

// CacheResultMirror mirrors published analysis results into a cache so other
// services can read the latest state without touching the engine. Best
// effort: the engine never depends on a mirror write succeeding.
type CacheResultMirror struct {
	cache pkgcache.Service
	ttl   time.Duration
}

// NewCacheResultMirror creates a mirror with the given entry TTL.
func NewCacheResultMirror(cache pkgcache.Service, ttl time.Duration) *CacheResultMirror {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CacheResultMirror{cache: cache, ttl: ttl}
}

func resultKey(instrumentID string) string {
	return fmt.Sprintf("result:%s", instrumentID)
}

// Store writes the latest result for the instrument.
func (m *CacheResultMirror) Store(ctx context.Context, res *models.AnalysisResult) error {
	return m.cache.Set(ctx, resultKey(res.InstrumentID), res, m.ttl)
}

// Remove drops the mirrored result for a removed instrument.
func (m *CacheResultMirror) Remove(ctx context.Context, instrumentID string) error {
	return m.cache.Delete(ctx, resultKey(instrumentID))
}
