package stream

import (
	"sync"

	"PulseWatch/internal/domain/models"
)

// DefaultCapacity is the per-instrument history depth used when none is
// configured.
const DefaultCapacity = 1000

// HistoryBuffer is a fixed-capacity, insertion-ordered ring of the most
// recent samples for one instrument. Append never fails; once full, the
// oldest entry is silently overwritten.
type HistoryBuffer struct {
	mu   sync.RWMutex
	data []models.Sample
	head int // index of the next write
	size int
}

// NewHistoryBuffer creates a buffer holding at most capacity samples.
func NewHistoryBuffer(capacity int) *HistoryBuffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &HistoryBuffer{data: make([]models.Sample, capacity)}
}

// Append inserts a sample, evicting the oldest when the buffer is full. O(1).
func (b *HistoryBuffer) Append(s models.Sample) {
	b.mu.Lock()
	b.data[b.head] = s
	b.head = (b.head + 1) % len(b.data)
	if b.size < len(b.data) {
		b.size++
	}
	b.mu.Unlock()
}

// Len returns the number of samples currently held.
func (b *HistoryBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Snapshot returns a copy of the most recent count samples in chronological
// order, or all held samples when count exceeds the buffer length. Callers
// never observe concurrent mutation through the returned slice.
func (b *HistoryBuffer) Snapshot(count int) []models.Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if count <= 0 || count > b.size {
		count = b.size
	}
	out := make([]models.Sample, count)
	// oldest requested entry sits count positions behind the write head
	start := b.head - count
	if start < 0 {
		start += len(b.data)
	}
	for i := 0; i < count; i++ {
		out[i] = b.data[(start+i)%len(b.data)]
	}
	return out
}
