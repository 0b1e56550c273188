package stream

import (
	"testing"
	"time"

	"PulseWatch/internal/domain/models"
)

func sampleAt(price float64, sec int) models.Sample {
	return models.Sample{
		InstrumentID: "TEST",
		Timestamp:    time.Date(2024, 10, 10, 10, 0, sec, 0, time.UTC),
		Price:        price,
		Volume:       100,
	}
}

func TestBufferAppendAndLen(t *testing.T) {
	b := NewHistoryBuffer(5)
	if b.Len() != 0 {
		t.Fatalf("expected empty buffer, got %d", b.Len())
	}
	for i := 0; i < 3; i++ {
		b.Append(sampleAt(float64(100+i), i))
	}
	if b.Len() != 3 {
		t.Fatalf("expected 3 samples, got %d", b.Len())
	}
}

func TestBufferEvictsOldestFirst(t *testing.T) {
	b := NewHistoryBuffer(5)
	for i := 0; i < 8; i++ {
		b.Append(sampleAt(float64(i), i))
	}
	if b.Len() != 5 {
		t.Fatalf("expected capacity 5, got %d", b.Len())
	}
	got := b.Snapshot(0)
	if len(got) != 5 {
		t.Fatalf("expected 5 samples, got %d", len(got))
	}
	for i, s := range got {
		want := float64(3 + i) // 0..2 evicted
		if s.Price != want {
			t.Fatalf("sample %d: expected price %v, got %v", i, want, s.Price)
		}
	}
}

func TestBufferSnapshotMostRecent(t *testing.T) {
	b := NewHistoryBuffer(10)
	for i := 0; i < 10; i++ {
		b.Append(sampleAt(float64(i), i))
	}
	got := b.Snapshot(3)
	if len(got) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(got))
	}
	if got[0].Price != 7 || got[2].Price != 9 {
		t.Fatalf("unexpected snapshot window: %v..%v", got[0].Price, got[2].Price)
	}
}

func TestBufferSnapshotExceedingLen(t *testing.T) {
	b := NewHistoryBuffer(10)
	b.Append(sampleAt(1, 0))
	b.Append(sampleAt(2, 1))
	got := b.Snapshot(100)
	if len(got) != 2 {
		t.Fatalf("expected all 2 samples, got %d", len(got))
	}
}

func TestBufferSnapshotIsCopy(t *testing.T) {
	b := NewHistoryBuffer(4)
	b.Append(sampleAt(1, 0))
	got := b.Snapshot(0)
	got[0].Price = 999
	again := b.Snapshot(0)
	if again[0].Price != 1 {
		t.Fatalf("snapshot mutation leaked into buffer")
	}
}
