package ticket

import (
	"context"
	"sync"
	"time"
)

// InMemorySequencer counts per-day sequences in memory for tests/dev.
type InMemorySequencer struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewInMemorySequencer() *InMemorySequencer {
	return &InMemorySequencer{counts: make(map[string]int64)}
}

func (s *InMemorySequencer) Next(_ context.Context, day time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := DayKey(day)
	s.counts[key]++
	return s.counts[key], nil
}
