// Package ticket allocates human-readable submission ticket numbers of the
// form SUB-YYYYMMDD-NNNN. Numbers are unique and never reused; the sequence
// restarts at 1 each day.
package ticket

import (
	"context"
	"fmt"
	"time"
)

// Sequencer hands out the next sequence number for a given day. Exactly one
// allocation wins each number even under concurrent callers.
type Sequencer interface {
	Next(ctx context.Context, day time.Time) (int64, error)
}

// Allocator combines a sequencer with the ticket formatting rule.
type Allocator struct {
	seq Sequencer
}

func NewAllocator(seq Sequencer) *Allocator {
	return &Allocator{seq: seq}
}

// Allocate returns the next ticket number for the given day.
func (a *Allocator) Allocate(ctx context.Context, day time.Time) (string, error) {
	n, err := a.seq.Next(ctx, day)
	if err != nil {
		return "", fmt.Errorf("allocate ticket sequence: %w", err)
	}
	return Format(day, n), nil
}

// Format renders a ticket number. The sequence is zero-padded to four digits
// but keeps growing past 9999 rather than wrapping.
func Format(day time.Time, n int64) string {
	return fmt.Sprintf("SUB-%s-%04d", day.Format("20060102"), n)
}

// DayKey renders the per-day bucket used by sequencer implementations.
func DayKey(day time.Time) string {
	return day.Format("2006-01-02")
}
