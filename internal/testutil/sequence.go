// Package testutil provides deterministic helpers for tests and scenario
// runs: a logical sequence and a listener that records compiler events in
// order.
package testutil

import "sync"

// Sequence is a thread-safe monotonic counter. The first call to Next
// returns 1.
type Sequence struct {
	mu  sync.Mutex
	seq int64
}

// Next increments and returns the next sequence number.
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Current returns the last number handed out.
func (s *Sequence) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Reset restarts the sequence at 0.
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = 0
}
