// ©Hotpath Labs 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logger

import "sync"

// Mock is an in-memory FIFO backend for tests: records land in a slice
// and come back out through PopFront.
type Mock[E any] struct {
	mu   sync.Mutex
	recs []Timestamped[E]
}

// NewMock returns an empty mock backend.
func NewMock[E any]() *Mock[E] {
	return &Mock[E]{}
}

// Log implements Backend. It never fails.
func (m *Mock[E]) Log(rec Timestamped[E]) error {
	m.mu.Lock()
	m.recs = append(m.recs, rec)
	m.mu.Unlock()
	return nil
}

// PopFront removes and returns the oldest record.
func (m *Mock[E]) PopFront() (Timestamped[E], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.recs) == 0 {
		var zero Timestamped[E]
		return zero, false
	}
	rec := m.recs[0]
	m.recs = m.recs[1:]
	return rec, true
}

// Len returns the number of buffered records.
func (m *Mock[E]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs)
}
