// Package clock abstracts the source of "now" so that record timestamps are
// deterministic under test.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time. All timestamps written by the stores come
// from a Clock, never from the host OS directly.
type Clock interface {
	// Now returns the current time in UTC.
	Now() time.Time
}

// System is the wall clock.
type System struct{}

// Now returns the current UTC wall-clock time.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Manual is a hand-driven clock for tests. The zero value starts at the zero
// time; use Set to position it.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a Manual clock positioned at t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t.UTC()}
}

// Now returns the clock's current position.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t.UTC()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
