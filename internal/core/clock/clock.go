// Package clock provides the time sources that drive the tick loop.
package clock

import (
	"sync"
	"time"
)

// Clock is the only way game code reads the time.
type Clock interface {
	Now() time.Time
}

// Real reads the system monotonic clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Manual is a controllable clock for tests and offline simulation.
type Manual struct {
	mu  sync.RWMutex
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// FrameTimer turns successive clock readings into per-tick deltas.
// Deltas are clamped to maxDelta so a stalled host (debugger, suspended
// laptop) does not replay minutes of spawning in one tick.
type FrameTimer struct {
	clock    Clock
	maxDelta time.Duration
	last     time.Time
	started  bool
}

func NewFrameTimer(c Clock, maxDelta time.Duration) *FrameTimer {
	return &FrameTimer{clock: c, maxDelta: maxDelta}
}

// Next returns the time since the previous call. The first call returns 0.
func (f *FrameTimer) Next() time.Duration {
	now := f.clock.Now()
	if !f.started {
		f.started = true
		f.last = now
		return 0
	}
	dt := now.Sub(f.last)
	f.last = now
	if dt < 0 {
		return 0
	}
	if f.maxDelta > 0 && dt > f.maxDelta {
		return f.maxDelta
	}
	return dt
}

// Reset forgets the previous reading; the next call to Next returns 0.
func (f *FrameTimer) Reset() {
	f.started = false
}
