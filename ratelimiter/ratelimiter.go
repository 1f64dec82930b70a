// Package ratelimiter provides a local fixed-window request limiter used to
// cap per-model dispatch rates.
package ratelimiter

import (
	"sync"
	"time"
)

// Limiter is the interface consulted before each dispatch. Implementations
// can be local (in-memory) or distributed.
type Limiter interface {
	// TryAcquire atomically consumes one request slot if available.
	TryAcquire() bool

	// TimeUntilAvailable returns how long until a slot frees up (read-only).
	TimeUntilAvailable() time.Duration
}

// Window is a fixed-window limiter: capacity requests per interval, replenished
// in full when the interval rolls over.
type Window struct {
	capacity    int
	interval    time.Duration
	remaining   int
	windowStart time.Time

	mu sync.Mutex
}

var _ Limiter = (*Window)(nil)

// New creates a limiter allowing capacity requests per interval. A capacity
// of zero or less means unlimited.
func New(capacity int, interval time.Duration) *Window {
	return &Window{
		capacity:    capacity,
		interval:    interval,
		remaining:   capacity,
		windowStart: time.Now(),
	}
}

// PerMinute creates a limiter allowing capacity requests per minute.
func PerMinute(capacity int) *Window {
	return New(capacity, time.Minute)
}

// TryAcquire consumes one slot if the current window has capacity.
func (w *Window) TryAcquire() bool {
	if w.capacity <= 0 {
		return true
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.roll(time.Now())
	if w.remaining <= 0 {
		return false
	}
	w.remaining--
	return true
}

// TimeUntilAvailable reports the wait until the next slot. Zero when a request
// could proceed immediately.
func (w *Window) TimeUntilAvailable() time.Duration {
	if w.capacity <= 0 {
		return 0
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.roll(now)
	if w.remaining > 0 {
		return 0
	}
	return w.windowStart.Add(w.interval).Sub(now)
}

// roll resets the window when the interval has elapsed. Callers hold w.mu.
func (w *Window) roll(now time.Time) {
	if now.Sub(w.windowStart) >= w.interval {
		w.remaining = w.capacity
		w.windowStart = now
	}
}
