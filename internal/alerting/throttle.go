// Package alerting decides whether an alert may be delivered and delivers it.
package alerting

import (
	"sync"
	"time"

	"github.com/vietddude/sigwatch/internal/core/domain"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Throttle is a per-key sliding-window debounce. A key may fire again only
// once strictly more than its window has elapsed since the last accepted fire.
type Throttle struct {
	clock Clock

	mu       sync.Mutex
	lastFire map[domain.AlertKey]time.Time
}

// NewThrottle creates a throttle. A nil clock means the system clock.
func NewThrottle(clock Clock) *Throttle {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Throttle{
		clock:    clock,
		lastFire: make(map[domain.AlertKey]time.Time),
	}
}

// ShouldAlert reports whether key may fire now and, if so, records now as its
// last fire time. A rejected call leaves the record untouched.
func (t *Throttle) ShouldAlert(key domain.AlertKey, window time.Duration) bool {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	last, ok := t.lastFire[key]
	if ok && now.Sub(last) <= window {
		return false
	}
	t.lastFire[key] = now
	return true
}

// LastFired returns the last accepted fire time for key.
func (t *Throttle) LastFired(key domain.AlertKey) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.lastFire[key]
	return last, ok
}
