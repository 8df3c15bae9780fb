package alerting

import (
	"sync"
	"testing"
	"time"

	"github.com/vietddude/sigwatch/internal/core/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestThrottle_FirstFireAccepted(t *testing.T) {
	clock := newFakeClock()
	th := NewThrottle(clock)

	if !th.ShouldAlert(domain.AlertNodeLag, 5*time.Minute) {
		t.Fatal("first alert for a key should be accepted")
	}
	last, ok := th.LastFired(domain.AlertNodeLag)
	if !ok || !last.Equal(clock.Now()) {
		t.Errorf("expected last fire recorded at %v, got %v (ok=%v)", clock.Now(), last, ok)
	}
}

func TestThrottle_Window(t *testing.T) {
	window := 300 * time.Second

	tests := []struct {
		name    string
		elapsed time.Duration
		want    bool
	}{
		{"immediately", 0, false},
		{"within window", 299 * time.Second, false},
		{"exactly at window", 300 * time.Second, false},
		{"just past window", 300*time.Second + time.Millisecond, true},
		{"well past window", 10 * time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			th := NewThrottle(clock)
			th.ShouldAlert(domain.AlertMissedSignatures, window)

			clock.Advance(tt.elapsed)
			if got := th.ShouldAlert(domain.AlertMissedSignatures, window); got != tt.want {
				t.Errorf("ShouldAlert after %v = %v, want %v", tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestThrottle_RejectedCallDoesNotResetWindow(t *testing.T) {
	clock := newFakeClock()
	th := NewThrottle(clock)
	window := 5 * time.Minute

	th.ShouldAlert(domain.AlertUnknownError, window)
	clock.Advance(4 * time.Minute)
	if th.ShouldAlert(domain.AlertUnknownError, window) {
		t.Fatal("alert inside window should be rejected")
	}

	// Measured from the first fire, not the rejected one.
	clock.Advance(61 * time.Second)
	if !th.ShouldAlert(domain.AlertUnknownError, window) {
		t.Fatal("alert after window measured from the accepted fire should pass")
	}
}

func TestThrottle_AcceptedFireRestartsWindow(t *testing.T) {
	clock := newFakeClock()
	th := NewThrottle(clock)
	window := time.Minute

	th.ShouldAlert(domain.AlertNodeLag, window)
	clock.Advance(61 * time.Second)
	if !th.ShouldAlert(domain.AlertNodeLag, window) {
		t.Fatal("expected second fire to pass")
	}
	clock.Advance(30 * time.Second)
	if th.ShouldAlert(domain.AlertNodeLag, window) {
		t.Fatal("window should restart at the second accepted fire")
	}
}

func TestThrottle_KeysAreIndependent(t *testing.T) {
	th := NewThrottle(newFakeClock())

	if !th.ShouldAlert(domain.AlertNodeLag, time.Hour) {
		t.Fatal("node-lag should fire")
	}
	if !th.ShouldAlert(domain.AlertMissedSignatures, time.Hour) {
		t.Fatal("missed-signatures should fire independently of node-lag")
	}
	if th.ShouldAlert(domain.AlertNodeLag, time.Hour) {
		t.Fatal("node-lag should be throttled")
	}
}
