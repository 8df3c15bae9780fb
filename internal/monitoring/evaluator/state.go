package evaluator

import (
	"sync"
	"time"
)

// State holds the long-lived failure counters. Only the monitor loop
// mutates it; the lock lets the health server read it concurrently.
type State struct {
	mu sync.RWMutex

	consecutiveMisses     int
	consecutiveExceptions int

	lastHeight    int64
	lastBlockTime time.Time
	lastSigned    bool
	lastSuccess   time.Time
	lastError     string
}

// NewState returns zeroed counters.
func NewState() *State {
	return &State{}
}

// Status is a point-in-time copy of State.
type Status struct {
	ConsecutiveMisses     int       `json:"consecutive_misses"`
	ConsecutiveExceptions int       `json:"consecutive_exceptions"`
	LastHeight            int64     `json:"last_height"`
	LastBlockTime         time.Time `json:"last_block_time"`
	LastSigned            bool      `json:"last_signed"`
	LastSuccess           time.Time `json:"last_success"`
	LastError             string    `json:"last_error,omitempty"`
}

// Status returns a copy of the current counters.
func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		ConsecutiveMisses:     s.consecutiveMisses,
		ConsecutiveExceptions: s.consecutiveExceptions,
		LastHeight:            s.lastHeight,
		LastBlockTime:         s.lastBlockTime,
		LastSigned:            s.lastSigned,
		LastSuccess:           s.lastSuccess,
		LastError:             s.lastError,
	}
}

// ConsecutiveMisses returns the current miss count.
func (s *State) ConsecutiveMisses() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.consecutiveMisses
}

// ConsecutiveExceptions returns the current exception count.
func (s *State) ConsecutiveExceptions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.consecutiveExceptions
}

// recordSignature resets or bumps the miss counter and returns the new value.
func (s *State) recordSignature(signed bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSigned = signed
	if signed {
		s.consecutiveMisses = 0
	} else {
		s.consecutiveMisses++
	}
	return s.consecutiveMisses
}

func (s *State) recordSuccess(height int64, blockTime, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveExceptions = 0
	s.lastHeight = height
	s.lastBlockTime = blockTime
	s.lastSuccess = now
	s.lastError = ""
}

// recordFailure bumps the exception counter and returns the new value.
func (s *State) recordFailure(msg string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveExceptions++
	s.lastError = msg
	return s.consecutiveExceptions
}
