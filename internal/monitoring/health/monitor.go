package health

import (
	"time"

	"github.com/vietddude/sigwatch/internal/alerting"
	"github.com/vietddude/sigwatch/internal/core/domain"
	"github.com/vietddude/sigwatch/internal/monitoring/evaluator"
)

// RunningChecker reports whether the monitor loop is active.
type RunningChecker interface {
	Running() bool
}

// Thresholds mirrors the evaluator's paging thresholds.
type Thresholds struct {
	MaxBlockAge              time.Duration
	MaxConsecutiveMisses     int
	MaxConsecutiveExceptions int
}

// Monitor turns the evaluator counters into a health report.
type Monitor struct {
	validator  string
	chain      string
	instanceID string
	thresholds Thresholds
	state      *evaluator.State
	throttle   *alerting.Throttle
	loop       RunningChecker
	clock      alerting.Clock
}

// NewMonitor creates a new health monitor.
func NewMonitor(
	validator, chain, instanceID string,
	thresholds Thresholds,
	state *evaluator.State,
	throttle *alerting.Throttle,
	loop RunningChecker,
	clock alerting.Clock,
) *Monitor {
	if clock == nil {
		clock = alerting.SystemClock{}
	}
	return &Monitor{
		validator:  validator,
		chain:      chain,
		instanceID: instanceID,
		thresholds: thresholds,
		state:      state,
		throttle:   throttle,
		loop:       loop,
		clock:      clock,
	}
}

var alertKeys = []domain.AlertKey{
	domain.AlertNodeLag,
	domain.AlertMissedSignatures,
	domain.AlertUnknownError,
}

// CheckHealth builds a report from the current counters.
func (m *Monitor) CheckHealth() HealthReport {
	now := m.clock.Now()
	counters := m.state.Status()

	report := HealthReport{
		SystemStatus: StatusHealthy,
		Validator:    m.validator,
		Chain:        m.chain,
		Counters:     counters,
		InstanceID:   m.instanceID,
		CheckedAt:    now,
	}
	if m.loop != nil {
		report.Running = m.loop.Running()
	}

	var age time.Duration
	if !counters.LastBlockTime.IsZero() {
		age = now.Sub(counters.LastBlockTime)
		if age < 0 {
			age = -age
		}
		report.BlockAgeSeconds = age.Seconds()
	}

	if m.throttle != nil {
		for _, key := range alertKeys {
			if last, ok := m.throttle.LastFired(key); ok {
				if report.LastAlerts == nil {
					report.LastAlerts = make(map[string]time.Time)
				}
				report.LastAlerts[string(key)] = last
			}
		}
	}

	// Evaluate Status
	switch {
	case counters.ConsecutiveExceptions > m.thresholds.MaxConsecutiveExceptions,
		counters.ConsecutiveMisses > m.thresholds.MaxConsecutiveMisses,
		age > m.thresholds.MaxBlockAge:
		report.SystemStatus = StatusCritical
	case counters.ConsecutiveExceptions > 0,
		counters.ConsecutiveMisses > 0,
		counters.LastSuccess.IsZero():
		report.SystemStatus = StatusDegraded
	}

	return report
}
