// Package health provides system health monitoring and status reporting.
package health

import (
	"time"

	"github.com/vietddude/sigwatch/internal/monitoring/evaluator"
)

// SystemStatus represents the overall health state of the validator.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// HealthReport contains the full health report.
type HealthReport struct {
	SystemStatus    SystemStatus         `json:"system_status"`
	Validator       string               `json:"validator"`
	Chain           string               `json:"chain"`
	Running         bool                 `json:"running"`
	BlockAgeSeconds float64              `json:"block_age_seconds"`
	Counters        evaluator.Status     `json:"counters"`
	LastAlerts      map[string]time.Time `json:"last_alerts,omitempty"`
	InstanceID      string               `json:"instance_id,omitempty"`
	CheckedAt       time.Time            `json:"checked_at"`
}
