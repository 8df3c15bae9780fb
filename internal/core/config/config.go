package config

import (
	"time"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Node      NodeConfig      `yaml:"node"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	PagerDuty PagerDutyConfig `yaml:"pagerduty"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"` // 0 = disabled
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// NodeConfig holds settings for the local node API.
type NodeConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// MonitorConfig holds the validator under watch and the paging thresholds.
type MonitorConfig struct {
	ValidatorAddress         string        `yaml:"validator_address"`
	ChainName                string        `yaml:"chain_name"`
	PollInterval             time.Duration `yaml:"poll_interval"`
	MaxBlockAge              time.Duration `yaml:"max_block_age"`
	MaxConsecutiveMisses     int           `yaml:"max_consecutive_misses"`
	MaxConsecutiveExceptions int           `yaml:"max_consecutive_exceptions"`
}

// AlertsConfig holds alert throttling windows.
type AlertsConfig struct {
	Throttle ThrottleConfig `yaml:"throttle"`
}

// ThrottleConfig holds the minimum time between two pages of the same kind.
type ThrottleConfig struct {
	Default          time.Duration `yaml:"default"`
	NodeLag          time.Duration `yaml:"node_lag"`
	MissedSignatures time.Duration `yaml:"missed_signatures"`
	UnknownError     time.Duration `yaml:"unknown_error"`
}

// PagerDutyConfig holds incident service credentials.
type PagerDutyConfig struct {
	URL       string        `yaml:"url"`
	APIKey    string        `yaml:"api_key"`
	ServiceID string        `yaml:"service_id"`
	Email     string        `yaml:"email"`
	Timeout   time.Duration `yaml:"timeout"`
}
