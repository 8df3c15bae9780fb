package config

import (
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/vietddude/sigwatch/internal/core/domain"
)

const (
	DefaultNodeURL      = "http://127.0.0.1:26657/block"
	DefaultPagerDutyURL = "https://api.pagerduty.com"
	DefaultServerPort   = 8080
)

// envOverrides lists the environment variables that take precedence over the
// config file. Numeric tunables are pointers so an explicit zero is kept.
type envOverrides struct {
	PagerDutyAPIKey  string         `envconfig:"PAGER_DUTY_API_KEY"`
	PagerDutyService string         `envconfig:"PAGER_DUTY_SERVICE"`
	PagerDutyEmail   string         `envconfig:"PAGER_DUTY_EMAIL"`
	ValidatorAddress string         `envconfig:"VALIDATOR_ADDRESS"`
	NodeURL          string         `envconfig:"NODE_URL"`
	ChainName        string         `envconfig:"CHAIN_NAME"`
	PollInterval     *time.Duration `envconfig:"POLL_INTERVAL"`
	MaxBlockAge      *time.Duration `envconfig:"MAX_BLOCK_AGE"`
	MaxMisses        *int           `envconfig:"MAX_CONSECUTIVE_MISSES"`
	MaxExceptions    *int           `envconfig:"MAX_CONSECUTIVE_EXCEPTIONS"`
	ServerPort       *int           `envconfig:"SERVER_PORT"`
	LogLevel         string         `envconfig:"LOG_LEVEL"`
}

// explicitKeys records which tunables were set by the file or the
// environment. Only unset tunables receive defaults, so 0 stays 0.
type explicitKeys struct {
	Server struct {
		Port *int `yaml:"port"`
	} `yaml:"server"`
	Monitor struct {
		PollInterval             *time.Duration `yaml:"poll_interval"`
		MaxBlockAge              *time.Duration `yaml:"max_block_age"`
		MaxConsecutiveMisses     *int           `yaml:"max_consecutive_misses"`
		MaxConsecutiveExceptions *int           `yaml:"max_consecutive_exceptions"`
	} `yaml:"monitor"`
}

// Load reads configuration from a YAML file, applies environment overrides and
// defaults, and validates the result. A missing file is not an error: the
// monitor can be configured from the environment alone.
func Load(path string) (*AppConfig, error) {
	var (
		cfg  AppConfig
		keys explicitKeys
	)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Expand environment variables in the YAML content
		expandedData := []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(expandedData, &cfg); err != nil {
			return nil, domain.NewError(domain.KindConfig, "parse config file", err)
		}
		if err := yaml.Unmarshal(expandedData, &keys); err != nil {
			return nil, domain.NewError(domain.KindConfig, "parse config file", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, domain.NewError(domain.KindConfig, "read config file", err)
	}

	if err := applyEnv(&cfg, &keys); err != nil {
		return nil, err
	}
	applyDefaults(&cfg, &keys)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *AppConfig, keys *explicitKeys) error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return domain.NewError(domain.KindConfig, "read environment", err)
	}

	setString(&cfg.PagerDuty.APIKey, env.PagerDutyAPIKey)
	setString(&cfg.PagerDuty.ServiceID, env.PagerDutyService)
	setString(&cfg.PagerDuty.Email, env.PagerDutyEmail)
	setString(&cfg.Monitor.ValidatorAddress, env.ValidatorAddress)
	setString(&cfg.Monitor.ChainName, env.ChainName)
	setString(&cfg.Node.URL, env.NodeURL)
	setString(&cfg.Logging.Level, env.LogLevel)

	if env.PollInterval != nil {
		cfg.Monitor.PollInterval = *env.PollInterval
		keys.Monitor.PollInterval = env.PollInterval
	}
	if env.MaxBlockAge != nil {
		cfg.Monitor.MaxBlockAge = *env.MaxBlockAge
		keys.Monitor.MaxBlockAge = env.MaxBlockAge
	}
	if env.MaxMisses != nil {
		cfg.Monitor.MaxConsecutiveMisses = *env.MaxMisses
		keys.Monitor.MaxConsecutiveMisses = env.MaxMisses
	}
	if env.MaxExceptions != nil {
		cfg.Monitor.MaxConsecutiveExceptions = *env.MaxExceptions
		keys.Monitor.MaxConsecutiveExceptions = env.MaxExceptions
	}
	if env.ServerPort != nil {
		cfg.Server.Port = *env.ServerPort
		keys.Server.Port = env.ServerPort
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *AppConfig, keys *explicitKeys) {
	if keys.Server.Port == nil {
		cfg.Server.Port = DefaultServerPort
	}

	if cfg.Node.URL == "" {
		cfg.Node.URL = DefaultNodeURL
	}
	if cfg.Node.Timeout == 0 {
		cfg.Node.Timeout = 5 * time.Second
	}

	if cfg.Monitor.ChainName == "" {
		cfg.Monitor.ChainName = "the network"
	}
	if keys.Monitor.PollInterval == nil {
		cfg.Monitor.PollInterval = 10 * time.Second
	}
	if keys.Monitor.MaxBlockAge == nil {
		cfg.Monitor.MaxBlockAge = 30 * time.Second
	}
	if keys.Monitor.MaxConsecutiveMisses == nil {
		cfg.Monitor.MaxConsecutiveMisses = 5
	}
	if keys.Monitor.MaxConsecutiveExceptions == nil {
		cfg.Monitor.MaxConsecutiveExceptions = 5
	}

	t := &cfg.Alerts.Throttle
	if t.Default == 0 {
		t.Default = time.Minute
	}
	if t.NodeLag == 0 {
		t.NodeLag = 5 * time.Minute
	}
	if t.MissedSignatures == 0 {
		t.MissedSignatures = 5 * time.Minute
	}
	if t.UnknownError == 0 {
		t.UnknownError = 5 * time.Minute
	}

	if cfg.PagerDuty.URL == "" {
		cfg.PagerDuty.URL = DefaultPagerDutyURL
	}
	if cfg.PagerDuty.Timeout == 0 {
		cfg.PagerDuty.Timeout = 10 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks that every required setting is present.
func (c *AppConfig) Validate() error {
	required := []struct {
		env   string
		value string
	}{
		{"PAGER_DUTY_API_KEY", c.PagerDuty.APIKey},
		{"PAGER_DUTY_SERVICE", c.PagerDuty.ServiceID},
		{"PAGER_DUTY_EMAIL", c.PagerDuty.Email},
		{"VALIDATOR_ADDRESS", c.Monitor.ValidatorAddress},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.env)
		}
	}
	if len(missing) > 0 {
		return domain.Errorf(domain.KindConfig, "validate config",
			"%s must be set for operation", strings.Join(missing, ", "))
	}

	if c.Monitor.MaxConsecutiveMisses < 0 || c.Monitor.MaxConsecutiveExceptions < 0 {
		return domain.Errorf(domain.KindConfig, "validate config", "thresholds must not be negative")
	}
	if c.Monitor.MaxBlockAge < 0 {
		return domain.Errorf(domain.KindConfig, "validate config", "max_block_age must not be negative")
	}
	if c.Monitor.PollInterval <= 0 {
		return domain.Errorf(domain.KindConfig, "validate config", "poll_interval must be positive")
	}
	if c.Server.Port < 0 {
		return domain.Errorf(domain.KindConfig, "validate config", "server port must not be negative")
	}
	return nil
}

// ThrottleFor returns the throttle window configured for an alert key.
func (c *AppConfig) ThrottleFor(key domain.AlertKey) time.Duration {
	switch key {
	case domain.AlertNodeLag:
		return c.Alerts.Throttle.NodeLag
	case domain.AlertMissedSignatures:
		return c.Alerts.Throttle.MissedSignatures
	case domain.AlertUnknownError:
		return c.Alerts.Throttle.UnknownError
	default:
		return c.Alerts.Throttle.Default
	}
}
