package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultStatusURL is the page publishing the countdown status marker.
const DefaultStatusURL = "https://www.chadsoft.co.uk/online-status/status.txt"

// RoleCount is the number of role identifiers a Discord config must carry,
// one per possible player count 1..12.
const RoleCount = 12

// DefaultDiscordUsername is used when the Discord config omits a username.
const DefaultDiscordUsername = "Countdown Status"

var (
	// ErrInvalidRoles is returned when the roles list does not hold exactly RoleCount entries.
	ErrInvalidRoles = errors.New("discord config: roles must contain exactly 12 entries")
	// ErrMissingWebhook is returned when the Discord config has no webhook URL.
	ErrMissingWebhook = errors.New("discord config: webhook_url is required")
	// ErrInvalidInterval is returned by Check when a wait the poller relies on is not positive.
	ErrInvalidInterval = errors.New("interval must be positive")
)

// Settings holds runtime configuration for the poller
type Settings struct {
	StatusURL         string        `json:"status_url" yaml:"status_url" env:"STATUS_URL"`
	PollInterval      time.Duration `json:"poll_interval" yaml:"poll_interval" env:"POLL_INTERVAL"`
	EmptyBodyInterval time.Duration `json:"empty_body_interval" yaml:"empty_body_interval" env:"EMPTY_BODY_INTERVAL"`
	HTTPErrorInterval time.Duration `json:"http_error_interval" yaml:"http_error_interval" env:"HTTP_ERROR_INTERVAL"`
	RequestTimeout    time.Duration `json:"request_timeout" yaml:"request_timeout" env:"REQUEST_TIMEOUT"`

	// Backoff applied after consecutive failures; the loop gives up once the
	// next wait would exceed BackoffCeiling.
	BackoffInitial time.Duration `json:"backoff_initial" yaml:"backoff_initial" env:"BACKOFF_INITIAL"`
	BackoffCeiling time.Duration `json:"backoff_ceiling" yaml:"backoff_ceiling" env:"BACKOFF_CEILING"`

	LogLevel  string `json:"log_level" yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `json:"log_format" yaml:"log_format" env:"LOG_FORMAT"`
	LogFile   string `json:"log_file" yaml:"log_file" env:"LOG_FILE"`

	// Metrics
	MetricsEnabled bool `json:"metrics_enabled" yaml:"metrics_enabled" env:"METRICS_ENABLED"`
	MetricsPort    int  `json:"metrics_port" yaml:"metrics_port" env:"METRICS_PORT"`
}

// DefaultSettings returns the intervals the status page is meant to be polled with
func DefaultSettings() *Settings {
	return &Settings{
		StatusURL:         DefaultStatusURL,
		PollInterval:      180 * time.Second,
		EmptyBodyInterval: 30 * time.Second,
		HTTPErrorInterval: 180 * time.Second,
		RequestTimeout:    30 * time.Second,
		BackoffInitial:    15 * time.Second,
		BackoffCeiling:    1000 * time.Second,
		LogLevel:          "info",
		LogFormat:         "json",
		MetricsEnabled:    false,
		MetricsPort:       9090,
	}
}

// Validate returns a list of non-fatal configuration warnings.
func (s *Settings) Validate() []string {
	var warnings []string
	checks := []struct {
		cond bool
		msg  string
	}{
		{s.StatusURL == "", "status URL is empty; every fetch will fail"},
		{s.BackoffCeiling < s.BackoffInitial, "backoff ceiling is below the initial interval; the first failure is fatal"},
		{s.MetricsEnabled && (s.MetricsPort <= 0 || s.MetricsPort > 65535), fmt.Sprintf("metrics port %d is out of range", s.MetricsPort)},
	}
	for _, ch := range checks {
		if ch.cond {
			warnings = append(warnings, ch.msg)
		}
	}
	return warnings
}

// Check rejects settings the poll loop cannot run with: a non-positive wait
// would poll the status page back to back.
func (s *Settings) Check() error {
	intervals := []struct {
		name string
		d    time.Duration
	}{
		{"poll_interval", s.PollInterval},
		{"empty_body_interval", s.EmptyBodyInterval},
		{"http_error_interval", s.HTTPErrorInterval},
		{"backoff_initial", s.BackoffInitial},
	}
	for _, iv := range intervals {
		if iv.d <= 0 {
			return fmt.Errorf("%s: %w (got %v)", iv.name, ErrInvalidInterval, iv.d)
		}
	}
	return nil
}

// LoadSettingsFromFile loads settings from a YAML/JSON file on top of the defaults
func LoadSettingsFromFile(path string) (*Settings, error) {
	s := DefaultSettings()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

// DiscordConfig is the flat file read in discord mode.
type DiscordConfig struct {
	// Roles[i] is mentioned when the player count crosses to i+1.
	Roles      []string `json:"roles" yaml:"roles"`
	WebhookURL string   `json:"webhook_url" yaml:"webhook_url"`
	Username   string   `json:"username" yaml:"username"`
}

// Check enforces the invariants the Discord notifier relies on.
func (c *DiscordConfig) Check() error {
	if len(c.Roles) != RoleCount {
		return fmt.Errorf("%w (got %d)", ErrInvalidRoles, len(c.Roles))
	}
	if c.WebhookURL == "" {
		return ErrMissingWebhook
	}
	return nil
}

// LoadDiscordConfig reads and checks the Discord config file. JSON is parsed
// through the YAML decoder, which accepts it as a subset.
func LoadDiscordConfig(path string) (*DiscordConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := &DiscordConfig{}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse discord config %s: %w", path, err)
	}
	if c.Username == "" {
		c.Username = DefaultDiscordUsername
	}
	if err := c.Check(); err != nil {
		return nil, err
	}
	return c, nil
}
