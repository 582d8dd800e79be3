package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds fleet-console configuration.
type Config struct {
	// Fleet API connection
	API APIConfig `yaml:"api"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Fleet event stream
	Events EventsConfig `yaml:"events"`
}

// APIConfig configures the fleet API client.
type APIConfig struct {
	BaseURL  string `yaml:"base_url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Timeout  string `yaml:"timeout"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // empty = stderr
}

// EventsConfig configures the Kinesis fleet event stream.
type EventsConfig struct {
	Stream string `yaml:"stream"`
	Region string `yaml:"region"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: "10s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Events: EventsConfig{
			Region: "us-west-2",
		},
	}
}

// DefaultPath returns ~/.config/fleet-console/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "fleet-console.yaml"
	}
	return filepath.Join(dir, "fleet-console", "config.yaml")
}

// Load loads configuration from a YAML file, then applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// May contain the API password
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FLEET_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("FLEET_API_USER"); v != "" {
		c.API.Username = v
	}
	if v := os.Getenv("FLEET_API_PASSWORD"); v != "" {
		c.API.Password = v
	}
	if v := os.Getenv("FLEET_API_TIMEOUT"); v != "" {
		c.API.Timeout = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FLEET_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("KINESIS_FLEET_EVENTS_STREAM"); v != "" {
		c.Events.Stream = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.Events.Region = v
	}
}

// GetTimeout returns the API timeout, falling back to 10s when unset or invalid.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// SlogLevel maps the configured level name to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL)
	}
	if c.API.Timeout != "" {
		if _, err := time.ParseDuration(c.API.Timeout); err != nil {
			return fmt.Errorf("api.timeout %q: %w", c.API.Timeout, err)
		}
	}
	return nil
}
