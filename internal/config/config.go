package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete probe configuration
type Config struct {
	Target    TargetConfig    `yaml:"target"`
	Browser   BrowserConfig   `yaml:"browser"`
	Collector CollectorConfig `yaml:"collector"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// TargetConfig identifies the page to measure
type TargetConfig struct {
	// URL is the full page URL to measure (e.g. "https://www.example.com")
	URL string `yaml:"url"`

	// Timeout is the maximum time to wait for the page to load
	Timeout time.Duration `yaml:"timeout"`
}

// BrowserConfig contains browser-specific settings
type BrowserConfig struct {
	Headless      bool   `yaml:"headless"`
	UserAgent     string `yaml:"user_agent"`
	WindowWidth   int    `yaml:"window_width"`
	WindowHeight  int    `yaml:"window_height"`
	DisableImages bool   `yaml:"disable_images"`
}

// CollectorConfig contains the series collector endpoint settings
type CollectorConfig struct {
	// BaseURL is the root of the collector; each metric is posted to
	// <base_url>/<series>
	BaseURL string `yaml:"base_url"`

	// InsecureSkipVerify accepts certificates that do not chain to a
	// trusted root (local self-signed collector instances)
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	// RequestTimeout bounds each individual metric write
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load loads configuration from an optional YAML file, then applies
// environment variable overrides
func Load(configFile string) (*Config, error) {
	cfg := DefaultConfig()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			Timeout: 30 * time.Second,
		},
		Browser: BrowserConfig{
			Headless:     true,
			UserAgent:    "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			WindowWidth:  1920,
			WindowHeight: 1080,
		},
		Collector: CollectorConfig{
			RequestTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate rejects malformed configuration before any browser or publisher
// work begins
func (c *Config) Validate() error {
	if err := validateURL("target URL", c.Target.URL); err != nil {
		return err
	}
	if err := validateURL("collector base URL", c.Collector.BaseURL); err != nil {
		return err
	}
	return nil
}

func validateURL(what, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", what)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", what, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s %q: scheme must be http or https", what, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s %q: missing host", what, raw)
	}
	return nil
}
