package config

import (
	"fmt"
	"os"
	"time"
)

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv(cfg *Config) error {
	// Target settings
	if v := os.Getenv("TARGET_URL"); v != "" {
		cfg.Target.URL = v
	}

	if v := os.Getenv("TARGET_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TARGET_TIMEOUT: %w", err)
		}
		cfg.Target.Timeout = d
	}

	// Browser settings
	if v := os.Getenv("BROWSER_HEADLESS"); v != "" {
		cfg.Browser.Headless = v == "true" || v == "1"
	}

	if v := os.Getenv("BROWSER_USER_AGENT"); v != "" {
		cfg.Browser.UserAgent = v
	}

	if v := os.Getenv("BROWSER_WINDOW_WIDTH"); v != "" {
		var width int
		fmt.Sscanf(v, "%d", &width)
		if width > 0 {
			cfg.Browser.WindowWidth = width
		}
	}

	if v := os.Getenv("BROWSER_WINDOW_HEIGHT"); v != "" {
		var height int
		fmt.Sscanf(v, "%d", &height)
		if height > 0 {
			cfg.Browser.WindowHeight = height
		}
	}

	if v := os.Getenv("BROWSER_DISABLE_IMAGES"); v != "" {
		cfg.Browser.DisableImages = v == "true" || v == "1"
	}

	// Collector settings
	if v := os.Getenv("COLLECTOR_URL"); v != "" {
		cfg.Collector.BaseURL = v
	}

	if v := os.Getenv("COLLECTOR_INSECURE_TLS"); v != "" {
		cfg.Collector.InsecureSkipVerify = v == "true" || v == "1"
	}

	if v := os.Getenv("COLLECTOR_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid COLLECTOR_REQUEST_TIMEOUT: %w", err)
		}
		cfg.Collector.RequestTimeout = d
	}

	// Logging
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	return nil
}
