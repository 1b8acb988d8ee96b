package config

import (
	"fmt"
	"os"
	"time"
)

const (
	// EnvUploadsPollInterval overrides the delay between upload status checks.
	EnvUploadsPollInterval = "UPLOADS_POLL_INTERVAL"

	// EnvUploadsCategory overrides the category attached to uploaded documents.
	EnvUploadsCategory = "UPLOADS_CATEGORY"
)

// UploadsConfig contains document upload workflow settings.
type UploadsConfig struct {
	PollInterval string `toml:"poll_interval"`
	Category     string `toml:"category"`
}

// PollIntervalDuration parses and returns the poll interval as a time.Duration.
func (c *UploadsConfig) PollIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.PollInterval)
	return d
}

// Finalize applies defaults, loads environment overrides, and validates the uploads configuration.
func (c *UploadsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *UploadsConfig) Merge(overlay *UploadsConfig) {
	if overlay.PollInterval != "" {
		c.PollInterval = overlay.PollInterval
	}
	if overlay.Category != "" {
		c.Category = overlay.Category
	}
}

func (c *UploadsConfig) loadDefaults() {
	if c.PollInterval == "" {
		c.PollInterval = "2s"
	}
	if c.Category == "" {
		c.Category = "General Information"
	}
}

func (c *UploadsConfig) loadEnv() {
	if v := os.Getenv(EnvUploadsPollInterval); v != "" {
		c.PollInterval = v
	}
	if v := os.Getenv(EnvUploadsCategory); v != "" {
		c.Category = v
	}
}

func (c *UploadsConfig) validate() error {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return fmt.Errorf("invalid poll_interval: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	return nil
}
