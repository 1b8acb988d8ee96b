package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	// EnvBackendURL overrides the Remote Agent Service base URL.
	EnvBackendURL = "BACKEND_API_URL"

	// EnvBackendToken provides the bearer token used by the console.
	EnvBackendToken = "BACKEND_TOKEN"

	// EnvBackendTimeout overrides the per-request timeout.
	EnvBackendTimeout = "BACKEND_TIMEOUT"
)

// BackendConfig describes how to reach the Remote Agent Service.
type BackendConfig struct {
	BaseURL string `toml:"base_url"`

	// Token is the bearer token the console attaches to outbound calls.
	// The proxy service ignores it and forwards each caller's session token instead.
	Token   string `toml:"token"`
	Timeout string `toml:"timeout"`
}

// TimeoutDuration parses and returns the request timeout as a time.Duration.
func (c *BackendConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, loads environment overrides, and validates the backend configuration.
func (c *BackendConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *BackendConfig) Merge(overlay *BackendConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Token != "" {
		c.Token = overlay.Token
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *BackendConfig) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8000"
	}
	if c.Timeout == "" {
		c.Timeout = "5m"
	}
}

func (c *BackendConfig) loadEnv() {
	if v := os.Getenv(EnvBackendURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvBackendToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvBackendTimeout); v != "" {
		c.Timeout = v
	}
}

func (c *BackendConfig) validate() error {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base_url scheme: %q", u.Scheme)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
