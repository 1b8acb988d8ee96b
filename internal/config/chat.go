package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// EnvChatURL overrides the base URL of the chat website used to test agents.
const EnvChatURL = "CHAT_WEBSITE_URL"

// ChatConfig points at the chat website that opens an agent with an access key.
type ChatConfig struct {
	BaseURL string `toml:"base_url"`
}

// Finalize applies defaults, loads environment overrides, and validates the chat configuration.
func (c *ChatConfig) Finalize() error {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:3001"
	}
	if v := os.Getenv(EnvChatURL); v != "" {
		c.BaseURL = v
	}

	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base_url scheme: %q", u.Scheme)
	}
	return nil
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *ChatConfig) Merge(overlay *ChatConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
}
