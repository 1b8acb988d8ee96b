package logging

import (
	"os"
	"strconv"
	"strings"
)

// Env names the environment variables that override logging settings.
// An empty name disables that override.
type Env struct {
	Level     string
	Format    string
	AddSource string
}

// Config selects the handler format, minimum level, and whether records
// carry their source location.
type Config struct {
	Level     Level  `toml:"level"`
	Format    Format `toml:"format"`
	AddSource bool   `toml:"add_source"`
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
// Level and format values are matched case-insensitively.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	c.loadEnv(env)
	c.Level = Level(strings.ToLower(strings.TrimSpace(string(c.Level))))
	c.Format = Format(strings.ToLower(strings.TrimSpace(string(c.Format))))
	return c.validate()
}

func (c *Config) Merge(overlay *Config) {
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
	if overlay.AddSource {
		c.AddSource = true
	}
}

func (c *Config) loadDefaults() {
	if c.Level == "" {
		c.Level = LevelInfo
	}
	if c.Format == "" {
		c.Format = FormatText
	}
}

func (c *Config) loadEnv(env *Env) {
	if env == nil {
		return
	}
	if v := lookup(env.Level); v != "" {
		c.Level = Level(v)
	}
	if v := lookup(env.Format); v != "" {
		c.Format = Format(v)
	}
	if v := lookup(env.AddSource); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.AddSource = on
		}
	}
}

func (c *Config) validate() error {
	if err := c.Level.Validate(); err != nil {
		return err
	}
	return c.Format.Validate()
}

func lookup(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
