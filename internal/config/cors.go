package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	// EnvProxyOrigins overrides the browser origins allowed to call /api (comma-separated).
	EnvProxyOrigins = "PROXY_ORIGINS"

	// EnvProxyCredentials overrides whether browsers may send the session cookie cross-origin.
	EnvProxyCredentials = "PROXY_CREDENTIALS"

	// EnvProxyPreflightMaxAge overrides how long browsers cache a preflight answer.
	EnvProxyPreflightMaxAge = "PROXY_PREFLIGHT_MAX_AGE"
)

// AnyOrigin allows every origin. It cannot be combined with credentials.
const AnyOrigin = "*"

// Methods and headers the /api routes accept from a browser. Sessions ride
// on the session cookie or an Authorization header.
var (
	proxyMethods = []string{"GET", "POST"}
	proxyHeaders = []string{"Content-Type", "Authorization"}
)

// CORSConfig controls which browser origins may call the proxy routes.
// An empty origin list disables cross-origin access.
type CORSConfig struct {
	Origins     []string `toml:"origins"`
	Credentials *bool    `toml:"credentials"`
	MaxAge      string   `toml:"preflight_max_age"`
}

// Enabled reports whether any origin is allowed.
func (c *CORSConfig) Enabled() bool {
	return len(c.Origins) > 0
}

// Allows reports whether origin may call the proxy.
func (c *CORSConfig) Allows(origin string) bool {
	if origin == "" {
		return false
	}
	return c.AnyOrigin() || slices.Contains(c.Origins, origin)
}

// AnyOrigin reports whether the wildcard origin is configured.
func (c *CORSConfig) AnyOrigin() bool {
	return slices.Contains(c.Origins, AnyOrigin)
}

// AllowCredentials reports whether the session cookie is accepted
// cross-origin. It defaults to true.
func (c *CORSConfig) AllowCredentials() bool {
	return c.Credentials == nil || *c.Credentials
}

func (c *CORSConfig) Methods() []string { return proxyMethods }
func (c *CORSConfig) Headers() []string { return proxyHeaders }

// MaxAgeSeconds returns the preflight cache lifetime in whole seconds.
func (c *CORSConfig) MaxAgeSeconds() int {
	d, _ := time.ParseDuration(c.MaxAge)
	return int(d / time.Second)
}

// Finalize applies defaults, loads environment overrides, and validates the CORS configuration.
func (c *CORSConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values set in overlay. An empty but present origin list
// clears the base list.
func (c *CORSConfig) Merge(overlay *CORSConfig) {
	if overlay.Origins != nil {
		c.Origins = overlay.Origins
	}
	if overlay.Credentials != nil {
		v := *overlay.Credentials
		c.Credentials = &v
	}
	if overlay.MaxAge != "" {
		c.MaxAge = overlay.MaxAge
	}
}

func (c *CORSConfig) loadDefaults() {
	if c.MaxAge == "" {
		c.MaxAge = "1h"
	}
}

func (c *CORSConfig) loadEnv() {
	if v, ok := os.LookupEnv(EnvProxyOrigins); ok {
		c.Origins = []string{}
		for part := range strings.SplitSeq(v, ",") {
			if origin := strings.TrimRight(strings.TrimSpace(part), "/"); origin != "" {
				c.Origins = append(c.Origins, origin)
			}
		}
	}
	if v := os.Getenv(EnvProxyCredentials); v != "" {
		if creds, err := strconv.ParseBool(v); err == nil {
			c.Credentials = &creds
		}
	}
	if v := os.Getenv(EnvProxyPreflightMaxAge); v != "" {
		c.MaxAge = v
	}
}

func (c *CORSConfig) validate() error {
	d, err := time.ParseDuration(c.MaxAge)
	if err != nil {
		return fmt.Errorf("invalid preflight_max_age: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("preflight_max_age must not be negative")
	}
	if c.AllowCredentials() && c.AnyOrigin() {
		return fmt.Errorf("origin %q cannot be used with credentials", AnyOrigin)
	}
	return nil
}
