// Package accesskeys manages the keys that let the chat website talk to an
// agent, including the short-lived key used to test an agent from the console.
package accesskeys

import (
	"context"
	"net/url"
	"time"

	"github.com/JaimeStill/agent-console/internal/backend"
)

// TestKeyName names the key minted for testing an agent.
const TestKeyName = "Test-Access-Key"

// Client is the subset of the Remote Agent Service used for access keys.
type Client interface {
	ListAccessKeys(ctx context.Context, agentID string) ([]backend.AccessKey, error)
	CreateAccessKey(ctx context.Context, agentID, name string, expiry time.Time) (backend.AccessKey, error)
	RevokeAccessKey(ctx context.Context, agentID, accessKeyID string) error
}

// System defines access key operations. Agent ids are remote ids.
type System interface {
	List(ctx context.Context, agentID string) ([]backend.AccessKey, error)

	// Create mints a named key expiring at expiry.
	Create(ctx context.Context, agentID, name string, expiry time.Time) (backend.AccessKey, error)

	Revoke(ctx context.Context, agentID, accessKeyID string) error

	// TestKey returns a usable test key for the agent. A cached key is reused
	// while it is unexpired and still listed; otherwise the stale key is
	// revoked best-effort and a new one expiring in two days is minted.
	TestKey(ctx context.Context, agentID string) (backend.AccessKey, error)
}

// ChatURL returns the chat website address that opens the agent with key.
func ChatURL(baseURL, agentID, key string) string {
	return baseURL + "/" + url.PathEscape(agentID) + "?" + url.Values{"key": {key}}.Encode()
}
