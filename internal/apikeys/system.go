// Package apikeys manages provider credentials stored by the Remote Agent
// Service. Listed keys are redacted; the raw secret is fetched by id only
// when an agent is saved.
package apikeys

import (
	"context"

	"github.com/JaimeStill/agent-console/internal/backend"
)

// Client is the subset of the Remote Agent Service used for API keys.
type Client interface {
	ListAPIKeys(ctx context.Context) ([]backend.APIKey, error)
	CreateAPIKey(ctx context.Context, key backend.NewAPIKey) (backend.APIKey, error)
	APIKeySecret(ctx context.Context, keyID string) (backend.APIKeySecret, error)
}

// System defines the interface for provider credential management.
type System interface {
	// List returns every stored key with its secret redacted.
	List(ctx context.Context) ([]backend.APIKey, error)

	// Create validates and stores a new credential.
	// Returns ErrIncomplete or ErrInvalidUsage before any remote call.
	Create(ctx context.Context, cmd CreateCommand) (backend.APIKey, error)

	// Secret returns the raw key for id. Callers must not log it.
	Secret(ctx context.Context, id string) (string, error)
}
