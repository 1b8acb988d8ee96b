package apikeys

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JaimeStill/agent-console/internal/backend"
)

type repository struct {
	client Client
	logger *slog.Logger
}

// New creates an API key system backed by client.
func New(client Client, logger *slog.Logger) System {
	return &repository{
		client: client,
		logger: logger.With("system", "apikeys"),
	}
}

func (r *repository) List(ctx context.Context) ([]backend.APIKey, error) {
	return r.client.ListAPIKeys(ctx)
}

func (r *repository) Create(ctx context.Context, cmd CreateCommand) (backend.APIKey, error) {
	key, err := cmd.normalize()
	if err != nil {
		return backend.APIKey{}, err
	}

	created, err := r.client.CreateAPIKey(ctx, key)
	if err != nil {
		return backend.APIKey{}, err
	}

	r.logger.Info("api key created",
		"id", created.ID,
		"label", key.Label,
		"provider", key.Provider,
		"usage", key.Usage,
	)
	return created, nil
}

func (r *repository) Secret(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrIDRequired
	}

	secret, err := r.client.APIKeySecret(ctx, id)
	if err != nil {
		return "", fmt.Errorf("api key %s: %w", id, err)
	}
	return secret.RawKey, nil
}
