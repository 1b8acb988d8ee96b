// Package catalog lists the providers and models an agent can be configured with.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/JaimeStill/agent-console/internal/apikeys"
	"github.com/JaimeStill/agent-console/internal/backend"
)

// ErrMissingFields indicates a model query without a provider or API key.
var ErrMissingFields = errors.New("Missing required fields: provider and apiKey")

type Client interface {
	Providers(ctx context.Context) (backend.Providers, error)
	Models(ctx context.Context, provider, apiKey string) ([]string, error)
	EmbeddingModels(ctx context.Context, provider, apiKey string) ([]string, error)
}

// System defines catalog lookups. Model queries are authorized by the
// caller's provider API key, which is never logged.
type System interface {
	Providers(ctx context.Context) (backend.Providers, error)
	Models(ctx context.Context, provider, apiKey string) ([]string, error)
	EmbeddingModels(ctx context.Context, provider, apiKey string) ([]string, error)
}

type catalog struct {
	client Client
	logger *slog.Logger
}

func New(client Client, logger *slog.Logger) System {
	return &catalog{
		client: client,
		logger: logger.With("system", "catalog"),
	}
}

func (c *catalog) Providers(ctx context.Context) (backend.Providers, error) {
	p, err := c.client.Providers(ctx)
	if err != nil {
		return backend.Providers{}, err
	}
	if p.LLM == nil {
		p.LLM = []backend.Provider{}
	}
	if p.Embedding == nil {
		p.Embedding = []backend.Provider{}
	}
	return p, nil
}

func (c *catalog) Models(ctx context.Context, provider, apiKey string) ([]string, error) {
	provider, err := query(provider, apiKey)
	if err != nil {
		return nil, err
	}

	models, err := c.client.Models(ctx, provider, apiKey)
	if err != nil {
		return nil, fmt.Errorf("models for %s: %w", provider, err)
	}
	c.logger.Debug("models listed", "provider", provider, "count", len(models))
	return models, nil
}

// EmbeddingModels lists the embedding models available to apiKey. The
// provider is normalized to lower case.
func (c *catalog) EmbeddingModels(ctx context.Context, provider, apiKey string) ([]string, error) {
	provider, err := query(provider, apiKey)
	if err != nil {
		return nil, err
	}

	models, err := c.client.EmbeddingModels(ctx, provider, apiKey)
	if err != nil {
		return nil, fmt.Errorf("embedding models for %s: %w", provider, err)
	}
	c.logger.Debug("embedding models listed", "provider", provider, "count", len(models))
	return models, nil
}

func query(provider, apiKey string) (string, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" || apiKey == "" {
		return "", ErrMissingFields
	}
	return provider, nil
}

// FilterEmbeddingModels keeps the "provider:model" entries whose provider is
// in allowed, ignoring case. An empty allowed list keeps everything.
func FilterEmbeddingModels(models, allowed []string) []string {
	if len(allowed) == 0 {
		return slices.Clone(models)
	}

	keep := make(map[string]struct{}, len(allowed))
	for _, p := range allowed {
		keep[strings.ToLower(p)] = struct{}{}
	}

	out := make([]string, 0, len(models))
	for _, m := range models {
		provider, _, _ := strings.Cut(m, ":")
		if _, ok := keep[strings.ToLower(provider)]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Label renders "provider:model" as "provider: model". Other values are returned as is.
func Label(model string) string {
	provider, name, ok := strings.Cut(model, ":")
	if !ok || name == "" {
		return model
	}
	return provider + ": " + name
}

// ProvidersFor returns the providers a key with usage can be stored for.
// Both usages require a provider offering chat and embedding models; any
// other usage yields the union of both lists.
func ProvidersFor(p backend.Providers, usage apikeys.Usage) []backend.Provider {
	switch usage {
	case apikeys.UsageLLM:
		return slices.Clone(p.LLM)
	case apikeys.UsageEmbedding:
		return slices.Clone(p.Embedding)
	case apikeys.UsageBoth:
		out := []backend.Provider{}
		for _, llm := range p.LLM {
			if slices.ContainsFunc(p.Embedding, func(e backend.Provider) bool { return e.ID == llm.ID }) {
				out = append(out, llm)
			}
		}
		return out
	default:
		out := []backend.Provider{}
		seen := map[string]bool{}
		for _, item := range slices.Concat(p.LLM, p.Embedding) {
			if !seen[item.ID] {
				seen[item.ID] = true
				out = append(out, item)
			}
		}
		return out
	}
}

// ProviderLabels maps provider ids to their display labels. The first label seen wins.
func ProviderLabels(p backend.Providers) map[string]string {
	labels := map[string]string{}
	for _, item := range slices.Concat(p.LLM, p.Embedding) {
		if _, ok := labels[item.ID]; !ok {
			labels[item.ID] = item.Label
		}
	}
	return labels
}
