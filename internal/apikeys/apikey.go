package apikeys

import (
	"strings"

	"github.com/JaimeStill/agent-console/internal/backend"
)

// Usage states which model kinds a stored credential may be used for.
type Usage string

const (
	UsageLLM       Usage = "llm"
	UsageEmbedding Usage = "embedding"
	UsageBoth      Usage = "both"
)

func (u Usage) Valid() bool {
	switch u {
	case UsageLLM, UsageEmbedding, UsageBoth:
		return true
	default:
		return false
	}
}

// Describe returns the display text for the usage.
func (u Usage) Describe() string {
	switch u {
	case UsageLLM:
		return "LLM models"
	case UsageEmbedding:
		return "Embedding models"
	case UsageBoth:
		return "LLM and embedding"
	default:
		return string(u)
	}
}

// CreateCommand contains the data required to store a provider credential.
type CreateCommand struct {
	Label    string
	Provider string
	Usage    Usage
	RawKey   string
}

// normalize trims the command and checks that every field is present.
func (c CreateCommand) normalize() (backend.NewAPIKey, error) {
	key := backend.NewAPIKey{
		Label:    strings.TrimSpace(c.Label),
		Provider: strings.TrimSpace(c.Provider),
		Usage:    strings.TrimSpace(string(c.Usage)),
		RawKey:   strings.TrimSpace(c.RawKey),
	}
	if key.Label == "" || key.RawKey == "" || key.Provider == "" || key.Usage == "" {
		return backend.NewAPIKey{}, ErrIncomplete
	}
	if !Usage(key.Usage).Valid() {
		return backend.NewAPIKey{}, ErrInvalidUsage
	}
	return key, nil
}
