package agents

import (
	"fmt"
	"strings"
	"time"

	"github.com/JaimeStill/agent-console/internal/backend"
)

const (
	DefaultTopK                = 5
	DefaultSimilarityThreshold = 0.5
	DefaultHybridSearchAlpha   = 0.75

	defaultProvider        = "idun"
	defaultModel           = "none"
	defaultRetrievalMethod = "semantic"
)

// FromBackend translates a backend agent. Documents start not loaded, roles
// receive positional ids, and API keys are left unset.
func FromBackend(b backend.Agent) Agent {
	a := Agent{
		ID:           b.ID,
		RemoteID:     b.ID,
		Name:         b.Name,
		Description:  b.Description,
		SystemPrompt: b.Prompt,
		Temperature:  b.LLMTemperature,
		MaxTokens:    b.LLMMaxTokens,
		Model: &Model{
			Provider:      b.LLMProvider,
			Name:          b.LLMModel,
			GDPRCompliant: true,
		},
		EmbeddingModel:      b.EmbeddingModel,
		Status:              Status(b.Status),
		EnableMemory:        b.EnableMemory,
		EnableWebSearch:     b.EnableWebSearch,
		ResponseFormat:      ResponseFormat(b.ResponseFormat),
		Documents:           NotLoaded(),
		Roles:               make([]Role, len(b.Roles)),
		LastUpdated:         b.LastUpdated,
		Uploaded:            true,
		TopK:                DefaultTopK,
		SimilarityThreshold: DefaultSimilarityThreshold,
		HybridSearchAlpha:   DefaultHybridSearchAlpha,
	}

	if a.Status == "" {
		a.Status = StatusInactive
	}
	if a.ResponseFormat == "" {
		a.ResponseFormat = FormatText
	}
	if a.LastUpdated == "" {
		a.LastUpdated = "unknown"
	}
	if b.TopK != nil {
		a.TopK = *b.TopK
	}
	if b.SimilarityThreshold != nil {
		a.SimilarityThreshold = *b.SimilarityThreshold
	}
	if b.HybridSearchAlpha != nil {
		a.HybridSearchAlpha = *b.HybridSearchAlpha
	}

	for i, r := range b.Roles {
		access := append([]string{}, r.DocumentAccess...)
		a.Roles[i] = Role{
			ID:             fmt.Sprintf("role-%d", i+1),
			Name:           r.Name,
			Prompt:         r.Description,
			DocumentAccess: access,
		}
	}
	return a
}

// ToBackend translates an agent for saving. Both API keys must be present
// after trimming; the check runs before anything is sent.
func ToBackend(a Agent) (backend.Agent, error) {
	llmKey := trimmed(a.LLMAPIKey)
	if llmKey == "" {
		return backend.Agent{}, ErrMissingLLMKey
	}
	embeddingKey := trimmed(a.EmbeddingAPIKey)
	if embeddingKey == "" {
		return backend.Agent{}, ErrMissingEmbeddingKey
	}

	provider, model := defaultProvider, defaultModel
	if a.Model != nil {
		if a.Model.Provider != "" {
			provider = a.Model.Provider
		}
		if a.Model.Name != "" {
			model = a.Model.Name
		}
	}

	roles := make([]backend.Role, len(a.Roles))
	for i, r := range a.Roles {
		access := append([]string{}, r.DocumentAccess...)
		roles[i] = backend.Role{
			Name:           r.Name,
			Description:    r.Prompt,
			DocumentAccess: access,
		}
	}

	topK, similarity, alpha := a.TopK, a.SimilarityThreshold, a.HybridSearchAlpha
	return backend.Agent{
		ID:                  a.RemoteID,
		Name:                a.Name,
		Description:         a.Description,
		Prompt:              a.SystemPrompt,
		LLMProvider:         provider,
		LLMModel:            model,
		LLMTemperature:      a.Temperature,
		LLMMaxTokens:        a.MaxTokens,
		LLMAPIKey:           &llmKey,
		AccessKey:           []string{},
		RetrievalMethod:     defaultRetrievalMethod,
		EmbeddingModel:      a.EmbeddingModel,
		EmbeddingAPIKey:     &embeddingKey,
		Status:              string(a.Status),
		ResponseFormat:      string(a.ResponseFormat),
		EnableMemory:        a.EnableMemory,
		EnableWebSearch:     a.EnableWebSearch,
		LastUpdated:         a.LastUpdated,
		Roles:               roles,
		TopK:                &topK,
		SimilarityThreshold: &similarity,
		HybridSearchAlpha:   &alpha,
	}, nil
}

// DocumentFromBackend translates a listed document. Listed documents are always ready.
func DocumentFromBackend(d backend.Document) Document {
	size := string(d.Size)
	if size == "" {
		size = "Unknown"
	}
	return Document{
		ID:         d.ID,
		Name:       d.Name,
		Type:       DocumentType(d.Name),
		Size:       size,
		UploadDate: uploadDate(d.CreatedAt),
		Status:     StatusReady,
	}
}

func DocumentsFromBackend(docs []backend.Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = DocumentFromBackend(d)
	}
	return out
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

func uploadDate(createdAt string) string {
	if createdAt == "" {
		return "Unknown"
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, createdAt); err == nil {
			return t.UTC().Format(time.DateOnly)
		}
	}
	return "Unknown"
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
