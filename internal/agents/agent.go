// Package agents holds the in-memory agent model: agents with their roles and
// tri-state document lists, defaults, and translation to and from the
// Remote Agent Service representation.
package agents

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type ResponseFormat string

const (
	FormatText       ResponseFormat = "text"
	FormatStructured ResponseFormat = "structured"
)

// LastUpdatedLayout renders the local edit timestamp as a short day-first datetime.
const LastUpdatedLayout = "02.01.2006, 15:04"

// Model identifies the chat model an agent runs on.
type Model struct {
	Provider      string `json:"provider"`
	Name          string `json:"name"`
	GDPRCompliant bool   `json:"GDPR_compliant"`
	Description   string `json:"description"`
}

// Agent is the console's view of an agent. ID is local and stable for the
// session; RemoteID is assigned by the backend on first save.
//
// LLMAPIKey and EmbeddingAPIKey are held only in memory and never persisted
// or returned by the backend.
type Agent struct {
	ID                  string         `json:"id"`
	RemoteID            string         `json:"databaseId"`
	Name                string         `json:"name"`
	Description         string         `json:"description"`
	SystemPrompt        string         `json:"systemPrompt"`
	Temperature         float64        `json:"temperature"`
	MaxTokens           int            `json:"maxTokens"`
	Model               *Model         `json:"model"`
	EmbeddingModel      string         `json:"embeddingModel"`
	LLMAPIKey           *string        `json:"-"`
	EmbeddingAPIKey     *string        `json:"-"`
	Status              Status         `json:"status"`
	EnableMemory        bool           `json:"enableMemory"`
	EnableWebSearch     bool           `json:"enableWebSearch"`
	ResponseFormat      ResponseFormat `json:"responseFormat"`
	Documents           Documents      `json:"documents"`
	Roles               []Role         `json:"roles"`
	LastUpdated         string         `json:"lastUpdated"`
	Uploaded            bool           `json:"uploaded"`
	TopK                int            `json:"topK"`
	SimilarityThreshold float64        `json:"similarityThreshold"`
	HybridSearchAlpha   float64        `json:"hybridSearchAlpha"`
}

// Default returns an unsaved agent with documents not loaded.
func Default() Agent {
	return Agent{
		Name:                "unnamed agent",
		Temperature:         0.5,
		MaxTokens:           1000,
		Status:              StatusActive,
		ResponseFormat:      FormatText,
		Documents:           NotLoaded(),
		Roles:               []Role{},
		LastUpdated:         "unknown",
		TopK:                DefaultTopK,
		SimilarityThreshold: DefaultSimilarityThreshold,
		HybridSearchAlpha:   DefaultHybridSearchAlpha,
	}
}

// NewID returns a fresh local identifier for agents and roles.
func NewID() string {
	return uuid.NewString()
}

// Matches reports whether id is the agent's local or remote id.
func (a Agent) Matches(id string) bool {
	return id != "" && (a.ID == id || a.RemoteID == id)
}

// Saved reports whether the backend has assigned the agent an id.
func (a Agent) Saved() bool {
	return a.RemoteID != ""
}

// Clone returns a deep copy so callers can mutate it without touching shared state.
func (a Agent) Clone() Agent {
	if a.Model != nil {
		m := *a.Model
		a.Model = &m
	}
	a.LLMAPIKey = cloneString(a.LLMAPIKey)
	a.EmbeddingAPIKey = cloneString(a.EmbeddingAPIKey)
	if a.Documents.IsLoaded() {
		a.Documents = Loaded(a.Documents.items)
	}

	roles := make([]Role, len(a.Roles))
	for i, r := range a.Roles {
		roles[i] = r.Clone()
	}
	a.Roles = roles
	return a
}

// RoleIndex returns the index of the role with id, or -1.
func (a Agent) RoleIndex(id string) int {
	for i, r := range a.Roles {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// RemoveDocument drops docID from the document list and from every role's access list.
func (a *Agent) RemoveDocument(docID string) {
	if a.Documents.IsLoaded() {
		kept := make([]Document, 0, a.Documents.Len())
		for _, d := range a.Documents.items {
			if d.ID != docID {
				kept = append(kept, d)
			}
		}
		a.Documents = Documents{items: kept, loaded: true}
	}
	for i := range a.Roles {
		a.Roles[i].Revoke(docID)
	}
}

// Touch marks a local edit pending save.
func (a *Agent) Touch(now time.Time) {
	a.Uploaded = false
	a.LastUpdated = now.Format(LastUpdatedLayout)
}

// MaxTemperature is the highest temperature the agent's model accepts.
// The default provider allows up to 2; others up to 1.
func (a Agent) MaxTemperature() float64 {
	if a.Model != nil && strings.EqualFold(a.Model.Provider, defaultProvider) {
		return 2
	}
	return 1
}

// ClampTemperature lowers the temperature to the model's maximum and
// reports whether it changed.
func (a *Agent) ClampTemperature() bool {
	if limit := a.MaxTemperature(); a.Temperature > limit {
		a.Temperature = limit
		return true
	}
	return false
}

// UnassignedDocuments returns the listed documents no role has access to.
// Documents without an id are skipped.
func (a Agent) UnassignedDocuments() []Document {
	granted := map[string]struct{}{}
	for _, r := range a.Roles {
		for _, id := range r.DocumentAccess {
			granted[id] = struct{}{}
		}
	}

	out := []Document{}
	for _, d := range a.Documents.items {
		if d.ID == "" {
			continue
		}
		if _, ok := granted[d.ID]; !ok {
			out = append(out, d)
		}
	}
	return out
}

// SetKeys replaces the in-memory API keys. Empty values clear the key.
func (a *Agent) SetKeys(llmKey, embeddingKey string) {
	a.LLMAPIKey = optional(llmKey)
	a.EmbeddingAPIKey = optional(embeddingKey)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
