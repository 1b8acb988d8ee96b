package backend

import (
	"encoding/json"
	"fmt"

	"github.com/docker/go-units"
)

// Agent is the Remote Agent Service representation of an agent.
// API keys are write-only: the service never returns them.
type Agent struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	Prompt              string   `json:"prompt"`
	LLMProvider         string   `json:"llm_provider"`
	LLMModel            string   `json:"llm_model"`
	LLMTemperature      float64  `json:"llm_temperature"`
	LLMMaxTokens        int      `json:"llm_max_tokens"`
	LLMAPIKey           *string  `json:"llm_api_key"`
	AccessKey           []string `json:"access_key"`
	RetrievalMethod     string   `json:"retrieval_method,omitempty"`
	EmbeddingModel      string   `json:"embedding_model,omitempty"`
	EmbeddingAPIKey     *string  `json:"embedding_api_key"`
	Status              string   `json:"status,omitempty"`
	ResponseFormat      string   `json:"response_format"`
	EnableMemory        bool     `json:"enableMemory"`
	EnableWebSearch     bool     `json:"enableWebSearch"`
	LastUpdated         string   `json:"last_updated,omitempty"`
	Roles               []Role   `json:"roles"`
	TopK                *int     `json:"top_k,omitempty"`
	SimilarityThreshold *float64 `json:"similarity_threshold,omitempty"`
	HybridSearchAlpha   *float64 `json:"hybrid_search_alpha,omitempty"`
}

type Role struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	DocumentAccess []string `json:"document_access"`
}

type Document struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Size      Size   `json:"size,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Size is a display size the service reports either as text or as a byte count.
type Size string

func (s *Size) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = Size(text)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("size: %w", err)
	}
	*s = Size(units.HumanSize(n))
	return nil
}

type documentList struct {
	Documents []Document `json:"documents"`
}

// UploadResult is returned by an accepted upload. The service answers with
// either a task id to poll or the id of an already processed document.
type UploadResult struct {
	TaskID     string `json:"task_id,omitempty"`
	DocumentID string `json:"document_id,omitempty"`
}

// UploadStatus reports the processing state of an upload task.
type UploadStatus struct {
	Status     string `json:"status"`
	DocumentID string `json:"document_id,omitempty"`
	Message    string `json:"message,omitempty"`
}

// AccessKey is a credential that lets an external chat client call an agent.
type AccessKey struct {
	ID         string  `json:"id"`
	Key        *string `json:"key"`
	Name       string  `json:"name"`
	ExpiryDate *string `json:"expiry_date"`
	Created    *string `json:"created"`
	LastUse    *string `json:"last_use"`
}

// APIKey is a stored provider credential as listed by the service.
type APIKey struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Provider    string `json:"provider"`
	Usage       string `json:"usage"`
	RedactedKey string `json:"redacted_key"`
	CreatedAt   string `json:"created_at"`
}

// NewAPIKey is the payload for storing a provider credential.
type NewAPIKey struct {
	Label    string `json:"label"`
	Provider string `json:"provider"`
	Usage    string `json:"usage"`
	RawKey   string `json:"raw_key"`
}

// APIKeySecret carries the raw secret of a stored credential.
type APIKeySecret struct {
	ID     string `json:"id"`
	RawKey string `json:"raw_key"`
}

type Provider struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Providers lists the providers available for chat models and embeddings.
type Providers struct {
	LLM       []Provider `json:"llm"`
	Embedding []Provider `json:"embedding"`
}

type modelQuery struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
}
