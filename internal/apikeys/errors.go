package apikeys

import "errors"

// Domain errors for the API key system.
var (
	// ErrIncomplete indicates a new key is missing its label, secret, provider, or usage.
	ErrIncomplete = errors.New("please complete all fields before saving")

	// ErrInvalidUsage indicates the usage is not llm, embedding, or both.
	ErrInvalidUsage = errors.New("usage must be llm, embedding, or both")

	// ErrIDRequired indicates a lookup without a key id.
	ErrIDRequired = errors.New("api key id is required")
)
