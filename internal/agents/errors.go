package agents

import "errors"

// ErrValidation is matched by every failure detected before a remote call.
var ErrValidation = errors.New("validation failed")

var (
	ErrNotFound     = errors.New("agent not found")
	ErrRoleNotFound = errors.New("role not found")

	ErrMissingLLMKey       = validation("LLM API key is required when saving an agent")
	ErrMissingEmbeddingKey = validation("Embedding API key is required when saving an agent")
	ErrNotSaved            = validation("agent has not been saved to the backend")
	ErrRoleNameEmpty       = validation("role name is required")
	ErrRoleNameTaken       = validation("a role with this name already exists")
	ErrNameEmpty           = validation("agent name is required")
)

type validationError struct {
	msg string
}

func validation(msg string) error {
	return &validationError{msg: msg}
}

func (e *validationError) Error() string {
	return e.msg
}

func (e *validationError) Is(target error) bool {
	return target == ErrValidation
}
