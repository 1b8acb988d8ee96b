package accesskeys

import "errors"

var (
	// ErrAgentRequired indicates the call did not name the agent the key belongs to.
	ErrAgentRequired = errors.New("agent id is required")

	ErrNameRequired   = errors.New("access key name is required")
	ErrExpiryRequired = errors.New("access key expiry is required")

	// ErrNoSecret indicates the service returned a key without its secret value.
	ErrNoSecret = errors.New("access key has no secret")
)
