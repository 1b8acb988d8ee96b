package agents

import (
	"slices"
	"strings"
)

// Role is a named sub-persona of an agent with a restricted view of its documents.
type Role struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Prompt         string   `json:"prompt"`
	DocumentAccess []string `json:"documentAccess"`
}

// Grant adds docID to the role's document access. Duplicates are ignored.
func (r *Role) Grant(docID string) {
	if !slices.Contains(r.DocumentAccess, docID) {
		r.DocumentAccess = append(r.DocumentAccess, docID)
	}
}

func (r *Role) Revoke(docID string) {
	r.DocumentAccess = slices.DeleteFunc(r.DocumentAccess, func(id string) bool {
		return id == docID
	})
}

func (r Role) Clone() Role {
	r.DocumentAccess = slices.Clone(r.DocumentAccess)
	if r.DocumentAccess == nil {
		r.DocumentAccess = []string{}
	}
	return r
}

// ValidateRoleName checks that name is non-empty and unique among roles,
// ignoring case and surrounding whitespace. The role with excludeID is
// skipped so a role can keep its own name when edited. It returns the
// trimmed name.
func ValidateRoleName(roles []Role, name, excludeID string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrRoleNameEmpty
	}

	key := strings.ToLower(trimmed)
	for _, role := range roles {
		if role.ID == excludeID {
			continue
		}
		if strings.ToLower(strings.TrimSpace(role.Name)) == key {
			return "", ErrRoleNameTaken
		}
	}
	return trimmed, nil
}
