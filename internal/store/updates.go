package store

import (
	"context"

	"github.com/JaimeStill/agent-console/internal/agents"
)

// SetAgents replaces the collection with fn applied to a copy of it.
func (s *Store) SetAgents(ctx context.Context, fn func([]agents.Agent) []agents.Agent) error {
	return s.dispatch(ctx, func(list []agents.Agent) ([]agents.Agent, error) {
		next := fn(list)
		if next == nil {
			next = []agents.Agent{}
		}
		return next, nil
	})
}

// SetAgent transforms one agent. An unknown id is a no-op.
func (s *Store) SetAgent(ctx context.Context, id string, fn func(agents.Agent) agents.Agent) error {
	return s.dispatch(ctx, func(list []agents.Agent) ([]agents.Agent, error) {
		if i := indexOf(list, id); i >= 0 {
			list[i] = fn(list[i])
		}
		return list, nil
	})
}

// SetDocuments transforms one agent's documents. A list that is not loaded
// is presented to fn as empty, and the result is always loaded.
func (s *Store) SetDocuments(ctx context.Context, id string, fn func([]agents.Document) []agents.Document) error {
	return s.SetAgent(ctx, id, func(a agents.Agent) agents.Agent {
		current := a.Documents.Items()
		if current == nil {
			current = []agents.Document{}
		}
		a.Documents = agents.Loaded(fn(current))
		return a
	})
}

func (s *Store) SetRoles(ctx context.Context, id string, fn func([]agents.Role) []agents.Role) error {
	return s.SetAgent(ctx, id, func(a agents.Agent) agents.Agent {
		a.Roles = fn(a.Roles)
		if a.Roles == nil {
			a.Roles = []agents.Role{}
		}
		return a
	})
}

// SetRole transforms one role of one agent. Unknown ids are a no-op.
func (s *Store) SetRole(ctx context.Context, agentID, roleID string, fn func(agents.Role) agents.Role) error {
	return s.SetAgent(ctx, agentID, func(a agents.Agent) agents.Agent {
		if i := a.RoleIndex(roleID); i >= 0 {
			a.Roles[i] = fn(a.Roles[i])
		}
		return a
	})
}

// Touch marks an agent as edited locally and pending save.
func (s *Store) Touch(ctx context.Context, id string) error {
	return s.SetAgent(ctx, id, func(a agents.Agent) agents.Agent {
		a.Touch(s.now())
		return a
	})
}

// PutRole adds role when its id is empty and replaces the existing role
// otherwise. The name is validated against the agent's current roles inside
// the command, so a rejected name leaves the state untouched.
func (s *Store) PutRole(ctx context.Context, agentID string, role agents.Role) (agents.Role, error) {
	var stored agents.Role
	err := s.dispatch(ctx, func(list []agents.Agent) ([]agents.Agent, error) {
		i := indexOf(list, agentID)
		if i < 0 {
			return nil, agents.ErrNotFound
		}
		a := &list[i]

		name, err := agents.ValidateRoleName(a.Roles, role.Name, role.ID)
		if err != nil {
			return nil, err
		}
		role.Name = name
		role = role.Clone()

		if role.ID == "" {
			role.ID = agents.NewID()
			a.Roles = append(a.Roles, role)
		} else {
			j := a.RoleIndex(role.ID)
			if j < 0 {
				return nil, agents.ErrRoleNotFound
			}
			a.Roles[j] = role
		}

		a.Touch(s.now())
		stored = role.Clone()
		return list, nil
	})
	return stored, err
}

func (s *Store) RemoveRole(ctx context.Context, agentID, roleID string) error {
	return s.dispatch(ctx, func(list []agents.Agent) ([]agents.Agent, error) {
		i := indexOf(list, agentID)
		if i < 0 {
			return nil, agents.ErrNotFound
		}
		a := &list[i]

		j := a.RoleIndex(roleID)
		if j < 0 {
			return nil, agents.ErrRoleNotFound
		}
		a.Roles = append(a.Roles[:j], a.Roles[j+1:]...)
		a.Touch(s.now())
		return list, nil
	})
}
