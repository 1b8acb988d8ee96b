package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/agent-console/internal/agents"
	"github.com/JaimeStill/agent-console/internal/backend"
)

// NewAgent holds the fields supplied when creating an agent.
type NewAgent struct {
	Name            string
	Description     string
	EmbeddingModel  string
	Model           *agents.Model
	LLMAPIKey       string
	EmbeddingAPIKey string
}

// CreateAgent saves a new agent with a default role named after it and adds
// it to the collection. The local id stays stable; the remote id comes back
// from the backend.
func (s *Store) CreateAgent(ctx context.Context, in NewAgent) (agents.Agent, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return agents.Agent{}, agents.ErrNameEmpty
	}

	a := agents.Default()
	a.ID = agents.NewID()
	a.Name = name
	a.Description = in.Description
	a.EmbeddingModel = in.EmbeddingModel
	if in.Model != nil {
		m := *in.Model
		a.Model = &m
	}
	a.SetKeys(in.LLMAPIKey, in.EmbeddingAPIKey)
	a.Roles = []agents.Role{{
		ID:             agents.NewID(),
		Name:           name,
		DocumentAccess: []string{},
	}}

	payload, err := agents.ToBackend(a)
	if err != nil {
		return agents.Agent{}, err
	}

	saved, err := s.client.SaveAgent(ctx, payload)
	if err != nil {
		return agents.Agent{}, err
	}

	created := agents.FromBackend(saved)
	created.ID = a.ID
	created.LLMAPIKey = a.LLMAPIKey
	created.EmbeddingAPIKey = a.EmbeddingAPIKey
	if created.Model == nil || created.Model.Name == "" {
		created.Model = a.Model
	}

	err = s.SetAgents(ctx, func(list []agents.Agent) []agents.Agent {
		return append(list, created)
	})
	if err != nil {
		return agents.Agent{}, err
	}

	s.logger.Info("agent created", "id", created.ID, "remote_id", created.RemoteID)
	return created.Clone(), nil
}

// SaveAgent sends the agent's current state to the backend. Missing API
// keys fail before any network call. Local edits made while the save was in
// flight are kept; only the remote id and the uploaded flag are merged back.
func (s *Store) SaveAgent(ctx context.Context, id string) (agents.Agent, error) {
	a, ok := s.Agent(id)
	if !ok {
		return agents.Agent{}, agents.ErrNotFound
	}

	payload, err := agents.ToBackend(a)
	if err != nil {
		return agents.Agent{}, err
	}

	saved, err := s.client.SaveAgent(ctx, payload)
	if err != nil {
		return agents.Agent{}, err
	}

	var result agents.Agent
	err = s.SetAgent(ctx, a.ID, func(cur agents.Agent) agents.Agent {
		if saved.ID != "" {
			cur.RemoteID = saved.ID
		}
		if saved.LastUpdated != "" {
			cur.LastUpdated = saved.LastUpdated
		}
		cur.Uploaded = true
		result = cur.Clone()
		return cur
	})
	if err != nil {
		return agents.Agent{}, err
	}

	s.logger.Info("agent saved", "id", result.ID, "remote_id", result.RemoteID)
	return result, nil
}

// DeleteAgent deletes the agent remotely and removes it locally on success.
// An agent that was never saved is only removed locally.
func (s *Store) DeleteAgent(ctx context.Context, id string) error {
	a, ok := s.Agent(id)
	if !ok {
		return agents.ErrNotFound
	}

	if a.Saved() {
		if err := s.client.DeleteAgent(ctx, a.RemoteID); err != nil {
			return err
		}
	}

	err := s.SetAgents(ctx, func(list []agents.Agent) []agents.Agent {
		out := list[:0]
		for _, x := range list {
			if x.ID != a.ID {
				out = append(out, x)
			}
		}
		return out
	})
	if err == nil {
		s.logger.Info("agent deleted", "id", a.ID, "remote_id", a.RemoteID)
	}
	return err
}

// LoadDocuments fetches an agent's documents unless they are already loaded.
// Fetch failures settle the list to loaded and empty instead of failing.
func (s *Store) LoadDocuments(ctx context.Context, id string) ([]agents.Document, error) {
	a, ok := s.Agent(id)
	if !ok {
		return nil, agents.ErrNotFound
	}
	if a.Documents.IsLoaded() {
		return a.Documents.Items(), nil
	}
	return s.fetchDocuments(ctx, a)
}

// RefreshDocuments replaces an agent's documents with the backend's list.
// On failure the current list is kept, or settled to empty if not yet loaded.
func (s *Store) RefreshDocuments(ctx context.Context, id string) ([]agents.Document, error) {
	a, ok := s.Agent(id)
	if !ok {
		return nil, agents.ErrNotFound
	}
	return s.fetchDocuments(ctx, a)
}

func (s *Store) fetchDocuments(ctx context.Context, a agents.Agent) ([]agents.Document, error) {
	if !a.Saved() {
		if err := s.SetDocuments(ctx, a.ID, func(cur []agents.Document) []agents.Document { return cur }); err != nil {
			return nil, err
		}
		return []agents.Document{}, nil
	}

	v, err, _ := s.docLoads.Do(a.ID, func() (any, error) {
		remote, err := s.client.ListDocuments(ctx, a.RemoteID)
		if err != nil {
			s.logger.Warn("document load failed", "agent", a.ID, "error", err)
			return nil, s.SetDocuments(ctx, a.ID, func(cur []agents.Document) []agents.Document { return cur })
		}

		docs := agents.DocumentsFromBackend(remote)
		if err := s.SetDocuments(ctx, a.ID, func([]agents.Document) []agents.Document { return docs }); err != nil {
			return nil, err
		}
		return docs, nil
	})
	if err != nil {
		return nil, err
	}

	if docs, ok := v.([]agents.Document); ok {
		return append([]agents.Document{}, docs...), nil
	}
	cur, _ := s.Agent(a.ID)
	return cur.Documents.Items(), nil
}

// optimistic describes a local mutation that is applied before its remote
// call and undone from the captured snapshot if the call fails.
type optimistic struct {
	agentID string
	apply   func(*agents.Agent)
	remote  func(ctx context.Context, snapshot agents.Agent) error
	restore func(ctx context.Context, snapshot agents.Agent)
}

// withOptimisticUpdate captures the agent and applies the mutation in one
// command, then runs the remote call. On failure restore receives the
// pre-mutation snapshot and the remote error is returned.
func (s *Store) withOptimisticUpdate(ctx context.Context, op optimistic) error {
	var snapshot agents.Agent
	err := s.dispatch(ctx, func(list []agents.Agent) ([]agents.Agent, error) {
		i := indexOf(list, op.agentID)
		if i < 0 {
			return nil, agents.ErrNotFound
		}
		snapshot = list[i].Clone()
		op.apply(&list[i])
		return list, nil
	})
	if err != nil {
		return err
	}

	if err := op.remote(ctx, snapshot); err != nil {
		op.restore(context.WithoutCancel(ctx), snapshot)
		return err
	}
	return nil
}

// DeleteDocument removes a document and every role's access to it before
// calling the backend. If the backend rejects the delete, the document list
// is reloaded and the roles are restored from the pre-delete snapshot.
// Local placeholders are removed without a remote call.
func (s *Store) DeleteDocument(ctx context.Context, agentID, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("%w: document id is required", agents.ErrValidation)
	}

	err := s.withOptimisticUpdate(ctx, optimistic{
		agentID: agentID,
		apply: func(a *agents.Agent) {
			a.RemoveDocument(documentID)
		},
		remote: func(ctx context.Context, snapshot agents.Agent) error {
			if strings.HasPrefix(documentID, agents.TempIDPrefix) {
				return nil
			}
			if !snapshot.Saved() {
				return agents.ErrNotSaved
			}
			return s.client.DeleteDocument(ctx, snapshot.RemoteID, documentID)
		},
		restore: func(ctx context.Context, snapshot agents.Agent) {
			s.restoreAfterDelete(ctx, snapshot)
		},
	})
	if err != nil {
		s.logger.Warn("document delete failed", "agent", agentID, "document", documentID, "error", err)
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}

	s.logger.Info("document deleted", "agent", agentID, "document", documentID)
	return s.Touch(ctx, agentID)
}

func (s *Store) restoreAfterDelete(ctx context.Context, snapshot agents.Agent) {
	var (
		docs     []agents.Document
		fetchErr error
	)
	if snapshot.Saved() {
		var remote []backend.Document
		remote, fetchErr = s.client.ListDocuments(ctx, snapshot.RemoteID)
		if fetchErr == nil {
			docs = agents.DocumentsFromBackend(remote)
		}
	} else {
		fetchErr = agents.ErrNotSaved
	}

	err := s.SetAgent(ctx, snapshot.ID, func(cur agents.Agent) agents.Agent {
		cur.Roles = snapshot.Clone().Roles
		if fetchErr == nil {
			cur.Documents = agents.Loaded(docs)
		} else {
			cur.Documents = snapshot.Clone().Documents
		}
		return cur
	})
	if err != nil {
		s.logger.Error("rollback not applied", "agent", snapshot.ID, "error", err)
		return
	}
	if fetchErr != nil {
		s.logger.Warn("document reload failed during rollback, restored snapshot", "agent", snapshot.ID, "error", fetchErr)
	}
}
