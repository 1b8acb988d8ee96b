package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JaimeStill/agent-console/internal/backend"
	"github.com/JaimeStill/agent-console/internal/lifecycle"
	"github.com/JaimeStill/agent-console/internal/store"
	"github.com/JaimeStill/agent-console/pkg/logging"
)

var errBackend = errors.New("backend unavailable")

type fakeBackend struct {
	mu sync.Mutex

	agents    []backend.Agent
	listGate  chan struct{}
	listErr   error
	saveErr   error
	deleteErr error

	documents    map[string][]backend.Document
	docsErr      error
	deleteDocErr error

	saves      int
	docLists   int
	docDeletes []string
}

func (f *fakeBackend) ListAgents(ctx context.Context) ([]backend.Agent, error) {
	if f.listGate != nil {
		<-f.listGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]backend.Agent{}, f.agents...), nil
}

func (f *fakeBackend) SaveAgent(ctx context.Context, a backend.Agent) (backend.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return backend.Agent{}, f.saveErr
	}
	if a.ID == "" {
		a.ID = "remote-1"
	}
	a.LLMAPIKey = nil
	a.EmbeddingAPIKey = nil
	return a, nil
}

func (f *fakeBackend) DeleteAgent(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteErr
}

func (f *fakeBackend) ListDocuments(ctx context.Context, agentID string) ([]backend.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docLists++
	if f.docsErr != nil {
		return nil, f.docsErr
	}
	return append([]backend.Document{}, f.documents[agentID]...), nil
}

func (f *fakeBackend) DeleteDocument(ctx context.Context, agentID, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docDeletes = append(f.docDeletes, documentID)
	return f.deleteDocErr
}

func (f *fakeBackend) set(fn func(f *fakeBackend)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func startStore(t *testing.T, fake *fakeBackend) (*store.Store, *lifecycle.Coordinator) {
	t.Helper()

	s := store.New(fake, logging.Discard())
	if !s.Loading() {
		t.Fatal("Loading() = false before start")
	}

	lc := lifecycle.New()
	if err := s.Start(lc); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	lc.WaitForStartup()

	t.Cleanup(func() {
		lc.Shutdown(time.Second)
	})
	return s, lc
}
