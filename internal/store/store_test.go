package store_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/JaimeStill/agent-console/internal/agents"
	"github.com/JaimeStill/agent-console/internal/backend"
	"github.com/JaimeStill/agent-console/internal/lifecycle"
	"github.com/JaimeStill/agent-console/internal/store"
	"github.com/JaimeStill/agent-console/pkg/logging"
)

func withDocs(fake *fakeBackend) *fakeBackend {
	fake.agents = []backend.Agent{{
		ID:   "a1",
		Name: "X",
		Roles: []backend.Role{
			{Name: "Support", DocumentAccess: []string{"d1", "d2"}},
			{Name: "Sales", DocumentAccess: []string{"d1"}},
		},
	}}
	fake.documents = map[string][]backend.Document{
		"a1": {{ID: "d1", Name: "a.pdf"}, {ID: "d2", Name: "b.txt"}},
	}
	return fake
}

func TestStore_InitialLoad(t *testing.T) {
	fake := &fakeBackend{agents: []backend.Agent{{ID: "a1", Name: "X", Roles: []backend.Role{}}}}
	s, _ := startStore(t, fake)

	select {
	case <-s.Loaded():
	default:
		t.Fatal("Loaded() not closed after startup")
	}
	if s.Loading() {
		t.Error("Loading() = true after initial load")
	}

	list := s.Agents()
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}
	if list[0].RemoteID != "a1" {
		t.Errorf("RemoteID = %q, want a1", list[0].RemoteID)
	}
	if list[0].Documents.IsLoaded() {
		t.Error("documents should not be loaded after bulk fetch")
	}
}

func TestStore_InitialLoadFailure(t *testing.T) {
	s, _ := startStore(t, &fakeBackend{listErr: errBackend})

	if s.Loading() {
		t.Error("Loading() = true after failed load")
	}
	if list := s.Agents(); list == nil || len(list) != 0 {
		t.Errorf("Agents() = %v, want empty", list)
	}
}

func TestStore_InitialLoadKeepsEarlyAgents(t *testing.T) {
	fake := &fakeBackend{
		agents:   []backend.Agent{{ID: "a1", Name: "X"}},
		listGate: make(chan struct{}),
	}

	s := store.New(fake, logging.Discard())
	lc := lifecycle.New()
	if err := s.Start(lc); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	t.Cleanup(func() {
		close(fake.listGate)
		lc.Shutdown(time.Second)
	})

	local := agents.Default()
	local.ID = "local-1"
	err := s.SetAgents(context.Background(), func(list []agents.Agent) []agents.Agent {
		return append(list, local)
	})
	if err != nil {
		t.Fatalf("SetAgents() failed: %v", err)
	}

	fake.listGate <- struct{}{}
	<-s.Loaded()

	var ids []string
	for _, a := range s.Agents() {
		ids = append(ids, a.ID)
	}
	if !slices.Equal(ids, []string{"local-1", "a1"}) {
		t.Errorf("ids = %v, want local-1 kept alongside a1", ids)
	}
}

func TestStore_DocumentsNeverReturnToNotLoaded(t *testing.T) {
	tests := []struct {
		name    string
		docsErr error
		want    int
	}{
		{"fetch success", nil, 2},
		{"fetch failure", errBackend, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := withDocs(&fakeBackend{docsErr: tt.docsErr})
			s, _ := startStore(t, fake)
			ctx := context.Background()

			docs, err := s.LoadDocuments(ctx, "a1")
			if err != nil {
				t.Fatalf("LoadDocuments() failed: %v", err)
			}
			if len(docs) != tt.want {
				t.Errorf("len = %d, want %d", len(docs), tt.want)
			}

			a, _ := s.Agent("a1")
			if !a.Documents.IsLoaded() {
				t.Fatal("documents not loaded after fetch")
			}

			err = s.SetAgent(ctx, "a1", func(a agents.Agent) agents.Agent {
				a.Documents = agents.NotLoaded()
				return a
			})
			if err != nil {
				t.Fatalf("SetAgent() failed: %v", err)
			}

			a, _ = s.Agent("a1")
			if !a.Documents.IsLoaded() || a.Documents.Len() != tt.want {
				t.Errorf("documents reset: loaded=%v len=%d", a.Documents.IsLoaded(), a.Documents.Len())
			}
		})
	}
}

func TestStore_LoadDocumentsOnce(t *testing.T) {
	fake := withDocs(&fakeBackend{})
	s, _ := startStore(t, fake)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			s.LoadDocuments(ctx, "a1")
		})
	}
	wg.Wait()
	s.LoadDocuments(ctx, "a1")

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.docLists > 10 || fake.docLists < 1 {
		t.Errorf("document lists = %d", fake.docLists)
	}
}

func TestStore_LoadDocumentsUnsavedAgent(t *testing.T) {
	fake := &fakeBackend{}
	s, _ := startStore(t, fake)
	ctx := context.Background()

	local := agents.Default()
	local.ID = "local-1"
	s.SetAgents(ctx, func(list []agents.Agent) []agents.Agent { return append(list, local) })

	docs, err := s.LoadDocuments(ctx, "local-1")
	if err != nil || docs == nil || len(docs) != 0 {
		t.Fatalf("LoadDocuments() = %v, %v", docs, err)
	}
	if fake.docLists != 0 {
		t.Errorf("document lists = %d, want 0", fake.docLists)
	}
}

func TestStore_SetDocumentsDefaultsToEmpty(t *testing.T) {
	s, _ := startStore(t, withDocs(&fakeBackend{}))

	var seen []agents.Document
	err := s.SetDocuments(context.Background(), "a1", func(cur []agents.Document) []agents.Document {
		seen = cur
		return append(cur, agents.Document{ID: "temp-1", Status: agents.StatusProcessing})
	})
	if err != nil {
		t.Fatalf("SetDocuments() failed: %v", err)
	}
	if seen == nil || len(seen) != 0 {
		t.Errorf("updater received %v, want empty", seen)
	}

	a, _ := s.Agent("a1")
	if a.Documents.Len() != 1 {
		t.Errorf("len = %d, want 1", a.Documents.Len())
	}
}

func TestStore_SetAgentUnknownIsNoop(t *testing.T) {
	s, _ := startStore(t, withDocs(&fakeBackend{}))

	called := false
	err := s.SetAgent(context.Background(), "missing", func(a agents.Agent) agents.Agent {
		called = true
		return a
	})
	if err != nil || called {
		t.Errorf("SetAgent(missing) = %v, called = %v", err, called)
	}
}

func TestStore_UpdatesCompose(t *testing.T) {
	s, _ := startStore(t, withDocs(&fakeBackend{}))
	ctx := context.Background()

	before, _ := s.Agent("a1")

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			s.SetAgent(ctx, "a1", func(a agents.Agent) agents.Agent {
				a.MaxTokens++
				return a
			})
		})
	}
	wg.Wait()

	after, _ := s.Agent("a1")
	if after.MaxTokens != before.MaxTokens+50 {
		t.Errorf("MaxTokens = %d, want %d", after.MaxTokens, before.MaxTokens+50)
	}
}

func TestStore_DeleteDocumentCascades(t *testing.T) {
	fake := withDocs(&fakeBackend{})
	s, _ := startStore(t, fake)
	ctx := context.Background()
	s.LoadDocuments(ctx, "a1")

	if err := s.DeleteDocument(ctx, "a1", "d1"); err != nil {
		t.Fatalf("DeleteDocument() failed: %v", err)
	}

	a, _ := s.Agent("a1")
	if _, ok := a.Documents.Find("d1"); ok {
		t.Error("d1 still listed")
	}
	for _, r := range a.Roles {
		if slices.Contains(r.DocumentAccess, "d1") {
			t.Errorf("role %s still grants d1", r.Name)
		}
	}
	if a.Uploaded {
		t.Error("agent should be marked as edited")
	}
	if !slices.Equal(fake.docDeletes, []string{"d1"}) {
		t.Errorf("remote deletes = %v", fake.docDeletes)
	}
}

func TestStore_DeleteDocumentRollback(t *testing.T) {
	fake := withDocs(&fakeBackend{deleteDocErr: errBackend})
	s, _ := startStore(t, fake)
	ctx := context.Background()
	s.LoadDocuments(ctx, "a1")

	before, _ := s.Agent("a1")

	fake.set(func(f *fakeBackend) {
		f.documents["a1"] = append(f.documents["a1"], backend.Document{ID: "d3", Name: "c.md"})
	})

	err := s.DeleteDocument(ctx, "a1", "d1")
	if !errors.Is(err, errBackend) {
		t.Fatalf("err = %v, want errBackend", err)
	}

	after, _ := s.Agent("a1")
	if len(after.Roles) != len(before.Roles) {
		t.Fatalf("roles = %d, want %d", len(after.Roles), len(before.Roles))
	}
	for i := range before.Roles {
		if !slices.Equal(after.Roles[i].DocumentAccess, before.Roles[i].DocumentAccess) {
			t.Errorf("role %d access = %v, want %v", i, after.Roles[i].DocumentAccess, before.Roles[i].DocumentAccess)
		}
	}

	if after.Documents.Len() != 3 {
		t.Errorf("documents = %d, want refreshed list of 3", after.Documents.Len())
	}
	if _, ok := after.Documents.Find("d3"); !ok {
		t.Error("documents were not refreshed from the backend")
	}
}

func TestStore_DeleteDocumentRollbackWithoutRefresh(t *testing.T) {
	fake := withDocs(&fakeBackend{deleteDocErr: errBackend})
	s, _ := startStore(t, fake)
	ctx := context.Background()
	s.LoadDocuments(ctx, "a1")
	fake.set(func(f *fakeBackend) { f.docsErr = errBackend })

	if err := s.DeleteDocument(ctx, "a1", "d1"); err == nil {
		t.Fatal("DeleteDocument() succeeded, want error")
	}

	a, _ := s.Agent("a1")
	if _, ok := a.Documents.Find("d1"); !ok {
		t.Error("snapshot documents were not restored")
	}
}

func TestStore_DeletePlaceholderIsLocal(t *testing.T) {
	fake := withDocs(&fakeBackend{})
	s, _ := startStore(t, fake)
	ctx := context.Background()

	s.SetDocuments(ctx, "a1", func(cur []agents.Document) []agents.Document {
		return append(cur, agents.Document{ID: "temp-1-1", Status: agents.StatusError})
	})

	if err := s.DeleteDocument(ctx, "a1", "temp-1-1"); err != nil {
		t.Fatalf("DeleteDocument() failed: %v", err)
	}
	if len(fake.docDeletes) != 0 {
		t.Errorf("remote deletes = %v, want none", fake.docDeletes)
	}
}

func TestStore_PutRole(t *testing.T) {
	s, _ := startStore(t, withDocs(&fakeBackend{}))
	ctx := context.Background()

	before, _ := s.Agent("a1")

	_, err := s.PutRole(ctx, "a1", agents.Role{Name: " support "})
	if !errors.Is(err, agents.ErrRoleNameTaken) {
		t.Fatalf("err = %v, want ErrRoleNameTaken", err)
	}

	after, _ := s.Agent("a1")
	if len(after.Roles) != len(before.Roles) || after.Uploaded != before.Uploaded || after.LastUpdated != before.LastUpdated {
		t.Error("rejected role mutated state")
	}

	role, err := s.PutRole(ctx, "a1", agents.Role{Name: " Billing "})
	if err != nil {
		t.Fatalf("PutRole() failed: %v", err)
	}
	if role.ID == "" || role.Name != "Billing" {
		t.Errorf("role = %+v", role)
	}

	renamed := before.Roles[0]
	renamed.Name = "SUPPORT"
	if _, err := s.PutRole(ctx, "a1", renamed); err != nil {
		t.Errorf("renaming a role to its own name failed: %v", err)
	}

	if err := s.RemoveRole(ctx, "a1", role.ID); err != nil {
		t.Fatalf("RemoveRole() failed: %v", err)
	}
	final, _ := s.Agent("a1")
	if len(final.Roles) != len(before.Roles) {
		t.Errorf("roles = %d, want %d", len(final.Roles), len(before.Roles))
	}
}

func TestStore_SaveAgentRequiresKeys(t *testing.T) {
	fake := withDocs(&fakeBackend{})
	s, _ := startStore(t, fake)

	_, err := s.SaveAgent(context.Background(), "a1")
	if !errors.Is(err, agents.ErrMissingLLMKey) {
		t.Fatalf("err = %v, want ErrMissingLLMKey", err)
	}
	if fake.saves != 0 {
		t.Errorf("saves = %d, want 0", fake.saves)
	}
}

func TestStore_SaveAgent(t *testing.T) {
	fake := withDocs(&fakeBackend{})
	s, _ := startStore(t, fake)
	ctx := context.Background()
	s.LoadDocuments(ctx, "a1")

	s.SetAgent(ctx, "a1", func(a agents.Agent) agents.Agent {
		a.SetKeys("llm", "emb")
		a.Touch(time.Now())
		return a
	})

	saved, err := s.SaveAgent(ctx, "a1")
	if err != nil {
		t.Fatalf("SaveAgent() failed: %v", err)
	}
	if !saved.Uploaded || saved.LLMAPIKey == nil || !saved.Documents.IsLoaded() {
		t.Errorf("saved = uploaded:%v key:%v docs:%v", saved.Uploaded, saved.LLMAPIKey, saved.Documents.IsLoaded())
	}
}

func TestStore_CreateAgent(t *testing.T) {
	fake := &fakeBackend{}
	s, _ := startStore(t, fake)

	a, err := s.CreateAgent(context.Background(), store.NewAgent{
		Name:            "Helper",
		EmbeddingModel:  "openai:text-embedding-3-small",
		LLMAPIKey:       "llm",
		EmbeddingAPIKey: "emb",
	})
	if err != nil {
		t.Fatalf("CreateAgent() failed: %v", err)
	}

	if a.ID == "" || a.RemoteID != "remote-1" || a.ID == a.RemoteID {
		t.Errorf("ids = %q/%q", a.ID, a.RemoteID)
	}
	if len(a.Roles) != 1 || a.Roles[0].Name != "Helper" {
		t.Errorf("roles = %+v", a.Roles)
	}
	if a.Documents.IsLoaded() {
		t.Error("new agent documents should not be loaded")
	}

	got, ok := s.Agent("remote-1")
	if !ok || got.ID != a.ID {
		t.Error("created agent not found by remote id")
	}
}

func TestStore_CreateAgentValidation(t *testing.T) {
	fake := &fakeBackend{}
	s, _ := startStore(t, fake)

	_, err := s.CreateAgent(context.Background(), store.NewAgent{Name: "Helper", LLMAPIKey: "llm"})
	if !errors.Is(err, agents.ErrMissingEmbeddingKey) {
		t.Fatalf("err = %v, want ErrMissingEmbeddingKey", err)
	}
	if fake.saves != 0 || len(s.Agents()) != 0 {
		t.Error("failed create touched the backend or the store")
	}
}

func TestStore_DeleteAgent(t *testing.T) {
	fake := withDocs(&fakeBackend{deleteErr: errBackend})
	s, _ := startStore(t, fake)
	ctx := context.Background()

	if err := s.DeleteAgent(ctx, "a1"); !errors.Is(err, errBackend) {
		t.Fatalf("err = %v, want errBackend", err)
	}
	if len(s.Agents()) != 1 {
		t.Error("agent removed despite remote failure")
	}

	fake.set(func(f *fakeBackend) { f.deleteErr = nil })
	if err := s.DeleteAgent(ctx, "a1"); err != nil {
		t.Fatalf("DeleteAgent() failed: %v", err)
	}
	if len(s.Agents()) != 0 {
		t.Error("agent still present after delete")
	}
}

func TestStore_Subscribe(t *testing.T) {
	s, _ := startStore(t, withDocs(&fakeBackend{}))
	ctx, cancel := context.WithCancel(context.Background())

	ch := s.Subscribe(ctx)
	s.Touch(context.Background(), "a1")

	select {
	case list := <-ch:
		if len(list) != 1 || list[0].Uploaded {
			t.Errorf("published = %+v", list)
		}
	case <-time.After(time.Second):
		t.Fatal("no update published")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			for range ch {
			}
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
}

func TestStore_ClosedAfterShutdown(t *testing.T) {
	s, lc := startStore(t, withDocs(&fakeBackend{}))

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}

	err := s.Touch(context.Background(), "a1")
	if !errors.Is(err, store.ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}
