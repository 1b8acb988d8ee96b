package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"text/tabwriter"

	"github.com/JaimeStill/agent-console/internal/agents"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    format
		wantErr bool
	}{
		{"text", formatText, false},
		{"json", formatJSON, false},
		{"yaml", formatYAML, false},
		{"xml", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPrinter(t *testing.T) {
	roles := []agents.Role{{ID: "role-0", Name: "Support", DocumentAccess: []string{"d1"}}}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		p, _ := newPrinter(&buf, "json")
		if err := p.print(roles, nil); err != nil {
			t.Fatalf("print failed: %v", err)
		}

		var got []agents.Role
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(got) != 1 || got[0].Name != "Support" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("yaml uses json field names", func(t *testing.T) {
		var buf bytes.Buffer
		p, _ := newPrinter(&buf, "yaml")
		if err := p.print(roles, nil); err != nil {
			t.Fatalf("print failed: %v", err)
		}
		if !strings.Contains(buf.String(), "documentAccess:") {
			t.Errorf("yaml output missing documentAccess:\n%s", buf.String())
		}
	})

	t.Run("yaml keeps not loaded documents null", func(t *testing.T) {
		var buf bytes.Buffer
		p, _ := newPrinter(&buf, "yaml")
		if err := p.print(agents.Default(), nil); err != nil {
			t.Fatalf("print failed: %v", err)
		}
		if !strings.Contains(buf.String(), "documents: null") {
			t.Errorf("yaml output missing null documents:\n%s", buf.String())
		}
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		p, _ := newPrinter(&buf, "text")
		if err := p.print(roles, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "ID\tNAME")
			fmt.Fprintln(tw, "role-0\tSupport")
		}); err != nil {
			t.Fatalf("print failed: %v", err)
		}
		if !strings.Contains(buf.String(), "role-0  Support") {
			t.Errorf("text output not aligned:\n%s", buf.String())
		}
	})
}

// execute runs the console against a fake backend and returns stdout.
func execute(t *testing.T, handler http.Handler, args ...string) (string, error) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(cfgPath, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BACKEND_API_URL", srv.URL)
	t.Setenv("BACKEND_TOKEN", "test-token")
	t.Setenv("STORAGE_BASE_PATH", filepath.Join(dir, "data"))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--config", cfgPath))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestAgentsList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /agents", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, []map[string]any{{
			"id":           "r1",
			"name":         "Alpha",
			"llm_provider": "idun",
			"llm_model":    "m1",
			"roles":        []any{},
		}})
	})

	out, err := execute(t, mux, "agents", "list", "-o", "json")
	if err != nil {
		t.Fatalf("agents list failed: %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(got) != 1 {
		t.Fatalf("got %d agents, want 1", len(got))
	}
	if got[0]["databaseId"] != "r1" || got[0]["name"] != "Alpha" {
		t.Errorf("got %v", got[0])
	}
	if got[0]["documents"] != nil {
		t.Errorf("documents = %v, want null before loading", got[0]["documents"])
	}
}

func TestProvidersUsage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /agents", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []any{})
	})
	mux.HandleFunc("GET /providers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"llm":       []map[string]string{{"id": "openai", "label": "OpenAI"}, {"id": "idun", "label": "Idun"}},
			"embedding": []map[string]string{{"id": "idun", "label": "Idun"}},
		})
	})

	out, err := execute(t, mux, "providers", "--usage", "both", "-o", "json")
	if err != nil {
		t.Fatalf("providers failed: %v", err)
	}

	var got []map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(got) != 1 || got[0]["id"] != "idun" {
		t.Errorf("got %v, want only idun", got)
	}
}

func TestUnknownAgent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /agents", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []any{})
	})

	_, err := execute(t, mux, "documents", "list", "missing", "-o", "text")
	if !errors.Is(err, agents.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// savingService serves one agent with the given role access and documents,
// resolves stored keys, and records the last saved agent.
type savingService struct {
	mu      sync.Mutex
	saved   map[string]any
	deleted []string
}

func (s *savingService) handler(access []string, docs []map[string]string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /agents", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{{
			"id":    "r1",
			"name":  "Alpha",
			"roles": []map[string]any{{"name": "Support", "description": "", "document_access": access}},
		}})
	})
	mux.HandleFunc("GET /documents/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"documents": docs})
	})
	mux.HandleFunc("DELETE /documents/", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.deleted = append(s.deleted, r.URL.Query().Get("document_id"))
		s.mu.Unlock()
		writeJSON(w, map[string]any{})
	})
	mux.HandleFunc("GET /api-keys/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		writeJSON(w, map[string]string{"id": id, "raw_key": "secret-" + id})
	})
	mux.HandleFunc("POST /update-agent", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.saved = body
		s.mu.Unlock()
		writeJSON(w, body)
	})
	return mux
}

func (s *savingService) savedAccess(t *testing.T) []any {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saved == nil {
		t.Fatal("agent was not saved")
	}
	if s.saved["llm_api_key"] != "secret-k1" || s.saved["embedding_api_key"] != "secret-k2" {
		t.Errorf("keys = %v/%v", s.saved["llm_api_key"], s.saved["embedding_api_key"])
	}
	roles, _ := s.saved["roles"].([]any)
	if len(roles) != 1 {
		t.Fatalf("roles = %v", s.saved["roles"])
	}
	access, _ := roles[0].(map[string]any)["document_access"].([]any)
	return access
}

func TestDocumentsDeleteSavesRevokedAccess(t *testing.T) {
	svc := &savingService{}
	docs := []map[string]string{{"id": "d1", "name": "a.pdf"}, {"id": "d2", "name": "b.txt"}}

	_, err := execute(t, svc.handler([]string{"d1", "d2"}, docs),
		"documents", "delete", "r1", "d1",
		"--llm-key-id", "k1", "--embedding-key-id", "k2", "-o", "json")
	if err != nil {
		t.Fatalf("documents delete failed: %v", err)
	}

	if len(svc.deleted) != 1 || svc.deleted[0] != "d1" {
		t.Errorf("deleted = %v, want [d1]", svc.deleted)
	}
	access := svc.savedAccess(t)
	if len(access) != 1 || access[0] != "d2" {
		t.Errorf("saved document_access = %v, want [d2]", access)
	}
}

func TestRolesRevokeUnlistedDocument(t *testing.T) {
	svc := &savingService{}

	_, err := execute(t, svc.handler([]string{"gone", "d2"}, []map[string]string{{"id": "d2", "name": "b.txt"}}),
		"roles", "grant", "r1", "role-1", "gone", "--revoke",
		"--llm-key-id", "k1", "--embedding-key-id", "k2", "-o", "json")
	if err != nil {
		t.Fatalf("roles grant --revoke failed: %v", err)
	}

	access := svc.savedAccess(t)
	if len(access) != 1 || access[0] != "d2" {
		t.Errorf("saved document_access = %v, want [d2]", access)
	}
}
