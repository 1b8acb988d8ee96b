package accesskeys_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JaimeStill/agent-console/internal/accesskeys"
	"github.com/JaimeStill/agent-console/internal/backend"
	"github.com/JaimeStill/agent-console/internal/config"
	"github.com/JaimeStill/agent-console/internal/storage"
	"github.com/JaimeStill/agent-console/pkg/logging"
)

type fakeClient struct {
	mu sync.Mutex

	keys      []backend.AccessKey
	noSecret  bool
	revokeErr error

	created []time.Time
	revoked []string
	next    int
}

func (f *fakeClient) ListAccessKeys(ctx context.Context, agentID string) ([]backend.AccessKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]backend.AccessKey{}, f.keys...), nil
}

func (f *fakeClient) CreateAccessKey(ctx context.Context, agentID, name string, expiry time.Time) (backend.AccessKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.next++
	f.created = append(f.created, expiry)

	exp := expiry.Format(time.RFC3339)
	key := backend.AccessKey{
		ID:         "k" + string(rune('0'+f.next)),
		Name:       name,
		ExpiryDate: &exp,
	}
	if !f.noSecret {
		secret := "secret-" + key.ID
		key.Key = &secret
	}
	f.keys = append(f.keys, key)
	return key, nil
}

func (f *fakeClient) RevokeAccessKey(ctx context.Context, agentID, accessKeyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, accessKeyID)
	return f.revokeErr
}

func newSystem(t *testing.T, client *fakeClient) (accesskeys.System, storage.System) {
	t.Helper()

	store, err := storage.New(&config.StorageConfig{BasePath: t.TempDir()}, logging.Discard())
	if err != nil {
		t.Fatalf("storage.New() failed: %v", err)
	}
	return accesskeys.New(client, store, logging.Discard()), store
}

func cache(t *testing.T, store storage.System, key backend.AccessKey) {
	t.Helper()
	if err := storage.StoreJSON(context.Background(), store, "accesskeys/a1/test.json", key); err != nil {
		t.Fatalf("StoreJSON() failed: %v", err)
	}
}

func ptr(s string) *string {
	return &s
}

func TestTestKey_MintsWhenNothingCached(t *testing.T) {
	client := &fakeClient{}
	sys, store := newSystem(t, client)

	key, err := sys.TestKey(context.Background(), "a1")
	if err != nil {
		t.Fatalf("TestKey() failed: %v", err)
	}
	if key.Name != accesskeys.TestKeyName || key.Key == nil || *key.Key != "secret-k1" {
		t.Errorf("key = %+v", key)
	}

	if len(client.created) != 1 {
		t.Fatalf("created = %d, want 1", len(client.created))
	}
	now := time.Now()
	want := time.Date(now.Year(), now.Month(), now.Day()+2, 0, 0, 0, 0, now.Location())
	if !client.created[0].Equal(want) {
		t.Errorf("expiry = %v, want %v", client.created[0], want)
	}

	exists, err := store.Exists(context.Background(), "accesskeys/a1/test.json")
	if err != nil || !exists {
		t.Errorf("test key not cached: %v", err)
	}

	again, err := sys.TestKey(context.Background(), "a1")
	if err != nil {
		t.Fatalf("second TestKey() failed: %v", err)
	}
	if again.ID != key.ID || len(client.created) != 1 {
		t.Errorf("cached key not reused: %s, created %d", again.ID, len(client.created))
	}
}

func TestTestKey_Cached(t *testing.T) {
	future := time.Now().AddDate(0, 0, 5).Format(time.RFC3339)
	past := time.Now().AddDate(0, 0, -1).Format(time.RFC3339)

	tests := []struct {
		name        string
		cached      backend.AccessKey
		listed      bool
		revokeErr   error
		wantID      string
		wantRevoked []string
	}{
		{
			name:   "valid and listed",
			cached: backend.AccessKey{ID: "old", Key: ptr("s"), ExpiryDate: &future},
			listed: true,
			wantID: "old",
		},
		{
			name:        "expired",
			cached:      backend.AccessKey{ID: "old", Key: ptr("s"), ExpiryDate: &past},
			listed:      true,
			wantID:      "k1",
			wantRevoked: []string{"old"},
		},
		{
			name:        "expired and revoke fails",
			cached:      backend.AccessKey{ID: "old", Key: ptr("s"), ExpiryDate: &past},
			revokeErr:   errors.New("gone"),
			wantID:      "k1",
			wantRevoked: []string{"old"},
		},
		{
			name:        "no expiry",
			cached:      backend.AccessKey{ID: "old", Key: ptr("s")},
			listed:      true,
			wantID:      "k1",
			wantRevoked: []string{"old"},
		},
		{
			name:   "no longer listed",
			cached: backend.AccessKey{ID: "old", Key: ptr("s"), ExpiryDate: &future},
			wantID: "k1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{revokeErr: tt.revokeErr}
			if tt.listed {
				client.keys = []backend.AccessKey{tt.cached}
			}
			sys, store := newSystem(t, client)
			cache(t, store, tt.cached)

			key, err := sys.TestKey(context.Background(), "a1")
			if err != nil {
				t.Fatalf("TestKey() failed: %v", err)
			}
			if key.ID != tt.wantID {
				t.Errorf("id = %q, want %q", key.ID, tt.wantID)
			}
			if len(client.revoked) != len(tt.wantRevoked) {
				t.Errorf("revoked = %v, want %v", client.revoked, tt.wantRevoked)
			}
		})
	}
}

func TestTestKey_NoSecret(t *testing.T) {
	sys, _ := newSystem(t, &fakeClient{noSecret: true})

	if _, err := sys.TestKey(context.Background(), "a1"); !errors.Is(err, accesskeys.ErrNoSecret) {
		t.Errorf("err = %v, want ErrNoSecret", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	expiry := time.Now().AddDate(0, 1, 0)

	tests := []struct {
		name    string
		agentID string
		key     string
		expiry  time.Time
		want    error
	}{
		{"missing agent", "", "ci", expiry, accesskeys.ErrAgentRequired},
		{"blank name", "a1", "  ", expiry, accesskeys.ErrNameRequired},
		{"zero expiry", "a1", "ci", time.Time{}, accesskeys.ErrExpiryRequired},
		{"valid", "a1", " ci ", expiry, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			sys, _ := newSystem(t, client)

			key, err := sys.Create(context.Background(), tt.agentID, tt.key, tt.expiry)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.want == nil && key.Name != "ci" {
				t.Errorf("name = %q, want trimmed", key.Name)
			}
			if tt.want != nil && len(client.created) != 0 {
				t.Error("invalid key sent to the service")
			}
		})
	}
}

func TestChatURL(t *testing.T) {
	got := accesskeys.ChatURL("http://localhost:3001", "a1", "k+y/1")
	want := "http://localhost:3001/a1?key=k%2By%2F1"
	if got != want {
		t.Errorf("ChatURL() = %q, want %q", got, want)
	}
}
