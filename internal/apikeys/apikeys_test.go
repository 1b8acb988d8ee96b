package apikeys_test

import (
	"context"
	"errors"
	"testing"

	"github.com/JaimeStill/agent-console/internal/apikeys"
	"github.com/JaimeStill/agent-console/internal/backend"
	"github.com/JaimeStill/agent-console/pkg/logging"
)

type fakeClient struct {
	created []backend.NewAPIKey
	secrets map[string]string
}

func (f *fakeClient) ListAPIKeys(ctx context.Context) ([]backend.APIKey, error) {
	return []backend.APIKey{{ID: "1", Label: "prod", RedactedKey: "sk-...abcd"}}, nil
}

func (f *fakeClient) CreateAPIKey(ctx context.Context, key backend.NewAPIKey) (backend.APIKey, error) {
	f.created = append(f.created, key)
	return backend.APIKey{ID: "2", Label: key.Label, Provider: key.Provider, Usage: key.Usage}, nil
}

func (f *fakeClient) APIKeySecret(ctx context.Context, id string) (backend.APIKeySecret, error) {
	raw, ok := f.secrets[id]
	if !ok {
		return backend.APIKeySecret{}, &backend.StatusError{StatusCode: 404, Detail: "Not Found"}
	}
	return backend.APIKeySecret{ID: id, RawKey: raw}, nil
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name string
		cmd  apikeys.CreateCommand
		want error
	}{
		{
			name: "valid",
			cmd:  apikeys.CreateCommand{Label: " prod ", Provider: "openai", Usage: apikeys.UsageBoth, RawKey: " sk-1 "},
		},
		{
			name: "blank label",
			cmd:  apikeys.CreateCommand{Label: "  ", Provider: "openai", Usage: apikeys.UsageLLM, RawKey: "sk-1"},
			want: apikeys.ErrIncomplete,
		},
		{
			name: "missing key",
			cmd:  apikeys.CreateCommand{Label: "prod", Provider: "openai", Usage: apikeys.UsageLLM},
			want: apikeys.ErrIncomplete,
		},
		{
			name: "missing provider",
			cmd:  apikeys.CreateCommand{Label: "prod", Usage: apikeys.UsageLLM, RawKey: "sk-1"},
			want: apikeys.ErrIncomplete,
		},
		{
			name: "unknown usage",
			cmd:  apikeys.CreateCommand{Label: "prod", Provider: "openai", Usage: "chat", RawKey: "sk-1"},
			want: apikeys.ErrInvalidUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			sys := apikeys.New(client, logging.Discard())

			key, err := sys.Create(context.Background(), tt.cmd)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}

			if tt.want != nil {
				if len(client.created) != 0 {
					t.Error("invalid key sent to the service")
				}
				return
			}

			sent := client.created[0]
			if sent.Label != "prod" || sent.RawKey != "sk-1" || sent.Usage != "both" {
				t.Errorf("sent = %+v", sent)
			}
			if key.ID != "2" {
				t.Errorf("id = %q", key.ID)
			}
		})
	}
}

func TestSecret(t *testing.T) {
	sys := apikeys.New(&fakeClient{secrets: map[string]string{"1": "sk-raw"}}, logging.Discard())
	ctx := context.Background()

	raw, err := sys.Secret(ctx, "1")
	if err != nil || raw != "sk-raw" {
		t.Errorf("Secret(1) = %q, %v", raw, err)
	}

	if _, err := sys.Secret(ctx, " "); !errors.Is(err, apikeys.ErrIDRequired) {
		t.Errorf("err = %v, want ErrIDRequired", err)
	}

	if _, err := sys.Secret(ctx, "9"); !backend.IsStatus(err, 404) {
		t.Errorf("err = %v, want 404", err)
	}
}

func TestUsage(t *testing.T) {
	tests := []struct {
		usage apikeys.Usage
		valid bool
		text  string
	}{
		{apikeys.UsageLLM, true, "LLM models"},
		{apikeys.UsageEmbedding, true, "Embedding models"},
		{apikeys.UsageBoth, true, "LLM and embedding"},
		{"chat", false, "chat"},
	}

	for _, tt := range tests {
		t.Run(string(tt.usage), func(t *testing.T) {
			if got := tt.usage.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.usage.Describe(); got != tt.text {
				t.Errorf("Describe() = %q, want %q", got, tt.text)
			}
		})
	}
}
