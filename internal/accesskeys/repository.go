package accesskeys

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/JaimeStill/agent-console/internal/backend"
	"github.com/JaimeStill/agent-console/internal/storage"
)

const testKeyLifetimeDays = 2

var expiryLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

type repository struct {
	client  Client
	storage storage.System
	logger  *slog.Logger
	now     func() time.Time
}

// New creates an access key system. Test keys are cached in storage.
func New(client Client, store storage.System, logger *slog.Logger) System {
	return &repository{
		client:  client,
		storage: store,
		logger:  logger.With("system", "accesskeys"),
		now:     time.Now,
	}
}

func (r *repository) List(ctx context.Context, agentID string) ([]backend.AccessKey, error) {
	if agentID == "" {
		return nil, ErrAgentRequired
	}
	return r.client.ListAccessKeys(ctx, agentID)
}

func (r *repository) Create(ctx context.Context, agentID, name string, expiry time.Time) (backend.AccessKey, error) {
	if agentID == "" {
		return backend.AccessKey{}, ErrAgentRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return backend.AccessKey{}, ErrNameRequired
	}
	if expiry.IsZero() {
		return backend.AccessKey{}, ErrExpiryRequired
	}

	key, err := r.client.CreateAccessKey(ctx, agentID, name, expiry)
	if err != nil {
		return backend.AccessKey{}, err
	}

	r.logger.Info("access key created", "agent", agentID, "id", key.ID, "name", key.Name)
	return key, nil
}

func (r *repository) Revoke(ctx context.Context, agentID, accessKeyID string) error {
	if agentID == "" {
		return ErrAgentRequired
	}
	if err := r.client.RevokeAccessKey(ctx, agentID, accessKeyID); err != nil {
		return err
	}

	r.logger.Info("access key revoked", "agent", agentID, "id", accessKeyID)
	return nil
}

func (r *repository) TestKey(ctx context.Context, agentID string) (backend.AccessKey, error) {
	if agentID == "" {
		return backend.AccessKey{}, ErrAgentRequired
	}

	var cached backend.AccessKey
	err := storage.RetrieveJSON(ctx, r.storage, testKeyPath(agentID), &cached)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.logger.Warn("cached test key unreadable", "agent", agentID, "error", err)
		}
		return r.mintTestKey(ctx, agentID)
	}

	if r.expired(cached) {
		r.logger.Info("test key expired", "agent", agentID, "id", cached.ID)
		r.revokeStale(ctx, agentID, cached.ID)
		return r.mintTestKey(ctx, agentID)
	}

	keys, err := r.client.ListAccessKeys(ctx, agentID)
	if err != nil {
		return backend.AccessKey{}, err
	}
	listed := slices.ContainsFunc(keys, func(k backend.AccessKey) bool {
		return k.ID == cached.ID
	})
	if !listed {
		r.logger.Info("cached test key no longer exists", "agent", agentID, "id", cached.ID)
		return r.mintTestKey(ctx, agentID)
	}

	if cached.Key == nil || *cached.Key == "" {
		return backend.AccessKey{}, ErrNoSecret
	}
	return cached, nil
}

func (r *repository) mintTestKey(ctx context.Context, agentID string) (backend.AccessKey, error) {
	key, err := r.Create(ctx, agentID, TestKeyName, r.today().AddDate(0, 0, testKeyLifetimeDays))
	if err != nil {
		return backend.AccessKey{}, fmt.Errorf("create test key: %w", err)
	}

	if err := storage.StoreJSON(ctx, r.storage, testKeyPath(agentID), key); err != nil {
		r.logger.Warn("test key not cached", "agent", agentID, "error", err)
	}

	if key.Key == nil || *key.Key == "" {
		return backend.AccessKey{}, ErrNoSecret
	}
	return key, nil
}

func (r *repository) revokeStale(ctx context.Context, agentID, keyID string) {
	if keyID == "" {
		return
	}
	if err := r.client.RevokeAccessKey(ctx, agentID, keyID); err != nil {
		r.logger.Warn("stale test key not revoked", "agent", agentID, "id", keyID, "error", err)
	}
}

// expired treats a missing or unreadable expiry as expired. A key expiring
// today is expired.
func (r *repository) expired(key backend.AccessKey) bool {
	if key.ExpiryDate == nil {
		return true
	}
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, *key.ExpiryDate); err == nil {
			return !t.After(r.today())
		}
	}
	return true
}

func (r *repository) today() time.Time {
	now := r.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func testKeyPath(agentID string) string {
	return path.Join("accesskeys", agentID, "test.json")
}
