// Package storage persists small console state blobs, such as cached test
// access keys, under a local base directory.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JaimeStill/agent-console/internal/lifecycle"
)

var (
	// ErrNotFound indicates the requested key does not exist in storage.
	ErrNotFound = errors.New("storage: key not found")

	// ErrPermissionDenied indicates insufficient permissions to access the key.
	ErrPermissionDenied = errors.New("storage: permission denied")

	// ErrInvalidKey indicates an empty key or a path traversal attempt.
	ErrInvalidKey = errors.New("storage: invalid key")
)

// System stores opaque blobs addressed by slash-separated keys.
type System interface {
	// Store saves data at key, overwriting any previous value.
	Store(ctx context.Context, key string, data []byte) error

	// Retrieve returns the data at key or ErrNotFound.
	Retrieve(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// List returns the keys stored beneath prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	Start(lc *lifecycle.Coordinator) error
}

// StoreJSON encodes v as JSON and stores it at key.
func StoreJSON(ctx context.Context, sys System, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return sys.Store(ctx, key, data)
}

// RetrieveJSON decodes the JSON blob at key into v.
func RetrieveJSON(ctx context.Context, sys System, key string, v any) error {
	data, err := sys.Retrieve(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
