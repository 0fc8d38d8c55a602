// internal/kv/kv.go
//
// Key-value persistence interface for the unshuffle server.
// Implementations may be backed by memory (development, tests) or
// SQLite (the default durable store).

package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("kv: key not found")

// Store defines the persistence interface for all server state:
// profiles, stats, finished game records, and the leaderboard.
type Store interface {
	// Get retrieves the value stored at key.
	// Returns ErrNotFound if the key has no value.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes the value at key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// SetNX writes the value only if the key has no value yet.
	// Reports whether the write happened. Atomic per implementation;
	// used for claims that must succeed exactly once.
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
}
