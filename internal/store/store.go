// Package store provides per-visitor key-value persistence.
//
// Every visitor of the site owns a scope (its visitor id). Values are plain
// strings with no schema, the same contract browser local storage offers.
package store

import (
	"context"
	"time"
)

// Storage keys shared by the packages that persist visitor state.
const (
	KeyAccessToken   = "accessToken"
	KeyUser          = "user"
	KeyIsAdmin       = "isAdmin"
	KeyChatHistory   = "chatHistory"
	KeyCursorEnabled = "cursorEnabled"
	KeySoundEnabled  = "soundEnabled"
)

// Storage defines the interface for persisting visitor-scoped values.
type Storage interface {
	// Get returns the value stored under key in scope. ok is false when absent.
	Get(ctx context.Context, scope, key string) (value string, ok bool, err error)

	// Set writes value under key in scope. Last writer wins.
	Set(ctx context.Context, scope, key, value string) error

	// Delete removes key from scope. Deleting a missing key is not an error.
	Delete(ctx context.Context, scope, key string) error

	// Touch records activity for scope without changing any value.
	Touch(ctx context.Context, scope string) error

	// PurgeStale removes every scope that has been idle longer than ttl.
	PurgeStale(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the backing store.
	Close() error
}

// KV is a Storage bound to a single scope.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Scoped binds s to scope.
func Scoped(s Storage, scope string) KV {
	return scoped{s: s, scope: scope}
}

type scoped struct {
	s     Storage
	scope string
}

func (v scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return v.s.Get(ctx, v.scope, key)
}

func (v scoped) Set(ctx context.Context, key, value string) error {
	return v.s.Set(ctx, v.scope, key, value)
}

func (v scoped) Delete(ctx context.Context, key string) error {
	return v.s.Delete(ctx, v.scope, key)
}
