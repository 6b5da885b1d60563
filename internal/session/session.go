// Package session holds the authenticated admin session of a visitor.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ashureev/folio/internal/domain"
	"github.com/ashureev/folio/internal/store"
)

// Session reads and writes the bearer token and cached profile of one visitor.
// It is passed explicitly into the API client instead of being read from
// global state.
type Session struct {
	kv store.KV
}

// New binds a session to a visitor-scoped store.
func New(kv store.KV) *Session {
	return &Session{kv: kv}
}

// Token returns the stored bearer token, or "" when signed out.
// Storage errors are logged and treated as signed out.
func (s *Session) Token(ctx context.Context) string {
	token, ok, err := s.kv.Get(ctx, store.KeyAccessToken)
	if err != nil {
		slog.Warn("Failed to read session token", "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return token
}

// User returns the cached profile, or nil when none is stored or it cannot be decoded.
func (s *Session) User(ctx context.Context) *domain.User {
	raw, ok, err := s.kv.Get(ctx, store.KeyUser)
	if err != nil {
		slog.Warn("Failed to read session user", "error", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		slog.Warn("Discarding unreadable session user", "error", err)
		return nil
	}
	u.Normalize()
	return &u
}

// IsAdmin reports the stored admin flag.
func (s *Session) IsAdmin(ctx context.Context) bool {
	raw, ok, err := s.kv.Get(ctx, store.KeyIsAdmin)
	if err != nil || !ok {
		return false
	}
	admin, _ := strconv.ParseBool(raw)
	return admin
}

// Authenticated reports whether a token is present.
func (s *Session) Authenticated(ctx context.Context) bool {
	return s.Token(ctx) != ""
}

// Save persists a fresh login.
func (s *Session) Save(ctx context.Context, token string, user domain.User) error {
	if token == "" {
		return errors.New("session: empty token")
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}
	if err := s.kv.Set(ctx, store.KeyAccessToken, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if err := s.kv.Set(ctx, store.KeyUser, string(data)); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	if err := s.kv.Set(ctx, store.KeyIsAdmin, strconv.FormatBool(user.IsAdmin())); err != nil {
		return fmt.Errorf("save admin flag: %w", err)
	}
	return nil
}

// Clear removes the token, profile and admin flag. Every key is attempted;
// the first error is returned.
func (s *Session) Clear(ctx context.Context) error {
	var first error
	for _, key := range []string{store.KeyAccessToken, store.KeyUser, store.KeyIsAdmin} {
		if err := s.kv.Delete(ctx, key); err != nil && first == nil {
			first = fmt.Errorf("clear %s: %w", key, err)
		}
	}
	return first
}
