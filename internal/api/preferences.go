package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ashureev/folio/internal/identity"
	"github.com/ashureev/folio/internal/store"
)

// Preferences are the visitor's UI toggles. Both default to enabled.
type Preferences struct {
	CursorEnabled bool `json:"cursorEnabled"`
	SoundEnabled  bool `json:"soundEnabled"`
}

// preferencesUpdate allows partial updates.
type preferencesUpdate struct {
	CursorEnabled *bool `json:"cursorEnabled"`
	SoundEnabled  *bool `json:"soundEnabled"`
}

// LoadPreferences reads the visitor's preferences, falling back to defaults
// for missing or unparsable values.
func LoadPreferences(ctx context.Context, kv store.KV) (Preferences, error) {
	cursor, err := readFlag(ctx, kv, store.KeyCursorEnabled)
	if err != nil {
		return Preferences{}, err
	}
	sound, err := readFlag(ctx, kv, store.KeySoundEnabled)
	if err != nil {
		return Preferences{}, err
	}
	return Preferences{CursorEnabled: cursor, SoundEnabled: sound}, nil
}

func readFlag(ctx context.Context, kv store.KV, key string) (bool, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return true, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true, nil
	}
	return v, nil
}

// GetPreferences handles GET /api/preferences.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	visitorID := identity.VisitorIDFromContext(r.Context())
	if visitorID == "" {
		Error(w, http.StatusUnauthorized, "unknown visitor")
		return
	}

	prefs, err := LoadPreferences(r.Context(), store.Scoped(h.storage, visitorID))
	if err != nil {
		h.logger.Error("Failed to load preferences", "visitor_id", visitorID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}
	JSON(w, http.StatusOK, prefs)
}

// PutPreferences handles PUT /api/preferences.
func (h *Handler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	visitorID := identity.VisitorIDFromContext(r.Context())
	if visitorID == "" {
		Error(w, http.StatusUnauthorized, "unknown visitor")
		return
	}

	var req preferencesUpdate
	if !h.decode(w, r, &req) {
		return
	}

	kv := store.Scoped(h.storage, visitorID)
	for key, v := range map[string]*bool{
		store.KeyCursorEnabled: req.CursorEnabled,
		store.KeySoundEnabled:  req.SoundEnabled,
	} {
		if v == nil {
			continue
		}
		if err := kv.Set(r.Context(), key, strconv.FormatBool(*v)); err != nil {
			h.logger.Error("Failed to save preference", "visitor_id", visitorID, "key", key, "error", err)
			Error(w, http.StatusInternalServerError, "failed to save preferences")
			return
		}
	}

	prefs, err := LoadPreferences(r.Context(), kv)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}
	JSON(w, http.StatusOK, prefs)
}
