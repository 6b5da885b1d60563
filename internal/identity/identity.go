// Package identity provides anonymous per-device visitor identity.
//
// A visitor id plays the role of a browser profile: all persisted visitor
// state (session, chat history, preferences) is scoped by it.
package identity

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ashureev/folio/internal/store"
	"github.com/google/uuid"
)

const (
	// VisitorCookieName is the cookie carrying the visitor id.
	VisitorCookieName = "folio_vid"
	visitorCookieMaxAge = 365 * 24 * time.Hour
)

type contextKey int

const visitorIDKey contextKey = iota

// VisitorIDFromContext extracts the visitor ID from the request context.
func VisitorIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(visitorIDKey).(string); ok {
		return v
	}
	return ""
}

// WithVisitorID returns a context carrying id. Used by tests and background jobs.
func WithVisitorID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, visitorIDKey, id)
}

func isValidVisitorID(id string) bool {
	parsed, err := uuid.Parse(id)
	return err == nil && parsed.Version() == 4 && parsed.String() == strings.ToLower(id)
}

func setVisitorCookie(w http.ResponseWriter, id string, isDev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     VisitorCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(visitorCookieMaxAge.Seconds()),
		Expires:  time.Now().Add(visitorCookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
}

func getOrCreateVisitorID(w http.ResponseWriter, r *http.Request, isDev bool) string {
	if c, err := r.Cookie(VisitorCookieName); err == nil && isValidVisitorID(c.Value) {
		setVisitorCookie(w, c.Value, isDev)
		return c.Value
	}

	id := uuid.NewString()
	setVisitorCookie(w, id, isDev)
	return id
}

// Middleware assigns every request a visitor id and records visitor activity.
func Middleware(storage store.Storage, isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			visitorID := getOrCreateVisitorID(w, r, isDev)

			if err := storage.Touch(r.Context(), visitorID); err != nil {
				slog.Warn("Failed to record visitor activity", "visitor_id", visitorID, "error", err)
			}

			next.ServeHTTP(w, r.WithContext(WithVisitorID(r.Context(), visitorID)))
		})
	}
}

// IPFromRequest returns a normalized remote IP for optional request tracing.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
