package live

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/folio/internal/identity"
	"github.com/ashureev/folio/internal/lifecycle"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const writeTimeout = 5 * time.Second

// Event is one message sent on /ws/lifecycle.
type Event struct {
	Type  string          `json:"type"` // "phase" or "transition"
	Phase lifecycle.Phase `json:"phase"`
	From  lifecycle.Phase `json:"from,omitempty"`
	At    time.Time       `json:"at"`
}

// LifecycleHandler streams lifecycle transitions to the browser.
type LifecycleHandler struct {
	hub           *Hub
	allowedOrigin string
	isDev         bool
}

// NewLifecycleHandler creates the /ws/lifecycle handler.
func NewLifecycleHandler(hub *Hub, allowedOrigin string, isDev bool) *LifecycleHandler {
	return &LifecycleHandler{
		hub:           hub,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *LifecycleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	visitorID := identity.VisitorIDFromContext(r.Context())

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "visitor_id", visitorID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "visitor_id", visitorID)
		}
	}()

	client, snapshot := h.hub.Register(visitorID, ws)
	defer h.hub.Unregister(client)

	// The client never sends; CloseRead cancels ctx once it goes away.
	ctx := ws.CloseRead(r.Context())

	if err := h.write(ctx, ws, snapshot); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-client.Events():
			if err := h.write(ctx, ws, ev); err != nil {
				return
			}
		}
	}
}

func (h *LifecycleHandler) write(ctx context.Context, ws *websocket.Conn, ev Event) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, ws, ev); err != nil {
		slog.Debug("WebSocket write error", "error", err)
		return err
	}
	return nil
}

func (h *LifecycleHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}
