// Package live pushes server-side state changes to browsers over WebSocket.
package live

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/folio/internal/lifecycle"
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const clientBuffer = 8

// Client is one open /ws/lifecycle connection.
type Client struct {
	ID        string
	VisitorID string

	conn   *websocket.Conn
	events chan Event
}

// Events delivers the transitions broadcast after the client registered.
func (c *Client) Events() <-chan Event { return c.events }

// Hub is the only lifecycle subscriber. It tracks the current phase and fans
// every transition out to the registered connections.
type Hub struct {
	mu      sync.Mutex
	phase   lifecycle.Phase
	clients map[string]*Client
	now     func() time.Time
}

// NewHub creates an empty hub in the Idle phase.
func NewHub() *Hub {
	return &Hub{
		phase:   lifecycle.Idle,
		clients: make(map[string]*Client),
		now:     time.Now,
	}
}

// Start subscribes to the machine and broadcasts its transitions until ctx is
// done. The returned channel closes once the broadcast loop has exited.
func (h *Hub) Start(ctx context.Context, machine *lifecycle.Machine) <-chan struct{} {
	phase, transitions := machine.Subscribe(ctx)

	h.mu.Lock()
	h.phase = phase
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for tr := range transitions {
			h.broadcast(tr)
		}
	}()
	return done
}

func (h *Hub) broadcast(tr lifecycle.Transition) {
	ev := Event{Type: "transition", Phase: tr.To, From: tr.From, At: tr.At}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.phase = tr.To
	for _, c := range h.clients {
		select {
		case c.events <- ev:
		default:
			slog.Warn("Dropping lifecycle event for slow connection", "visitor_id", c.VisitorID, "conn_id", c.ID)
		}
	}
}

// Register adds a connection and returns it with a snapshot of the current
// phase. Transitions after the snapshot arrive on the client's Events.
func (h *Hub) Register(visitorID string, conn *websocket.Conn) (*Client, Event) {
	c := &Client{
		ID:        uuid.NewString(),
		VisitorID: visitorID,
		conn:      conn,
		events:    make(chan Event, clientBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
	slog.Debug("Live connection registered", "visitor_id", visitorID, "conn_id", c.ID)
	return c, Event{Type: "phase", Phase: h.phase, At: h.now()}
}

// Unregister removes a connection.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; ok {
		delete(h.clients, c.ID)
		slog.Debug("Live connection unregistered", "visitor_id", c.VisitorID, "conn_id", c.ID)
	}
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll terminates every connection. Used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		if c.conn != nil {
			_ = c.conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
		delete(h.clients, id)
	}
}
