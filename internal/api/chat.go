package api

import (
	"errors"
	"net/http"

	"github.com/ashureev/folio/internal/chat"
	"github.com/ashureev/folio/internal/identity"
	"github.com/ashureev/folio/internal/store"
)

// ChatHistory is the body returned by every chat route.
type ChatHistory struct {
	Messages []chat.Message `json:"messages"`
}

// SendMessageRequest is the body of POST /api/chat/messages.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// Limiter admits or rejects a request for a key.
type Limiter interface {
	Allow(key string) bool
}

// ChatHandler serves the chat widget routes.
type ChatHandler struct {
	*Handler
	assistant chat.Assistant
	limiter   Limiter
}

// NewChatHandler creates a chat handler. A nil assistant answers every
// message with chat.Apology. Sends are counted against limiter per visitor;
// a nil limiter admits everything.
func NewChatHandler(h *Handler, assistant chat.Assistant, limiter Limiter) *ChatHandler {
	return &ChatHandler{Handler: h, assistant: assistant, limiter: limiter}
}

func (h *ChatHandler) conversation(r *http.Request) (*chat.Conversation, bool) {
	visitorID := identity.VisitorIDFromContext(r.Context())
	if visitorID == "" {
		return nil, false
	}
	logger := h.logger.With("visitor_id", visitorID)
	conv := chat.NewConversation(store.Scoped(h.storage, visitorID), h.assistant, logger)
	conv.Restore(r.Context())
	return conv, true
}

// GetHistory handles GET /api/chat/history.
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversation(r)
	if !ok {
		Error(w, http.StatusUnauthorized, "unknown visitor")
		return
	}
	JSON(w, http.StatusOK, ChatHistory{Messages: conv.Messages()})
}

// SendMessage handles POST /api/chat/messages.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversation(r)
	if !ok {
		Error(w, http.StatusUnauthorized, "unknown visitor")
		return
	}

	var req SendMessageRequest
	if !h.decode(w, r, &req) {
		return
	}

	visitorID := identity.VisitorIDFromContext(r.Context())
	if h.limiter != nil && !h.limiter.Allow(visitorID) {
		h.logger.Warn("Chat rate limit exceeded", "visitor_id", visitorID, "ip", identity.IPFromRequest(r))
		Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	messages, err := conv.Send(r.Context(), req.Content)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) || errors.Is(err, chat.ErrMessageTooLong) {
			Error(w, http.StatusBadRequest, err.Error())
			return
		}
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	JSON(w, http.StatusOK, ChatHistory{Messages: messages})
}

// ResetHistory handles DELETE /api/chat/history.
func (h *ChatHandler) ResetHistory(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversation(r)
	if !ok {
		Error(w, http.StatusUnauthorized, "unknown visitor")
		return
	}
	conv.Reset(r.Context())
	JSON(w, http.StatusOK, ChatHistory{Messages: conv.Messages()})
}
