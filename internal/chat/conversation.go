package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/ashureev/folio/internal/store"
)

// Greeting is the message every conversation starts with.
var Greeting = Message{
	Role:    RoleAssistant,
	Content: "Hi there! I'm the portfolio assistant. Ask me about projects, services, pricing or how to get in touch.",
}

// Apology replaces the assistant reply when the assistant call fails.
const Apology = "Sorry, I'm having trouble responding right now. Please try again later."

// MaxMessageLength bounds a single user message.
const MaxMessageLength = 2000

// ErrEmptyMessage is returned by Send for blank input.
var ErrEmptyMessage = errors.New("message is required")

// ErrMessageTooLong is returned by Send for input over MaxMessageLength runes.
var ErrMessageTooLong = errors.New("message is too long")

// Assistant produces the next reply for a conversation.
type Assistant interface {
	Chat(ctx context.Context, history []Message) (string, error)
}

// Conversation is the persisted message list of one visitor.
type Conversation struct {
	mu        sync.Mutex
	kv        store.KV
	assistant Assistant
	logger    *slog.Logger
	messages  []Message
	// stored is true once storage holds a history value for this visitor.
	stored bool
}

// NewConversation returns a conversation holding only the greeting.
// Call Restore to load persisted history.
func NewConversation(kv store.KV, assistant Assistant, logger *slog.Logger) *Conversation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conversation{
		kv:        kv,
		assistant: assistant,
		logger:    logger,
		messages:  []Message{Greeting},
	}
}

// Restore loads persisted history. Any storage or decode failure is logged
// and the greeting-only state is kept.
func (c *Conversation) Restore(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok, err := c.kv.Get(ctx, store.KeyChatHistory)
	if err != nil {
		c.logger.Warn("Failed to read chat history", "error", err)
		return
	}
	if !ok {
		return
	}
	c.stored = true

	messages, err := Decode(raw)
	if err != nil {
		c.logger.Warn("Ignoring stored chat history", "error", err)
		return
	}
	if len(messages) == 0 {
		return
	}
	c.messages = messages
}

// Messages returns a copy of the current history.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Conversation) snapshot() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Append adds msg and persists the new history.
func (c *Conversation) Append(ctx context.Context, msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	c.persist(ctx)
}

// Send appends the user's message right away, asks the assistant once and
// appends its reply, or Apology when the assistant fails. It returns the
// resulting history. Only invalid input is reported as an error.
func (c *Conversation) Send(ctx context.Context, text string) ([]Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if len([]rune(text)) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	c.mu.Lock()
	c.messages = append(c.messages, Message{Role: RoleUser, Content: text})
	c.persist(ctx)
	history := c.snapshot()
	c.mu.Unlock()

	reply := Apology
	if c.assistant == nil {
		c.logger.Warn("Chat assistant not configured")
	} else if answer, err := c.assistant.Chat(ctx, history); err != nil {
		c.logger.Error("Chat assistant failed", "error", err)
	} else if strings.TrimSpace(answer) != "" {
		reply = answer
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, Message{Role: RoleAssistant, Content: reply})
	c.persist(ctx)
	return c.snapshot(), nil
}

// Reset deletes persisted history and returns to the greeting.
func (c *Conversation) Reset(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = []Message{Greeting}
	if err := c.kv.Delete(ctx, store.KeyChatHistory); err != nil {
		c.logger.Warn("Failed to delete chat history", "error", err)
		return
	}
	c.stored = false
}

// persist writes the full history. The untouched greeting-only state is not
// written while storage is still empty. Callers hold c.mu.
func (c *Conversation) persist(ctx context.Context) {
	if !c.stored && len(c.messages) == 1 && c.messages[0] == Greeting {
		return
	}
	encoded, err := Encode(c.messages)
	if err != nil {
		c.logger.Warn("Failed to encode chat history", "error", err)
		return
	}
	if err := c.kv.Set(ctx, store.KeyChatHistory, encoded); err != nil {
		c.logger.Warn("Failed to save chat history", "error", err)
		return
	}
	c.stored = true
}
