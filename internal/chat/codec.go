// Package chat implements the site's chat widget: a persisted conversation
// with the portfolio assistant.
package chat

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Role identifies the author of a message.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SchemaVersion is the version written by Encode.
const SchemaVersion = 1

var (
	// ErrCorrupt is returned when stored history cannot be decoded.
	ErrCorrupt = errors.New("chat history is corrupt")
	// ErrUnsupportedVersion is returned for history written by a newer schema.
	ErrUnsupportedVersion = errors.New("chat history schema version not supported")
)

type envelope struct {
	Version  int       `json:"v"`
	Messages []Message `json:"messages"`
}

// Encode serializes messages as base64 of a versioned JSON envelope.
// Content is carried as UTF-8, so any Unicode survives the round trip.
func Encode(messages []Message) (string, error) {
	if messages == nil {
		messages = []Message{}
	}
	data, err := json.Marshal(envelope{Version: SchemaVersion, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("encode chat history: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode reverses Encode. Legacy payloads holding a bare JSON array of
// messages are migrated to the current schema.
func Decode(raw string) ([]Message, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrCorrupt, err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrCorrupt)
	}

	var messages []Message
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("%w: legacy json: %v", ErrCorrupt, err)
		}
	case '{':
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("%w: json: %v", ErrCorrupt, err)
		}
		if env.Version > SchemaVersion {
			return nil, fmt.Errorf("%w: v%d", ErrUnsupportedVersion, env.Version)
		}
		if env.Version < 1 {
			return nil, fmt.Errorf("%w: missing version", ErrCorrupt)
		}
		messages = env.Messages
	default:
		return nil, fmt.Errorf("%w: unexpected payload", ErrCorrupt)
	}

	for i, m := range messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return nil, fmt.Errorf("%w: message %d has role %q", ErrCorrupt, i, m.Role)
		}
	}
	if messages == nil {
		messages = []Message{}
	}
	return messages, nil
}
