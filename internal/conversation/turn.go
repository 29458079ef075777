// Package conversation maintains the bounded rolling chat history kept for each
// completion provider. A history is an ordered sequence of turns whose first
// element is the pinned system instruction; everything after it is subject to
// oldest-first eviction when the token budget is exceeded.
package conversation

import (
	"encoding/json"
	"strings"
)

// Role identifies the author class of a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message unit in a conversation. Name is set only on user turns
// and must already be sanitized; the JSON shape matches the provider wire
// format so the serialized history is what the token count is measured on.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// SystemTurn builds the pinned instruction turn installed at index 0.
func SystemTurn(content string) Turn {
	return Turn{Role: RoleSystem, Content: content}
}

// UserTurn builds a user turn, sanitizing the author name.
func UserTurn(content, author string) Turn {
	return Turn{Role: RoleUser, Content: content, Name: SanitizeAuthorName(author)}
}

// AssistantTurn builds an assistant reply turn.
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// MarshalTurns serializes turns in the canonical provider wire shape. This is
// the exact text the budget enforcer counts tokens on.
func MarshalTurns(turns []Turn) (string, error) {
	data, err := json.Marshal(turns)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SanitizeAuthorName strips characters outside [A-Za-z0-9_-] and truncates the
// result to 64 characters. Providers reject message names outside
// ^[A-Za-z0-9_-]{1,64}$, so invalid characters are removed rather than the
// name rejected; allowed characters keep their original order.
func SanitizeAuthorName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	s := b.String()
	if len(s) > 64 {
		s = s[:64]
	}
	return s
}
