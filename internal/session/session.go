// ABOUTME: Session types for conversation state: messages, context, preferences.
// ABOUTME: A session is live until its inactivity TTL lapses, then indistinguishable from unseen.

package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested session does not exist
var ErrNotFound = errors.New("session not found")

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single entry in a conversation transcript.
// Insertion order is meaningful and messages are append-only.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with a fresh id and the current time.
func NewMessage(content, role string) Message {
	return Message{
		ID:        uuid.New().String(),
		Content:   content,
		Role:      role,
		Timestamp: time.Now().UTC(),
	}
}

// Context is the mutable key-value memory carried across turns.
type Context struct {
	Memory       map[string]any `json:"memory"`
	Preferences  map[string]any `json:"preferences"`
	LastIntent   string         `json:"last_intent"`
	LastEntities map[string]any `json:"last_entities"`
}

// NewContext returns an empty context with initialized maps.
func NewContext() Context {
	return Context{
		Memory:       make(map[string]any),
		Preferences:  make(map[string]any),
		LastEntities: make(map[string]any),
	}
}

// clone returns an independent copy of the context.
func (c Context) clone() Context {
	out := Context{
		Memory:       make(map[string]any, len(c.Memory)),
		Preferences:  make(map[string]any, len(c.Preferences)),
		LastIntent:   c.LastIntent,
		LastEntities: make(map[string]any, len(c.LastEntities)),
	}
	for k, v := range c.Memory {
		out.Memory[k] = v
	}
	for k, v := range c.Preferences {
		out.Preferences[k] = v
	}
	for k, v := range c.LastEntities {
		out.LastEntities[k] = v
	}
	return out
}

// Session is the full state of one ongoing conversation.
type Session struct {
	ID           string    `json:"id"`
	Context      Context   `json:"context"`
	Messages     []Message `json:"messages"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// newSession creates an empty session for the given conversation id.
func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:           id,
		Context:      NewContext(),
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// snapshot returns an independent copy safe to hand to callers.
func (s *Session) snapshot() *Session {
	out := &Session{
		ID:           s.ID,
		Context:      s.Context.clone(),
		Messages:     make([]Message, len(s.Messages)),
		CreatedAt:    s.CreatedAt,
		LastActiveAt: s.LastActiveAt,
	}
	copy(out.Messages, s.Messages)
	return out
}
