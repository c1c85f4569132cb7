package session

import (
	"context"
	"time"

	"github.com/anaphor-dev/anaphor/internal/selection"
)

// Turn is one immutable query/response exchange in a session's history.
// Turns are append-only: never mutated after creation, removed only en
// masse when their session is deleted or purged.
type Turn struct {
	ID         string            `json:"id"`
	SessionID  string            `json:"session_id"`
	TurnNumber int               `json:"turn_number"`
	Query      string            `json:"query"`
	Response   string            `json:"response"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Session is the scope within which turn history and clarification state
// are isolated from other conversations.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClarificationState is the transient record of an unresolved choice
// presented to a session, pending the user's next message. It lives at
// most one TTL and is read and cleared together on that next message.
type ClarificationState struct {
	SessionID     string             `json:"session_id"`
	OriginalQuery string             `json:"original_query"`
	Options       []selection.Option `json:"options"`
	Step          int                `json:"step"`
	CreatedAt     time.Time          `json:"created_at"`
}

// Backend is the injected key-value persistence the clarification state
// store runs on. Implementations must provide per-key atomicity for
// Put/Get/Delete; the state store layers TTL semantics on top and nothing
// else. Get reports false when no value exists for the session.
type Backend interface {
	Put(ctx context.Context, sessionID string, data []byte) error
	Get(ctx context.Context, sessionID string) ([]byte, bool, error)
	Delete(ctx context.Context, sessionID string) error
}
