// Package memory keeps per-session chat history.
//
// Implementations:
//   - InMemoryStore: mutex-guarded map with a per-session cap
//   - RedisStore: Redis list per session with TTL
package memory

import (
	"context"
	"time"
)

// Entry is one message in a chat session.
type Entry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Category  string    `json:"category,omitempty"`
	Product   string    `json:"product,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Roles used for chat history entries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultLimit is used by History when limit is not positive.
const DefaultLimit = 50

// Store is the minimal interface for chat history backends.
//
// Example:
//
//	store := NewInMemoryStore(100)
//	err := store.Append(ctx, "session-123", Entry{Role: RoleUser, Content: "iPhone price?"})
//	entries, err := store.History(ctx, "session-123", 10)
type Store interface {
	// Append adds an entry to the end of a session.
	Append(ctx context.Context, sessionID string, entry Entry) error

	// History returns up to limit of the most recent entries, oldest first.
	History(ctx context.Context, sessionID string, limit int) ([]Entry, error)

	// Clear removes a session.
	Clear(ctx context.Context, sessionID string) error

	// Close releases backend resources.
	Close() error
}

func stamp(entry Entry) Entry {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	return entry
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
