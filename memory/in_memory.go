package memory

import (
	"context"
	"sync"
)

// InMemoryStore keeps history in process memory. When a session exceeds
// maxSize entries the oldest are evicted.
//
// Example:
//
//	store := NewInMemoryStore(1000)
type InMemoryStore struct {
	maxSize int
	mu      sync.RWMutex
	// sessionID -> entries, oldest first
	sessions map[string][]Entry
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an in-memory store. maxSize <= 0 means unbounded.
func NewInMemoryStore(maxSize int) *InMemoryStore {
	return &InMemoryStore{
		maxSize:  maxSize,
		sessions: make(map[string][]Entry),
	}
}

// Append adds an entry to the session.
func (m *InMemoryStore) Append(ctx context.Context, sessionID string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := append(m.sessions[sessionID], stamp(entry))
	if m.maxSize > 0 && len(entries) > m.maxSize {
		entries = append([]Entry(nil), entries[len(entries)-m.maxSize:]...)
	}
	m.sessions[sessionID] = entries
	return nil
}

// History returns the most recent entries of a session, oldest first.
func (m *InMemoryStore) History(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.sessions[sessionID]
	limit = normalizeLimit(limit)
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Clear removes a session.
func (m *InMemoryStore) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

// SessionCount returns the number of entries stored for a session.
func (m *InMemoryStore) SessionCount(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions[sessionID])
}

// Close is a no-op.
func (m *InMemoryStore) Close() error {
	return nil
}
