package audit

import (
	"context"
	"sync"
)

// MemoryStore keeps audit entries in memory. Used for tests and DSN-less
// runs.
type MemoryStore struct {
	mu       sync.Mutex
	activity []ActivityEntry
	security []SecurityEntry
}

// NewMemoryStore returns an empty in-memory audit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) AppendActivity(_ context.Context, e ActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activity = append(m.activity, e)
	return nil
}

func (m *MemoryStore) AppendSecurity(_ context.Context, e SecurityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.security = append(m.security, e)
	return nil
}

// Activity returns a snapshot of the recorded activity entries.
func (m *MemoryStore) Activity() []ActivityEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ActivityEntry, len(m.activity))
	copy(out, m.activity)
	return out
}

// Security returns a snapshot of the recorded security entries.
func (m *MemoryStore) Security() []SecurityEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SecurityEntry, len(m.security))
	copy(out, m.security)
	return out
}
