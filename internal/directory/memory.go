package directory

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
)

// memoryStore is an in-memory Store used for tests and DSN-less runs.
// Enumeration order is insertion order. A single mutex gives the
// at-most-one-writer guarantee ReplaceRoleTier requires.
type memoryStore struct {
	mu    sync.RWMutex
	order []string
	users map[string]*memoryUser
}

type memoryUser struct {
	rec   Record
	roles []string
	tiers []string
}

// NewInMemory returns an empty in-memory directory store.
func NewInMemory() Store {
	return &memoryStore{users: make(map[string]*memoryUser)}
}

func (m *memoryStore) Create(_ context.Context, rec *Record, role string, tier int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[rec.ID]; ok {
		return ErrConflict
	}
	for _, u := range m.users {
		if strings.EqualFold(u.rec.Username, rec.Username) || strings.EqualFold(u.rec.Email, rec.Email) {
			return ErrConflict
		}
	}

	stored := *rec
	m.users[rec.ID] = &memoryUser{
		rec:   stored,
		roles: []string{role},
		tiers: []string{strconv.Itoa(tier)},
	}
	m.order = append(m.order, rec.ID)
	return nil
}

func (m *memoryStore) Find(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return u.rec, nil
}

func (m *memoryStore) FindByUsername(_ context.Context, username string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		if strings.EqualFold(m.users[id].rec.Username, username) {
			return m.users[id].rec, nil
		}
	}
	return Record{}, ErrNotFound
}

func (m *memoryStore) List(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.users[id].rec)
	}
	return out, nil
}

func (m *memoryStore) Roles(_ context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]string, len(u.roles))
	copy(out, u.roles)
	return out, nil
}

func (m *memoryStore) TierClaims(_ context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]string, len(u.tiers))
	copy(out, u.tiers)
	return out, nil
}

func (m *memoryStore) ReplaceRoleTier(_ context.Context, userID, role string, tier int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.roles = []string{role}
	u.tiers = []string{strconv.Itoa(tier)}
	u.rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memoryStore) Lock(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.rec.Locked = true
	u.rec.UpdatedAt = time.Now().UTC()
	return nil
}
