package cache

import (
	"context"
	"sync"
	"time"

	"github.com/oksasatya/go-ddd-identity/internal/application"
)

// entry expires at a fixed instant; a zero expiry never expires.
type entry[T any] struct {
	value   T
	expires time.Time
}

func (e entry[T]) live(now time.Time) bool {
	return e.expires.IsZero() || now.Before(e.expires)
}

// MemorySessionStore keeps sessions in process memory. It is used when no
// Redis address is configured and in handler tests.
type MemorySessionStore struct {
	mu    sync.Mutex
	items map[string]entry[application.Session]
	now   func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{items: make(map[string]entry[application.Session]), now: time.Now}
}

func (m *MemorySessionStore) Put(_ context.Context, s application.Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := entry[application.Session]{value: s}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.items[s.UserID] = e
	return nil
}

func (m *MemorySessionStore) Update(_ context.Context, s application.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[s.UserID]
	if !ok || !e.live(m.now()) {
		delete(m.items, s.UserID)
		return application.ErrSessionNotFound
	}
	e.value = s
	m.items[s.UserID] = e
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, userID string) (application.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[userID]
	if !ok || !e.live(m.now()) {
		delete(m.items, userID)
		return application.Session{}, application.ErrSessionNotFound
	}
	return e.value, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, userID)
	return nil
}

type MemoryVerificationStore struct {
	mu    sync.Mutex
	items map[string]entry[string]
	now   func() time.Time
}

func NewMemoryVerificationStore() *MemoryVerificationStore {
	return &MemoryVerificationStore{items: make(map[string]entry[string]), now: time.Now}
}

func (m *MemoryVerificationStore) Save(_ context.Context, token, userID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := entry[string]{value: userID}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.items[token] = e
	return nil
}

func (m *MemoryVerificationStore) Consume(_ context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[token]
	delete(m.items, token)
	if !ok || !e.live(m.now()) {
		return "", application.ErrVerificationTokenNotFound
	}
	return e.value, nil
}

var (
	_ application.SessionStore      = (*MemorySessionStore)(nil)
	_ application.VerificationStore = (*MemoryVerificationStore)(nil)
)
