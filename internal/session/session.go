package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/example/celulex-store/internal/cart"
	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// MaxRecentOrders bounds the per-session order history.
const MaxRecentOrders = 10

// Session is the per-client state bag: the raw cart entries, the admin flag
// and a bounded list of recently placed order ids, newest first.
type Session struct {
	ID             string       `json:"id"`
	Cart           []cart.Entry `json:"cart"`
	RecentOrderIDs []string     `json:"recentOrderIds"`
	IsAdmin        bool         `json:"isAdmin"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// New creates an empty session with a fresh id.
func New() *Session {
	return &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
	}
}

// RecordOrder pushes an order id onto the session's history, newest first,
// keeping at most MaxRecentOrders ids.
func (s *Session) RecordOrder(orderID string) {
	ids := append([]string{orderID}, s.RecentOrderIDs...)
	if len(ids) > MaxRecentOrders {
		ids = ids[:MaxRecentOrders]
	}
	s.RecentOrderIDs = ids
}

// Store persists sessions keyed by id.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore is the default in-process session store. Entries expire after
// the configured TTL and are swept lazily on access.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration
}

type memoryEntry struct {
	session   *Session
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
	}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	entry, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	copied := *entry.session
	return &copied, nil
}

func (m *MemoryStore) Put(ctx context.Context, s *Session) error {
	copied := *s

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ID] = memoryEntry{
		session:   &copied,
		expiresAt: time.Now().Add(m.ttl),
	}
	m.sweepLocked()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// sweepLocked drops expired sessions. Caller must hold the write lock.
func (m *MemoryStore) sweepLocked() {
	now := time.Now()
	for id, entry := range m.sessions {
		if now.After(entry.expiresAt) {
			delete(m.sessions, id)
		}
	}
}
