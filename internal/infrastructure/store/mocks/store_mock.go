package mocks

import (
	"context"
	"sync"

	"github.com/example/celulex-store/internal/catalog"
	"github.com/example/celulex-store/internal/order"
)

// MockProductStore is an in-memory ProductStore for testing.
type MockProductStore struct {
	mu       sync.RWMutex
	products []catalog.Product

	// For tracking calls and injecting failures in tests
	ListCalls       int
	ReplaceAllCalls [][]catalog.Product
	ListErr         error
	ReplaceAllErr   error

	// ListCallback, when set, overrides List. The argument is the 1-based
	// call number, so tests can return different snapshots per call.
	ListCallback func(call int) ([]catalog.Product, error)
}

// NewMockProductStore creates a MockProductStore seeded with the given products.
func NewMockProductStore(products ...catalog.Product) *MockProductStore {
	return &MockProductStore{products: products}
}

func (m *MockProductStore) List(ctx context.Context) ([]catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListCalls++
	if m.ListCallback != nil {
		return m.ListCallback(m.ListCalls)
	}
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	copied := make([]catalog.Product, len(m.products))
	copy(copied, m.products)
	return copied, nil
}

func (m *MockProductStore) ReplaceAll(ctx context.Context, products []catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	recorded := make([]catalog.Product, len(products))
	copy(recorded, products)
	m.ReplaceAllCalls = append(m.ReplaceAllCalls, recorded)

	if m.ReplaceAllErr != nil {
		return m.ReplaceAllErr
	}
	m.products = recorded
	return nil
}

// Snapshot returns the current stored products.
func (m *MockProductStore) Snapshot() []catalog.Product {
	m.mu.RLock()
	defer m.mu.RUnlock()

	copied := make([]catalog.Product, len(m.products))
	copy(copied, m.products)
	return copied
}

// MockOrderStore is an in-memory OrderStore for testing, newest first.
type MockOrderStore struct {
	mu     sync.RWMutex
	orders []order.Order

	PrependCalls []order.Order
	PrependErr   error
	ListErr      error
}

func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{}
}

func (m *MockOrderStore) Prepend(ctx context.Context, o order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PrependCalls = append(m.PrependCalls, o)
	if m.PrependErr != nil {
		return m.PrependErr
	}
	m.orders = append([]order.Order{o}, m.orders...)
	return nil
}

func (m *MockOrderStore) List(ctx context.Context) ([]order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}
	copied := make([]order.Order, len(m.orders))
	copy(copied, m.orders)
	return copied, nil
}

// MockPublisher records published events for testing.
type MockPublisher struct {
	mu         sync.Mutex
	PublishErr error
	Published  []PublishedEvent
}

type PublishedEvent struct {
	Key       string
	EventType string
	Event     any
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, key, eventType string, event any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Published = append(m.Published, PublishedEvent{Key: key, EventType: eventType, Event: event})
	return m.PublishErr
}
