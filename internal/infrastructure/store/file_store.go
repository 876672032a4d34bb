package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/example/celulex-store/internal/catalog"
	"github.com/example/celulex-store/internal/order"
)

// FileProductStore keeps the product collection in one JSON file, read in
// full and rewritten in full on every mutation. Writes go through a temp
// file and rename so a crash mid-write never truncates the collection.
// A missing file reads as an empty collection.
type FileProductStore struct {
	mu   sync.RWMutex
	path string
}

func NewFileProductStore(path string) *FileProductStore {
	return &FileProductStore{path: path}
}

func (s *FileProductStore) List(ctx context.Context) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var products []catalog.Product
	if err := readJSONFile(s.path, &products); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return products, nil
}

func (s *FileProductStore) ReplaceAll(ctx context.Context, products []catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if products == nil {
		products = []catalog.Product{}
	}
	if err := writeJSONFile(s.path, products); err != nil {
		return fmt.Errorf("failed to write products: %w", err)
	}
	return nil
}

// FileOrderStore keeps the order record in one JSON file, newest first.
type FileOrderStore struct {
	mu   sync.RWMutex
	path string
}

func NewFileOrderStore(path string) *FileOrderStore {
	return &FileOrderStore{path: path}
}

func (s *FileOrderStore) Prepend(ctx context.Context, o order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orders []order.Order
	if err := readJSONFile(s.path, &orders); err != nil {
		return fmt.Errorf("failed to read orders: %w", err)
	}

	orders = append([]order.Order{o}, orders...)
	if err := writeJSONFile(s.path, orders); err != nil {
		return fmt.Errorf("failed to write orders: %w", err)
	}
	return nil
}

func (s *FileOrderStore) List(ctx context.Context) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var orders []order.Order
	if err := readJSONFile(s.path, &orders); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}
	return orders, nil
}

func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// writeJSONFile writes atomically via temp file + rename.
func writeJSONFile(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
