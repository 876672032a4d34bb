package cart

import (
	"context"
	"errors"

	"github.com/example/celulex-store/internal/catalog"
)

var (
	ErrItemNotFound    = errors.New("cart item not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Service composes cart mutations on top of Reconcile. Every operation
// returns the fresh summary plus the entries to persist back to the session,
// so the stored cart always reflects the reconciled state.
type Service struct {
	products catalog.ProductStore
}

func NewService(products catalog.ProductStore) *Service {
	return &Service{products: products}
}

// Summary reconciles the given entries against the live product collection.
func (s *Service) Summary(ctx context.Context, entries []Entry) (Summary, []Entry, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return Summary{}, nil, err
	}
	summary, persisted := Reconcile(entries, products)
	return summary, persisted, nil
}

// AddItem adds quantity of a product to the cart, appending a new entry if
// none exists. The requested quantity is not clamped here; clamping happens
// at reconcile time.
func (s *Service) AddItem(ctx context.Context, entries []Entry, productID, quantity int) (Summary, []Entry, error) {
	if quantity < 1 {
		return Summary{}, nil, ErrInvalidQuantity
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return Summary{}, nil, err
	}

	found := false
	for _, p := range products {
		if p.ID == productID {
			found = true
			break
		}
	}
	if !found {
		return Summary{}, nil, catalog.ErrProductNotFound
	}

	updated := false
	for i := range entries {
		if entries[i].ProductID == productID {
			entries[i].Quantity += quantity
			updated = true
			break
		}
	}
	if !updated {
		entries = append(entries, Entry{ProductID: productID, Quantity: quantity})
	}

	summary, persisted := Reconcile(entries, products)
	return summary, persisted, nil
}

// ChangeItem adjusts an existing entry's quantity by delta, which may be
// negative. An entry whose pre-clamp quantity drops to zero or below is
// removed immediately rather than left for reconcile to drop.
func (s *Service) ChangeItem(ctx context.Context, entries []Entry, productID, delta int) (Summary, []Entry, error) {
	index := -1
	for i := range entries {
		if entries[i].ProductID == productID {
			index = i
			break
		}
	}
	if index == -1 {
		return Summary{}, nil, ErrItemNotFound
	}

	entries[index].Quantity += delta
	if entries[index].Quantity <= 0 {
		entries = append(entries[:index], entries[index+1:]...)
	}

	return s.Summary(ctx, entries)
}

// RemoveItem drops the entry for a product. Removing an absent product is
// not an error.
func (s *Service) RemoveItem(ctx context.Context, entries []Entry, productID int) (Summary, []Entry, error) {
	filtered := entries[:0:0]
	for _, e := range entries {
		if e.ProductID != productID {
			filtered = append(filtered, e)
		}
	}
	return s.Summary(ctx, filtered)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context) (Summary, []Entry, error) {
	return Summary{Items: []Item{}}, nil, nil
}
