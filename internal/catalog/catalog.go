package catalog

import (
	"context"
	"errors"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidName     = errors.New("name is required")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidStock    = errors.New("stock must not be negative")
)

// Product is a catalog entry. Price and stock are owned by the product
// store; carts and orders only ever read them.
type Product struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
}

// ProductStore is the slice of the store surface the catalog needs.
// Defined here so the service does not depend on the infrastructure package.
type ProductStore interface {
	List(ctx context.Context) ([]Product, error)
	ReplaceAll(ctx context.Context, products []Product) error
}

type Service struct {
	products ProductStore
}

func NewService(products ProductStore) *Service {
	return &Service{products: products}
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.products.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int) (*Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, ErrProductNotFound
}

// Create assigns the next id (max existing + 1) and appends the product.
func (s *Service) Create(ctx context.Context, p Product) (*Product, error) {
	if err := validate(p); err != nil {
		return nil, err
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}

	nextID := 1
	for _, existing := range products {
		if existing.ID >= nextID {
			nextID = existing.ID + 1
		}
	}
	p.ID = nextID

	products = append(products, p)
	if err := s.products.ReplaceAll(ctx, products); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update replaces the product record with the given id.
func (s *Service) Update(ctx context.Context, id int, p Product) (*Product, error) {
	if err := validate(p); err != nil {
		return nil, err
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range products {
		if products[i].ID == id {
			p.ID = id
			products[i] = p
			if err := s.products.ReplaceAll(ctx, products); err != nil {
				return nil, err
			}
			return &products[i], nil
		}
	}
	return nil, ErrProductNotFound
}

func (s *Service) Delete(ctx context.Context, id int) error {
	products, err := s.products.List(ctx)
	if err != nil {
		return err
	}

	filtered := products[:0:0]
	for _, p := range products {
		if p.ID != id {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == len(products) {
		return ErrProductNotFound
	}
	return s.products.ReplaceAll(ctx, filtered)
}

func validate(p Product) error {
	if p.Name == "" {
		return ErrInvalidName
	}
	if p.Price < 0 {
		return ErrInvalidPrice
	}
	if p.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}
