package store

import (
	"context"

	"github.com/example/celulex-store/internal/catalog"
	"github.com/example/celulex-store/internal/order"
)

// ProductStore is the durable product collection. The collection is read in
// full and replaced in full; it is the sole source of truth for price and stock.
type ProductStore interface {
	List(ctx context.Context) ([]catalog.Product, error)
	ReplaceAll(ctx context.Context, products []catalog.Product) error
}

// OrderStore is the durable, append-style order record, newest first.
type OrderStore interface {
	Prepend(ctx context.Context, o order.Order) error
	List(ctx context.Context) ([]order.Order, error)
}
