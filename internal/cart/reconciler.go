package cart

import "github.com/example/celulex-store/internal/catalog"

// Entry is the raw, unclamped session record of a desired product/quantity pair.
// It is not guaranteed to reference an existing product.
type Entry struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// Item is the reconciled view of an entry joined with its product.
// Quantity never exceeds the product's current stock.
type Item struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Brand    string  `json:"brand"`
	Image    string  `json:"image"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	Quantity int     `json:"quantity"`
	Subtotal float64 `json:"subtotal"`
}

// Summary is the stock-consistent cart view returned to callers.
type Summary struct {
	Items         []Item  `json:"items"`
	Total         float64 `json:"total"`
	TotalQuantity int     `json:"totalQuantity"`
}

// Reconcile derives a stock-consistent summary from raw entries and the
// current product snapshot. Entries referencing missing products are dropped,
// quantities are clamped to [0, stock], and entries reduced to zero are
// dropped. The returned entries are the surviving pairs and become the new
// session cart state, so stale quantities self-heal for subsequent reads.
//
// Reconcile is idempotent: feeding the persisted entries back in with the
// same product snapshot yields an identical summary and no further change.
// Anomalies are normalized, never reported.
func Reconcile(entries []Entry, products []catalog.Product) (Summary, []Entry) {
	byID := make(map[int]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	summary := Summary{Items: make([]Item, 0, len(entries))}
	persisted := make([]Entry, 0, len(entries))

	for _, e := range entries {
		p, ok := byID[e.ProductID]
		if !ok {
			// Product deleted or never existed: silent repair, not an error.
			continue
		}

		quantity := e.Quantity
		if quantity > p.Stock {
			quantity = p.Stock
		}
		if quantity <= 0 {
			continue
		}

		subtotal := p.Price * float64(quantity)
		summary.Items = append(summary.Items, Item{
			ID:       p.ID,
			Name:     p.Name,
			Brand:    p.Brand,
			Image:    p.Image,
			Price:    p.Price,
			Stock:    p.Stock,
			Quantity: quantity,
			Subtotal: subtotal,
		})
		summary.Total += subtotal
		summary.TotalQuantity += quantity
		persisted = append(persisted, Entry{ProductID: p.ID, Quantity: quantity})
	}

	return summary, persisted
}
