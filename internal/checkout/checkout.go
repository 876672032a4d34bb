package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/example/celulex-store/internal/cart"
	"github.com/example/celulex-store/internal/infrastructure/store"
	"github.com/example/celulex-store/internal/order"
	"github.com/example/celulex-store/internal/session"
)

var ErrEmptyCart = errors.New("cart is empty")

// ValidationError reports blank or missing customer fields by name.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// InsufficientStockError is returned when a product's live stock no longer
// covers the requested quantity at checkout time.
type InsufficientStockError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: %d requested, %d available",
		e.ProductName, e.Requested, e.Available)
}

// EventOrderConfirmed is published after a checkout commits.
const EventOrderConfirmed = "OrderConfirmed"

// OrderConfirmed is the event payload emitted for downstream consumers
// (e.g. the notifier sending confirmation email).
type OrderConfirmed struct {
	OrderID       string      `json:"order_id"`
	Email         string      `json:"email"`
	CustomerName  string      `json:"customer_name"`
	Items         []cart.Item `json:"items"`
	Total         float64     `json:"total"`
	TotalQuantity int         `json:"total_quantity"`
	ConfirmedAt   time.Time   `json:"confirmed_at"`
}

// EventPublisher publishes domain events. A nil publisher disables publishing.
type EventPublisher interface {
	Publish(ctx context.Context, key, eventType string, event any) error
}

// Receipt is the successful checkout response.
type Receipt struct {
	OrderID string  `json:"orderId"`
	Total   float64 `json:"total"`
}

// Service runs the checkout transaction: validate, reconcile, re-check live
// stock, decrement and persist, append the order, clear the session cart.
// The read-check-decrement-write sequence is serialized behind a per-process
// mutex so two concurrent checkouts cannot both pass the sufficiency check
// before either writes.
type Service struct {
	mu        sync.Mutex
	products  store.ProductStore
	orders    store.OrderStore
	carts     *cart.Service
	publisher EventPublisher
}

func NewService(products store.ProductStore, orders store.OrderStore, carts *cart.Service, publisher EventPublisher) *Service {
	return &Service{
		products:  products,
		orders:    orders,
		carts:     carts,
		publisher: publisher,
	}
}

// Checkout converts the session's cart into a persisted order. It either
// fully succeeds (stock decremented, order appended, cart cleared) or fully
// fails with no persisted side effects.
func (s *Service) Checkout(ctx context.Context, sess *session.Session, customer order.Customer) (*Receipt, error) {
	// Fail fast on missing fields before touching storage.
	if missing := missingFields(customer); len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Reconcile for a trusted summary; the clamped entries self-heal the
	// session cart even if the checkout aborts below.
	summary, persisted, err := s.carts.Summary(ctx, sess.Cart)
	if err != nil {
		return nil, err
	}
	sess.Cart = persisted

	if len(summary.Items) == 0 {
		return nil, ErrEmptyCart
	}

	// Re-read the collection fresh: reconciliation clamped to previously
	// read stock, not stock at transaction time.
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}

	stockByID := make(map[int]int, len(products))
	for _, p := range products {
		stockByID[p.ID] = p.Stock
	}
	for _, item := range summary.Items {
		if available := stockByID[item.ID]; available < item.Quantity {
			return nil, &InsufficientStockError{
				ProductName: item.Name,
				Requested:   item.Quantity,
				Available:   available,
			}
		}
	}

	// Every item passed: decrement in one pass and persist.
	decrement := make(map[int]int, len(summary.Items))
	for _, item := range summary.Items {
		decrement[item.ID] = item.Quantity
	}
	updatedProducts := products[:0:0]
	for _, p := range products {
		p.Stock -= decrement[p.ID]
		updatedProducts = append(updatedProducts, p)
	}
	if err := s.products.ReplaceAll(ctx, updatedProducts); err != nil {
		return nil, fmt.Errorf("failed to persist stock: %w", err)
	}

	o := order.New(customer, summary)
	if err := s.orders.Prepend(ctx, o); err != nil {
		// Roll the stock decrement back so a failed append leaves no
		// partial state behind.
		if restoreErr := s.products.ReplaceAll(ctx, products); restoreErr != nil {
			log.Printf("[Checkout] Failed to restore stock after order append error: %v", restoreErr)
		}
		return nil, fmt.Errorf("failed to record order: %w", err)
	}

	sess.Cart = nil
	sess.RecordOrder(o.ID)

	s.publishConfirmed(ctx, o)

	return &Receipt{OrderID: o.ID, Total: o.Total}, nil
}

// publishConfirmed emits the OrderConfirmed event. Publishing is best-effort:
// the order is already committed, so failures are logged, never returned.
func (s *Service) publishConfirmed(ctx context.Context, o order.Order) {
	if s.publisher == nil {
		return
	}

	event := OrderConfirmed{
		OrderID:       o.ID,
		Email:         o.Customer.Email,
		CustomerName:  o.Customer.Name,
		Items:         o.Items,
		Total:         o.Total,
		TotalQuantity: o.TotalQuantity,
		ConfirmedAt:   o.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, o.ID, EventOrderConfirmed, event); err != nil {
		log.Printf("[Checkout] Failed to publish OrderConfirmed for order %s: %v", o.ID, err)
	}
}

var requiredFields = []string{"name", "email", "phone", "address", "paymentMethod"}

func missingFields(c order.Customer) []string {
	values := map[string]string{
		"name":          c.Name,
		"email":         c.Email,
		"phone":         c.Phone,
		"address":       c.Address,
		"paymentMethod": c.PaymentMethod,
	}

	var missing []string
	for _, field := range requiredFields {
		if strings.TrimSpace(values[field]) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}
