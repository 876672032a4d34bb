package order

import (
	"time"

	"github.com/example/celulex-store/internal/cart"
	"github.com/google/uuid"
)

// StatusConfirmed is the only status an order ever carries: orders are
// created confirmed and are immutable thereafter.
const StatusConfirmed = "confirmed"

// Customer holds the checkout contact fields. All fields are required.
type Customer struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	PaymentMethod string `json:"paymentMethod"`
}

// Order is a persisted record of a completed checkout. Items are a snapshot
// of the reconciled cart at checkout time.
type Order struct {
	ID            string      `json:"id"`
	CreatedAt     time.Time   `json:"createdAt"`
	Customer      Customer    `json:"customer"`
	Items         []cart.Item `json:"items"`
	Total         float64     `json:"total"`
	TotalQuantity int         `json:"totalQuantity"`
	Status        string      `json:"status"`
}

// New builds a confirmed order from a trusted cart summary.
func New(customer Customer, summary cart.Summary) Order {
	return Order{
		ID:            uuid.New().String(),
		CreatedAt:     time.Now(),
		Customer:      customer,
		Items:         summary.Items,
		Total:         summary.Total,
		TotalQuantity: summary.TotalQuantity,
		Status:        StatusConfirmed,
	}
}
