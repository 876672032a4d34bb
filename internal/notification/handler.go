package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/celulex-store/internal/cart"
	"github.com/example/celulex-store/internal/checkout"
	"github.com/example/celulex-store/internal/infrastructure/kafka"
)

// EmailSender is the slice of the email service the notifier needs.
type EmailSender interface {
	SendOrderConfirmation(to, orderID string, total float64, items []cart.Item) error
}

// Handler processes checkout events and sends order confirmation emails.
type Handler struct {
	email EmailSender
}

func NewHandler(email EmailSender) *Handler {
	return &Handler{email: email}
}

// HandleEvent processes an event envelope from Kafka.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var envelope kafka.Envelope
	if err := json.Unmarshal(value, &envelope); err != nil {
		log.Printf("[Notifier] Failed to unmarshal envelope: %v", err)
		return err
	}

	if envelope.EventType != checkout.EventOrderConfirmed {
		return nil
	}
	return h.handleOrderConfirmed(envelope)
}

func (h *Handler) handleOrderConfirmed(envelope kafka.Envelope) error {
	var e checkout.OrderConfirmed
	if err := json.Unmarshal(envelope.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderConfirmed event: %v", err)
		return err
	}

	log.Printf("[Notifier] Processing OrderConfirmed event for order %s", e.OrderID)

	if e.Email == "" {
		log.Printf("[Notifier] Order %s has no customer email, skipping", e.OrderID)
		return nil
	}

	if err := h.email.SendOrderConfirmation(e.Email, e.OrderID, e.Total, e.Items); err != nil {
		log.Printf("[Notifier] Failed to send confirmation for order %s: %v", e.OrderID, err)
		return err
	}

	log.Printf("[Notifier] Confirmation sent for order %s to %s", e.OrderID, e.Email)
	return nil
}
