package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Envelope wraps a domain event with its type so consumers can dispatch
// without knowing every payload shape.
type Envelope struct {
	ID        string          `json:"id"`
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer}
}

// Publish wraps the event in an Envelope and writes it keyed by key.
func (p *Producer) Publish(ctx context.Context, key, eventType string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	envelope := Envelope{
		ID:        uuid.New().String(),
		EventType: eventType,
		Data:      data,
		Timestamp: time.Now(),
	}
	value, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
