package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/example/celulex-store/internal/email"
	"github.com/example/celulex-store/internal/infrastructure/kafka"
	"github.com/example/celulex-store/internal/notification"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kafkaBrokersStr := getEnv("KAFKA_BROKERS", "localhost:9092")
	kafkaBrokers := strings.Split(kafkaBrokersStr, ",")
	kafkaTopic := getEnv("KAFKA_TOPIC", "celulex-events")
	smtpHost := getEnv("SMTP_HOST", "localhost")
	smtpPort := getEnv("SMTP_PORT", "1025")
	smtpFrom := getEnv("SMTP_FROM", "no-reply@celulex.example")

	log.Println("[Notifier] ========================================")
	log.Println("[Notifier] Celulex Store - Order Notifier")
	log.Println("[Notifier] ========================================")
	log.Printf("[Notifier] Kafka: %v", kafkaBrokers)
	log.Printf("[Notifier] Topic: %s", kafkaTopic)
	log.Printf("[Notifier] SMTP: %s:%s", smtpHost, smtpPort)

	emailSvc := email.NewService(smtpHost, smtpPort, smtpFrom)
	handler := notification.NewHandler(emailSvc)

	consumer := kafka.NewConsumer(kafkaBrokers, kafkaTopic, "celulex-notifier")
	defer consumer.Close()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("[Notifier] Shutting down...")
		cancel()
	}()

	if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && ctx.Err() == nil {
		log.Fatalf("[Notifier] Consumer error: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
