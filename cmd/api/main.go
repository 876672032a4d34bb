package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/example/celulex-store/internal/api"
	"github.com/example/celulex-store/internal/auth"
	"github.com/example/celulex-store/internal/cart"
	"github.com/example/celulex-store/internal/catalog"
	"github.com/example/celulex-store/internal/checkout"
	"github.com/example/celulex-store/internal/infrastructure/kafka"
	"github.com/example/celulex-store/internal/infrastructure/store"
	"github.com/example/celulex-store/internal/session"
)

const sessionTTL = 4 * time.Hour

func main() {
	// Configuration from environment variables
	port := getEnv("PORT", "3000")
	productsFile := getEnv("DATA_FILE", "data/products.json")
	ordersFile := getEnv("ORDERS_FILE", "data/orders.json")
	webDir := getEnv("WEB_DIR", "public")
	adminUser := getEnv("ADMIN_USER", "admin")
	adminPasswordHash := os.Getenv("ADMIN_PASSWORD_HASH")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPasswordHash == "" && adminPassword == "" {
		log.Fatal("[API] ADMIN_PASSWORD_HASH or ADMIN_PASSWORD is required")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("[API] JWT_SECRET environment variable is required")
	}
	if len(jwtSecret) < 32 {
		log.Fatal("[API] JWT_SECRET must be at least 32 characters long")
	}

	log.Println("[API] ========================================")
	log.Println("[API] Celulex Store")
	log.Println("[API] ========================================")

	// Stores: PostgreSQL when DATABASE_URL is set, JSON files otherwise.
	var (
		products store.ProductStore
		orders   store.OrderStore
	)
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		db, err := store.ConnectPostgres(connStr)
		if err != nil {
			log.Fatalf("[API] Failed to connect to PostgreSQL: %v", err)
		}
		defer db.Close()
		if err := store.EnsureSchema(db); err != nil {
			log.Fatalf("[API] Failed to ensure schema: %v", err)
		}
		products = store.NewPostgresProductStore(db)
		orders = store.NewPostgresOrderStore(db)
		log.Println("[API] Storage: PostgreSQL")
	} else {
		products = store.NewFileProductStore(productsFile)
		orders = store.NewFileOrderStore(ordersFile)
		log.Printf("[API] Storage: JSON files (%s, %s)", productsFile, ordersFile)
	}

	// Sessions: Redis when REDIS_ADDR is set, in-memory otherwise.
	var sessions session.Store
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisStore, err := session.NewRedisStore(redisAddr, sessionTTL)
		if err != nil {
			log.Fatalf("[API] Failed to connect to Redis: %v", err)
		}
		defer redisStore.Close()
		sessions = redisStore
		log.Printf("[API] Sessions: Redis (%s)", redisAddr)
	} else {
		sessions = session.NewMemoryStore(sessionTTL)
		log.Println("[API] Sessions: in-memory")
	}

	// Optional Kafka producer for order.confirmed events.
	var publisher checkout.EventPublisher
	if brokersStr := os.Getenv("KAFKA_BROKERS"); brokersStr != "" {
		brokers := strings.Split(brokersStr, ",")
		topic := getEnv("KAFKA_TOPIC", "celulex-events")
		producer := kafka.NewProducer(brokers, topic)
		defer producer.Close()
		publisher = producer
		log.Printf("[API] Kafka: %v topic=%s", brokers, topic)
	} else {
		log.Println("[API] Kafka: disabled")
	}

	// Domain services
	catalogSvc := catalog.NewService(products)
	cartSvc := cart.NewService(products)
	checkoutSvc := checkout.NewService(products, orders, cartSvc, publisher)

	// Auth
	credentials := auth.NewAdminCredentials(adminUser, adminPasswordHash, adminPassword)
	jwtService := auth.NewJWTService(jwtSecret, 4*time.Hour)

	// API
	handlers := api.NewHandlers(catalogSvc, cartSvc, checkoutSvc, orders, sessions)
	adminHandlers := api.NewAdminHandlers(catalogSvc, credentials, jwtService, sessions)
	router := api.NewRouter(api.RouterConfig{
		Handlers:      handlers,
		AdminHandlers: adminHandlers,
		JWTService:    jwtService,
		Sessions:      sessions,
		WebDir:        webDir,
	})

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("[API] Server started on :%s", port)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
