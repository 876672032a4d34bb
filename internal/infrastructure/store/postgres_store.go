package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/celulex-store/internal/catalog"
	"github.com/example/celulex-store/internal/order"
	_ "github.com/lib/pq"
)

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// EnsureSchema creates the storefront tables if they do not exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			id          INTEGER PRIMARY KEY,
			name        TEXT NOT NULL,
			brand       TEXT NOT NULL DEFAULT '',
			price       DOUBLE PRECISION NOT NULL,
			stock       INTEGER NOT NULL,
			image       TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS orders (
			id             TEXT PRIMARY KEY,
			created_at     TIMESTAMPTZ NOT NULL,
			customer       JSONB NOT NULL,
			items          JSONB NOT NULL,
			total          DOUBLE PRECISION NOT NULL,
			total_quantity INTEGER NOT NULL,
			status         TEXT NOT NULL
		);
	`)
	return err
}

// PostgresProductStore implements ProductStore over a products table.
// ReplaceAll swaps the whole collection inside one transaction, matching the
// read-everything-then-overwrite contract of the file store.
type PostgresProductStore struct {
	db *sql.DB
}

func NewPostgresProductStore(db *sql.DB) *PostgresProductStore {
	return &PostgresProductStore{db: db}
}

func (s *PostgresProductStore) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, brand, price, stock, image, description
		 FROM products
		 ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Brand, &p.Price, &p.Stock, &p.Image, &p.Description); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *PostgresProductStore) ReplaceAll(ctx context.Context, products []catalog.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM products"); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}

	for _, p := range products {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO products (id, name, brand, price, stock, image, description)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			p.ID, p.Name, p.Brand, p.Price, p.Stock, p.Image, p.Description,
		)
		if err != nil {
			return fmt.Errorf("failed to insert product %d: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// PostgresOrderStore implements OrderStore over an orders table.
type PostgresOrderStore struct {
	db *sql.DB
}

func NewPostgresOrderStore(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

func (s *PostgresOrderStore) Prepend(ctx context.Context, o order.Order) error {
	customer, err := json.Marshal(o.Customer)
	if err != nil {
		return fmt.Errorf("failed to marshal customer: %w", err)
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO orders (id, created_at, customer, items, total, total_quantity, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.CreatedAt, customer, items, o.Total, o.TotalQuantity, o.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (s *PostgresOrderStore) List(ctx context.Context) ([]order.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, customer, items, total, total_quantity, status
		 FROM orders
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		var (
			o        order.Order
			customer []byte
			items    []byte
		)
		if err := rows.Scan(&o.ID, &o.CreatedAt, &customer, &items, &o.Total, &o.TotalQuantity, &o.Status); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if err := json.Unmarshal(customer, &o.Customer); err != nil {
			return nil, fmt.Errorf("failed to unmarshal customer: %w", err)
		}
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
