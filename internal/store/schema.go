package store

import (
	"context"
	"fmt"
)

// Schéma commun PostgreSQL / SQLite. Montants en unités mineures (BIGINT).
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		price BIGINT NOT NULL CHECK (price >= 0),
		stock BIGINT NOT NULL DEFAULT 0 CHECK (stock >= 0),
		images TEXT NOT NULL DEFAULT '[]',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS carts (
		id TEXT PRIMARY KEY,
		session_key TEXT NOT NULL UNIQUE,
		user_id TEXT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id TEXT PRIMARY KEY,
		cart_id TEXT NOT NULL REFERENCES carts(id),
		product_id TEXT NOT NULL,
		unit_price BIGINT NOT NULL CHECK (unit_price >= 0),
		quantity BIGINT NOT NULL CHECK (quantity >= 1),
		position BIGINT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (cart_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		cart_id TEXT NOT NULL UNIQUE,
		user_id TEXT NULL,
		session_key TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		customer_name TEXT NOT NULL,
		customer_email TEXT NOT NULL,
		customer_phone TEXT NOT NULL,
		address_line1 TEXT NOT NULL,
		address_line2 TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL,
		postal_code TEXT NOT NULL,
		country TEXT NOT NULL,
		delivery_method TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		delivery_price BIGINT NOT NULL,
		total_amount BIGINT NOT NULL CHECK (total_amount >= 0),
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(id),
		product_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		unit_price BIGINT NOT NULL,
		quantity BIGINT NOT NULL CHECK (quantity >= 1),
		subtotal BIGINT NOT NULL,
		position BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cart_items_cart ON cart_items (cart_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_created ON orders (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id)`,
}

// Migrate crée les tables manquantes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration: %w", err)
		}
	}
	return nil
}
