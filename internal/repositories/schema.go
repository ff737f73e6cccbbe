package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS consents (
		user_id BIGINT PRIMARY KEY,
		accepted_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		code TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		price NUMERIC(10,2) NOT NULL,
		targets JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		product_code TEXT NOT NULL REFERENCES products(code),
		amount NUMERIC(10,2) NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS receipts (
		id BIGSERIAL PRIMARY KEY,
		order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		file_id TEXT NOT NULL,
		file_kind TEXT NOT NULL,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS tokens (
		token TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		user_id BIGINT NOT NULL,
		expires_at TIMESTAMPTZ NULL,
		redeemed_at TIMESTAMPTZ NULL
	)`,
	`CREATE TABLE IF NOT EXISTS allowed_users (
		user_id BIGINT NOT NULL,
		target TEXT NOT NULL,
		PRIMARY KEY (user_id, target)
	)`,
	`CREATE TABLE IF NOT EXISTS invoice_requests (
		id BIGSERIAL PRIMARY KEY,
		order_id BIGINT NOT NULL UNIQUE REFERENCES orders(id) ON DELETE CASCADE,
		requested_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		closed BOOLEAN NOT NULL DEFAULT FALSE
	)`,
}

// Bootstrap creates all tables if they do not exist yet. The uniqueness of
// invoice_requests.order_id is part of the schema: the reopen upsert relies
// on it as a conflict target.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}
