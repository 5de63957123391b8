package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/jafarshop/gopiorder/internal/config"
)

// Schema creates the order event log. It is safe to run more than once.
const Schema = `
CREATE TABLE IF NOT EXISTS order_events (
	id                UUID PRIMARY KEY,
	session_id        UUID NOT NULL,
	product_handle    TEXT NOT NULL,
	variant_id        BIGINT NOT NULL,
	quantity          INTEGER NOT NULL,
	total             BIGINT NOT NULL,
	commission        BIGINT NOT NULL,
	net_payable       BIGINT NOT NULL,
	status            TEXT NOT NULL,
	failure_kind      TEXT,
	message           TEXT,
	phone_fingerprint TEXT,
	pin_prefix        TEXT,
	created_at        TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS order_events_created_at_idx ON order_events (created_at DESC);
CREATE INDEX IF NOT EXISTS order_events_status_idx ON order_events (status);
`

// DSN builds the lib/pq connection string
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// NewConnection opens and pings the database
func NewConnection(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrate applies Schema
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
