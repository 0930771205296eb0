// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"visa-directory/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the SQL database connection holding complaints and authoritative reviews.
type PostgresClient struct {
	DB *sql.DB
}

// directorySchema is applied idempotently at startup.
const directorySchema = `
CREATE TABLE IF NOT EXISTS complaints (
	id             UUID PRIMARY KEY,
	business_id    TEXT NOT NULL,
	reporter_name  TEXT NOT NULL,
	reporter_email TEXT NOT NULL,
	subject        TEXT NOT NULL,
	description    TEXT NOT NULL,
	status         TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_complaints_business_id ON complaints (business_id);
CREATE TABLE IF NOT EXISTS business_reviews (
	id          TEXT PRIMARY KEY,
	business_id TEXT NOT NULL,
	author_name TEXT NOT NULL,
	rating      SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
	body        TEXT NOT NULL,
	avatar_ref  TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_business_reviews_business_id ON business_reviews (business_id);
`

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// EnsureSchema creates the complaint and review tables when missing.
func (c *PostgresClient) EnsureSchema(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, directorySchema); err != nil {
		return fmt.Errorf("failed to apply directory schema: %w", err)
	}
	return nil
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// GetDB returns the underlying *sql.DB for the stores.
func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}
