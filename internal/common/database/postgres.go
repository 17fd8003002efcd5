// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"opulanz-onboarding/internal/common/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresClient owns the shared connection pool. Record stores use DB directly,
// the back-office store goes through the sqlx view returned by X.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens a pooled lib/pq connection. The pool is lazy; call Ping to verify.
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

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// X wraps the pool for sqlx named queries and struct scanning.
func (c *PostgresClient) X() *sqlx.DB {
	return sqlx.NewDb(c.DB, "postgres")
}

// Schema creates the tables used by the submission pipeline and the back office.
const Schema = `
CREATE TABLE IF NOT EXISTS submissions (
	id           UUID PRIMARY KEY,
	reference    TEXT NOT NULL UNIQUE,
	wizard_id    TEXT NOT NULL,
	type         TEXT NOT NULL,
	status       TEXT NOT NULL,
	user_ref     TEXT NOT NULL,
	server_id    TEXT,
	payload      JSONB NOT NULL,
	submitted_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions (user_ref, submitted_at DESC);

CREATE TABLE IF NOT EXISTS audit_log (
	id            BIGSERIAL PRIMARY KEY,
	event_type    TEXT NOT NULL,
	resource_type TEXT NOT NULL,
	resource_id   TEXT NOT NULL,
	details       JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS spv_customers (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	email        TEXT NOT NULL,
	phone        TEXT,
	company      TEXT,
	access_code  TEXT NOT NULL UNIQUE,
	investor_type TEXT NOT NULL,
	profile      TEXT NOT NULL,
	status       TEXT NOT NULL,
	notes        TEXT,
	created_at   TIMESTAMPTZ NOT NULL,
	last_access  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS spv_offerings (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	location      TEXT NOT NULL,
	property_type TEXT,
	size          TEXT,
	year_built    TEXT,
	status        TEXT NOT NULL,
	description   TEXT,
	features      JSONB NOT NULL DEFAULT '[]',
	images        JSONB NOT NULL DEFAULT '[]',
	financials    JSONB NOT NULL DEFAULT '{}',
	bank_transfer JSONB NOT NULL DEFAULT '{}',
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS spv_documents (
	id          TEXT PRIMARY KEY,
	owner_kind  TEXT NOT NULL,
	owner_id    TEXT NOT NULL,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	url         TEXT NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS spv_admins (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	role       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS spv_activity (
	id          TEXT PRIMARY KEY,
	type        TEXT NOT NULL,
	description TEXT NOT NULL,
	entity_id   TEXT,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_spv_activity_created ON spv_activity (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_spv_documents_owner ON spv_documents (owner_kind, owner_id);
`

// Migrate applies Schema. Every statement is idempotent.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
