package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps the PostgreSQL connection pool
type DB struct {
	*sql.DB
}

// New opens a PostgreSQL connection pool and verifies it is reachable
func New(ctx context.Context, databaseURL string) (*DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: conn}, nil
}

const schema = `
	CREATE TABLE IF NOT EXISTS weekly_reports (
		id UUID PRIMARY KEY,
		content TEXT NOT NULL,
		fallback BOOLEAN NOT NULL DEFAULT FALSE,
		total_tasks INTEGER NOT NULL,
		completed_tasks INTEGER NOT NULL,
		in_progress_tasks INTEGER NOT NULL,
		generated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_weekly_reports_generated_at ON weekly_reports (generated_at DESC);
`

// Migrate creates the tables used by the report archive
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// HealthCheck pings the database
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}
