package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the user directory and the sent-message ledger. The
// composite primary key on sent_messages is what makes ledger inserts
// conditional.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id     TEXT PRIMARY KEY,
		first_name  TEXT NOT NULL,
		last_name   TEXT NOT NULL,
		birthday    TEXT NOT NULL,
		anniversary TEXT,
		time_zone   TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS users_time_zone_idx ON users (time_zone)`,
	`CREATE TABLE IF NOT EXISTS sent_messages (
		user_id     TEXT NOT NULL,
		message_key TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, message_key)
	)`,
}

// EnsureSchema creates missing tables and indexes. It is safe to run on every start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

// Open connects to Postgres with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
