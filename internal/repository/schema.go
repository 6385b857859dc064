package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS worlds (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		is_public   BOOLEAN NOT NULL DEFAULT FALSE,
		user_id     TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS worlds_user_id_updated_at_idx ON worlds (user_id, updated_at DESC)`,
	`CREATE TABLE IF NOT EXISTS characters (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		role        TEXT,
		description TEXT,
		image_url   TEXT,
		world_id    TEXT NOT NULL REFERENCES worlds (id) ON DELETE CASCADE,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS locations (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		type        TEXT,
		description TEXT,
		image_url   TEXT,
		parent_id   TEXT REFERENCES locations (id) ON DELETE SET NULL,
		world_id    TEXT NOT NULL REFERENCES worlds (id) ON DELETE CASCADE,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		date        TEXT,
		description TEXT,
		world_id    TEXT NOT NULL REFERENCES worlds (id) ON DELETE CASCADE,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS characters_world_id_idx ON characters (world_id)`,
	`CREATE INDEX IF NOT EXISTS locations_world_id_idx ON locations (world_id)`,
	`CREATE INDEX IF NOT EXISTS events_world_id_idx ON events (world_id)`,
}

// Migrate creates the tables used by Repository when they do not exist yet
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
