package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaDDL is the bootstrap schema used by tests and local setups.
// List-valued columns are stored as jsonb arrays.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
        user_id       TEXT PRIMARY KEY,
        username      TEXT NOT NULL UNIQUE,
        email         TEXT NOT NULL,
        preferences   JSONB NOT NULL DEFAULT '[]'::jsonb,
        interests     JSONB NOT NULL DEFAULT '[]'::jsonb,
        creation_time TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE TABLE IF NOT EXISTS contents (
        content_id    TEXT PRIMARY KEY,
        creator_id    TEXT NOT NULL REFERENCES users(user_id),
        title         TEXT NOT NULL,
        description   TEXT NOT NULL DEFAULT '',
        body          TEXT NOT NULL DEFAULT '',
        content_type  TEXT NOT NULL DEFAULT '',
        categories    JSONB NOT NULL DEFAULT '[]'::jsonb,
        tags          JSONB NOT NULL DEFAULT '[]'::jsonb,
        creation_time TIMESTAMPTZ NOT NULL DEFAULT now(),
        update_time   TIMESTAMPTZ
    )`,
	`CREATE INDEX IF NOT EXISTS contents_creator_idx ON contents (creator_id)`,
	`CREATE TABLE IF NOT EXISTS interactions (
        interaction_id TEXT PRIMARY KEY,
        kind           TEXT NOT NULL CHECK (kind IN ('share','like','comment','follow')),
        user_id        TEXT NOT NULL REFERENCES users(user_id),
        target_id      TEXT NOT NULL,
        text           TEXT NOT NULL DEFAULT '',
        creation_time  TIMESTAMPTZ NOT NULL DEFAULT now(),
        CONSTRAINT interactions_no_self_follow CHECK (kind <> 'follow' OR user_id <> target_id)
    )`,
	`CREATE UNIQUE INDEX IF NOT EXISTS interactions_unique_idx
        ON interactions (kind, user_id, target_id) WHERE kind IN ('share','like','follow')`,
	`CREATE INDEX IF NOT EXISTS interactions_user_kind_idx ON interactions (user_id, kind, creation_time DESC)`,
	`CREATE INDEX IF NOT EXISTS interactions_target_idx ON interactions (target_id, kind)`,
	`CREATE TABLE IF NOT EXISTS outbox (
        id              BIGSERIAL PRIMARY KEY,
        aggregate_id    TEXT NOT NULL,
        op              TEXT NOT NULL,
        payload         JSONB NOT NULL,
        status          TEXT NOT NULL DEFAULT 'pending',
        attempt_count   INT NOT NULL DEFAULT 0,
        next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        creation_time   TIMESTAMPTZ NOT NULL DEFAULT now(),
        update_time     TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE INDEX IF NOT EXISTS outbox_ready_idx ON outbox (status, next_attempt_at)`,
}

// EnsureSchema creates the tables and indexes when they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
