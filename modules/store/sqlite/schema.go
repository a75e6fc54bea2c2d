package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS correlations (
		key         TEXT    PRIMARY KEY,
		channel     TEXT    NOT NULL,
		chat_id     TEXT    NOT NULL,
		recorded_at INTEGER NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_correlations_recorded ON correlations(recorded_at)`,

	// Single-row counter; the CHECK pins the row id so Reserve can target
	// it without an upsert.
	`CREATE TABLE IF NOT EXISTS usage (
		id   INTEGER PRIMARY KEY CHECK (id = 1),
		used INTEGER NOT NULL DEFAULT 0
	)`,

	`INSERT OR IGNORE INTO usage (id, used) VALUES (1, 0)`,
}

// migrate creates or updates the database schema to the latest version.
// All DDL uses IF NOT EXISTS, making migration idempotent.
func migrate(db *sql.DB) error {
	ctx := context.TODO()

	// Ensure schema_version table exists first.
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("sqlite: record schema version: %w", err)
	}

	return nil
}
