// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Storage types accepted by Open
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Open connects to the annotation log database and verifies the connection
func Open(storageType, url string) (*sql.DB, error) {
	var driver string
	switch storageType {
	case StorageSQLite:
		driver = "sqlite"
	case StoragePostgres:
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported storage type %q", storageType)
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if storageType == StorageSQLite {
		// one writer at a time, otherwise appends race into SQLITE_BUSY
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return conn, nil
}

// CreateSchema creates the annotation log table for the given storage type.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB, storageType string) error {
	stmts := postgresSchema
	if storageType == StorageSQLite {
		stmts = sqliteSchema
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS annotation_log (
    seq BIGSERIAL PRIMARY KEY,
    log_id TEXT NOT NULL UNIQUE,
    campaign_id TEXT NOT NULL,
    user_id TEXT,
    item_i INTEGER NOT NULL,
    is_reset BOOLEAN NOT NULL DEFAULT FALSE,
    payload TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_annotation_log_campaign ON annotation_log(campaign_id, seq)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS annotation_log (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    log_id TEXT NOT NULL UNIQUE,
    campaign_id TEXT NOT NULL,
    user_id TEXT,
    item_i INTEGER NOT NULL,
    is_reset BOOLEAN NOT NULL DEFAULT 0,
    payload TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE INDEX IF NOT EXISTS idx_annotation_log_campaign ON annotation_log(campaign_id, seq)`,
}
