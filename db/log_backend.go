// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/danielhkuo/quickly-annotate/models"
)

// SQLBackend stores the annotation log in the annotation_log table.
// Each row keeps the full JSON entry in payload, so Load returns exactly
// what the JSONL backend would.
type SQLBackend struct {
	db          *sql.DB
	storageType string
}

// NewSQLBackend wraps an open connection. The schema must already exist.
func NewSQLBackend(db *sql.DB, storageType string) *SQLBackend {
	return &SQLBackend{db: db, storageType: storageType}
}

// rebind turns ? placeholders into $n for PostgreSQL
func (b *SQLBackend) rebind(query string) string {
	if b.storageType != StoragePostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (b *SQLBackend) Load(ctx context.Context, campaignID string) ([]models.LogEntry, error) {
	rows, err := b.db.QueryContext(ctx,
		b.rebind(`SELECT payload FROM annotation_log WHERE campaign_id = ? ORDER BY seq`),
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotation log: %w", err)
	}
	defer rows.Close()

	var entries []models.LogEntry
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		var e models.LogEntry
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("failed to decode annotation: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (b *SQLBackend) Append(ctx context.Context, campaignID string, entry models.LogEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	var userID sql.NullString
	if entry.UserID != nil {
		userID = sql.NullString{String: *entry.UserID, Valid: true}
	}

	_, err = b.db.ExecContext(ctx,
		b.rebind(`INSERT INTO annotation_log (log_id, campaign_id, user_id, item_i, is_reset, payload)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		entry.LogID, campaignID, userID, entry.ItemI, entry.IsReset(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert annotation: %w", err)
	}
	return nil
}
