// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db provides the SQL backend for the annotation log.

# Connecting

Open picks the driver from the storage type (sqlite via modernc.org/sqlite,
postgres via lib/pq) and pings the database:

	conn, err := db.Open(cfg.StorageType, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.CreateSchema(ctx, conn, cfg.StorageType); err != nil {
		log.Fatal(err)
	}

Safe to call CreateSchema multiple times - uses IF NOT EXISTS.

# Tables

  - annotation_log: one row per log entry, in append order (seq)

Columns user_id, item_i and is_reset mirror the entry for ad hoc queries;
payload holds the complete JSON entry and is what the backend reads back.

# Usage

	log := store.NewLog(db.NewSQLBackend(conn, cfg.StorageType))
*/
package db
