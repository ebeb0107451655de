// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-annotate/models"
	"github.com/danielhkuo/quickly-annotate/store"
)

func setupSQLite(t *testing.T) *SQLBackend {
	t.Helper()
	conn, err := Open(StorageSQLite, filepath.Join(t.TempDir(), "log.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, CreateSchema(context.Background(), conn, StorageSQLite))
	// second call must be a no-op
	require.NoError(t, CreateSchema(context.Background(), conn, StorageSQLite))
	return NewSQLBackend(conn, StorageSQLite)
}

func TestOpen_UnknownStorage(t *testing.T) {
	_, err := Open("mongo", "whatever")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &SQLBackend{storageType: StoragePostgres}
	assert.Equal(t, "SELECT $1, $2", pg.rebind("SELECT ?, ?"))

	lite := &SQLBackend{storageType: StorageSQLite}
	assert.Equal(t, "SELECT ?, ?", lite.rebind("SELECT ?, ?"))
}

func TestSQLBackend_AppendLoad(t *testing.T) {
	ctx := context.Background()
	b := setupSQLite(t)

	user := "alice"
	first := models.LogEntry{LogID: "a", UserID: &user, ItemI: 2, Annotation: json.RawMessage(`[{"m1":{"score":80}}]`)}
	reset := models.NewResetEntry(nil, 2)
	reset.LogID = "b"

	require.NoError(t, b.Append(ctx, "c1", first))
	require.NoError(t, b.Append(ctx, "c1", reset))
	require.NoError(t, b.Append(ctx, "other", models.LogEntry{LogID: "c", UserID: &user, Annotation: json.RawMessage(`1`)}))

	entries, err := b.Load(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].LogID)
	assert.Equal(t, "alice", entries[0].User())
	assert.JSONEq(t, `[{"m1":{"score":80}}]`, string(entries[0].Annotation))
	assert.True(t, entries[1].IsReset())
	assert.Nil(t, entries[1].UserID)

	empty, err := b.Load(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLBackend_Masking(t *testing.T) {
	ctx := context.Background()
	l := store.NewLog(setupSQLite(t))
	user := "alice"
	item := 0

	for _, e := range []models.LogEntry{
		{UserID: &user, ItemI: item, Annotation: json.RawMessage(`"A"`)},
		models.NewResetEntry(&user, item),
		{UserID: &user, ItemI: item, Annotation: json.RawMessage(`"B"`)},
	} {
		require.NoError(t, l.Append(ctx, "c1", e))
	}

	visible, err := l.Query(ctx, "c1", &user, &item)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.JSONEq(t, `"B"`, string(visible[0].Annotation))
}
