// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseIntegrity(t *testing.T) {
	t.Parallel()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "Failed to initialize database")
	defer db.Close()

	for _, table := range []string{"users", "bot_settings", "migrations"} {
		var count int
		err := db.conn.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "Table %s should exist", table)
	}

	expectedColumns := map[string]bool{
		"id":               false,
		"banned":           false,
		"extraction_mode":  false,
		"rename_template":  false,
		"caption_template": false,
		"thumbnail_ref":    false,
		"meta_enabled":     false,
		"sort_mode":        false,
		"sticker_mode":     false,
		"dump_channel":     false,
		"file_count":       false,
		"last_activity":    false,
	}

	rows, err := db.conn.Query(`SELECT name FROM pragma_table_info('users')`)
	require.NoError(t, err)
	defer rows.Close()

	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		if _, ok := expectedColumns[name]; ok {
			expectedColumns[name] = true
		}
	}
	require.NoError(t, rows.Err())

	for col, found := range expectedColumns {
		assert.True(t, found, "Column %s should exist in users table", col)
	}
}

func TestMigrationIdempotency(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	db1, err := New(dbPath)
	require.NoError(t, err)

	var count1 int
	require.NoError(t, db1.conn.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count1))
	require.NoError(t, db1.Close())

	db2, err := New(dbPath)
	require.NoError(t, err)
	defer db2.Close()

	var count2 int
	require.NoError(t, db2.conn.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count2))

	assert.Equal(t, count1, count2)
	assert.Equal(t, 1, count2)
}

func TestConcurrentWrites(t *testing.T) {
	t.Parallel()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	ctx := t.Context()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			_, err := db.ExecContext(ctx, `INSERT INTO users (id, first_name) VALUES (?, ?)`, i+1, "user")
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count))
	assert.Equal(t, 20, count)
}

func TestExecAfterClose(t *testing.T) {
	t.Parallel()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	_, err = db.ExecContext(t.Context(), `UPDATE users SET banned = 1`)
	assert.ErrorIs(t, err, ErrClosing)
}

func TestIsWriteQuery(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"INSERT INTO users":             true,
		"  update users set banned = 1": true,
		"\n\tDELETE FROM users":         true,
		"INSERT OR IGNORE INTO x":       true,
		"REPLACE INTO bot_settings":     true,
		"SELECT * FROM users":           false,
		"PRAGMA optimize":               false,
		"":                              false,
	}

	for query, want := range tests {
		assert.Equal(t, want, isWriteQuery(query), query)
	}
}
