// Package sqlitestore implements the Local Store on an embedded SQLite
// database (ncruces/go-sqlite3, pure Go via wasm).
//
// One table, keyed by the todo id:
//
//	todos(id INTEGER PRIMARY KEY, seq, todo, completed, user_id)
//
// seq is assigned on first insert and never updated, so List returns items
// in the order they first reached the cache.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/idilsaglam/todosync/internal/model"
	"github.com/idilsaglam/todosync/internal/store"
)

// DB is a Local Store backed by a SQLite file.
type DB struct {
	conn *sql.DB
	path string
}

var _ store.Store = (*DB)(nil)

// Open opens (creating if needed) the database at path and makes sure the
// schema exists. Every failure wraps store.ErrStoreUnavailable.
//
// The caller must call Close when done.
func Open(path string) (*DB, error) {
	return OpenContext(context.Background(), path)
}

// OpenContext is Open with context support.
func OpenContext(ctx context.Context, path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create database directory: %v", store.ErrStoreUnavailable, err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", store.ErrStoreUnavailable, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: ping database: %v", store.ErrStoreUnavailable, err)
	}

	// Single writer; one connection keeps writes serialized.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, path: path}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: %s: %v", store.ErrStoreUnavailable, pragma, err)
		}
	}

	if err := db.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Path returns the database file location.
func (db *DB) Path() string { return db.path }

func (db *DB) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS todos (
		id INTEGER PRIMARY KEY,
		seq INTEGER NOT NULL,
		todo TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		user_id INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_todos_seq ON todos(seq);
	`
	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: initialize schema: %v", store.ErrStoreUnavailable, err)
	}
	return nil
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	// Best effort; the WAL is replayed on next open anyway.
	_, _ = db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	db.conn = nil
	return nil
}

// List returns every item ordered by first insertion.
func (db *DB) List(ctx context.Context) ([]model.Item, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, todo, completed, user_id FROM todos ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("%w: list todos: %v", store.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.Text, &it.Completed, &it.OwnerID); err != nil {
			return nil, fmt.Errorf("%w: scan todo: %v", store.ErrStoreUnavailable, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate todos: %v", store.ErrStoreUnavailable, err)
	}
	return items, nil
}

// Upsert inserts the item or overwrites every field of the existing row.
func (db *DB) Upsert(ctx context.Context, item model.Item) error {
	query := `
	INSERT INTO todos (id, seq, todo, completed, user_id)
	VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM todos), ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		todo = excluded.todo,
		completed = excluded.completed,
		user_id = excluded.user_id
	`
	if _, err := db.conn.ExecContext(ctx, query,
		item.ID, item.Text, item.Completed, item.OwnerID); err != nil {
		return fmt.Errorf("%w: upsert todo %d: %v", store.ErrStoreWriteFailed, item.ID, err)
	}
	return nil
}

// Replace overwrites an existing row; absent ids are left alone.
func (db *DB) Replace(ctx context.Context, item model.Item) error {
	query := `UPDATE todos SET todo = ?, completed = ?, user_id = ? WHERE id = ?`
	if _, err := db.conn.ExecContext(ctx, query,
		item.Text, item.Completed, item.OwnerID, item.ID); err != nil {
		return fmt.Errorf("%w: replace todo %d: %v", store.ErrStoreWriteFailed, item.ID, err)
	}
	return nil
}

// Delete removes a row. Returns nil if the row doesn't exist.
func (db *DB) Delete(ctx context.Context, id int) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: delete todo %d: %v", store.ErrStoreWriteFailed, id, err)
	}
	return nil
}

// Count returns the number of cached items.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count todos: %v", store.ErrStoreUnavailable, err)
	}
	return n, nil
}
