//go:build sqlite

// Package sqlitestore implements session.Store on SQLite via the
// pure-Go modernc.org/sqlite driver, one row per session key in a
// single table. Schema and statement shape grounded on the teacher's
// checkpoint/store SQLiteStore; the driver itself is swapped for the
// corpus's cgo-free alternative.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/voocel/mas/memory"
	"github.com/voocel/mas/session"
)

// Store is a SQLite-backed session.Store.
type Store struct {
	db *sql.DB
}

// New opens (creating if necessary) the database at path and ensures
// its schema exists.
func New(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlitestore: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: ping: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: init schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Save(ctx context.Context, key string, mem memory.Memory) error {
	data, err := session.Encode(mem)
	if err != nil {
		return fmt.Errorf("sqlitestore: encode: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (key, data, updated_at) VALUES (?, ?, unixepoch())
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data)
	if err != nil {
		return fmt.Errorf("sqlitestore: upsert: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, key string, mem memory.Memory) error {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE key = ?`, key).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("sqlitestore: session %q not found", key)
		}
		return fmt.Errorf("sqlitestore: query: %w", err)
	}
	return session.Decode(data, mem)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlitestore: delete: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

var _ session.Store = (*Store)(nil)
