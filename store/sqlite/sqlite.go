// Package sqlite provides a file-backed implementation of the durable
// key-value storage the orchestrator persists sessions and credentials to.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/pixelfold/imagechat"
)

const migration = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_ts INTEGER NOT NULL
);
`

// KV is a SQLite-backed key-value store.
type KV struct {
	db *sql.DB
}

var _ imagechat.Storage = (*KV)(nil)

// Open opens (creating if needed) the database at dsn and runs the schema
// migration. WAL journal mode avoids locking issues; a busy timeout covers the
// rare concurrent open.
func Open(dsn string) (*KV, error) {
	if dsn == "" {
		return nil, errors.New("dsn required")
	}

	db, err := sql.Open("sqlite", dsn+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if _, err := db.Exec(migration); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating sqlite database: %w", err)
	}
	return &KV{db: db}, nil
}

// Get returns the value stored under key, and whether it exists.
func (s *KV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading key %q: %w", key, err)
	}
	return value, true, nil
}

// Set writes value under key, replacing any previous value.
func (s *KV) Set(ctx context.Context, key string, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_ts) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_ts = excluded.updated_ts`,
		key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *KV) Close() error {
	return s.db.Close()
}
