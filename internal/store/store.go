// Package store keeps gob-encoded values in a sqlite table.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	mu   sync.Mutex
	name string
	db   *sql.DB
}

var (
	ErrBadName  = errors.New("bad name for store")
	ErrNotFound = errors.New("value not found")
)

func isLetter(c rune) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isLetters(s string) bool {
	for _, c := range s {
		if !isLetter(c) {
			return false
		}
	}
	return s != ""
}

// Open connects to the sqlite database at path, creating it if needed.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite db: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)
	return db, nil
}

// New creates a [Store] backed by table name, which may only contain upper-
// or lowercase Latin letters since it is spliced into the queries.
func New(ctx context.Context, db *sql.DB, name string) (*Store, error) {
	if !isLetters(name) {
		return nil, ErrBadName
	}

	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS `+name+` (
	key			TEXT PRIMARY KEY,
	value		BLOB,
	updated_at	INTEGER NOT NULL DEFAULT (unixepoch())
);`)
	if err != nil {
		return nil, err
	}
	s := &Store{name: name, db: db}
	return s, nil
}

// Get decodes the value stored under key into value, which must be a pointer
// or nil. If key is not present, [ErrNotFound] is returned. If value is nil,
// data read from store is silently discarded.
func (s *Store) Get(ctx context.Context, key string, value any) error {
	var v []byte
	err := s.db.QueryRowContext(
		ctx, `SELECT value FROM `+s.name+` WHERE key = ?;`, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if value == nil {
		return nil
	}
	return gob.NewDecoder(bytes.NewReader(v)).Decode(value)
}

// Set inserts a new key-value pair or updates an existing one.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
INSERT INTO `+s.name+` (key, value, updated_at)
VALUES (?, ?, unixepoch())
ON CONFLICT(key)
DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;`,
		key, buf.Bytes())
	return err
}

// Delete removes key from store without checking if it existed.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM `+s.name+` WHERE key = ?;`, key)
	return err
}

func (s *Store) Count(ctx context.Context) (count int, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT count(*) FROM `+s.name+`;`).Scan(&count)
	return
}

// StaleKeys lists keys that have not been written since before.
func (s *Store) StaleKeys(ctx context.Context, before int64) ([]string, error) {
	return s.queryKeys(ctx, `SELECT key FROM `+s.name+` WHERE updated_at < ?;`, before)
}

func (s *Store) queryKeys(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
