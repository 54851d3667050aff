// Package settings is the SQLite-backed key-value store behind every
// persisted application setting.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ignission/soloday-sub001/internal/option"
)

var (
	ErrOpenFailed      = errors.New("settings: open failed")
	ErrMigrationFailed = errors.New("settings: migration failed")
	ErrQueryFailed     = errors.New("settings: query failed")
	ErrNotInitialized  = errors.New("settings: store not initialized")
)

// Store wraps the settings database. Open one per process and share it.
type Store struct {
	db *sqlx.DB
}

// Open opens the database at path, creating the file and parent directory
// when missing, and applies pending schema migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: database path is required", ErrOpenFailed)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOpenFailed, err)
		}
	}

	db, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}
	// One connection is all a single-user store needs, and it keeps SQLite
	// from returning "database is locked".
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}
	if err := migrate(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}
	return &Store{db: db}, nil
}

// Get returns the value stored under key, or None when the key is absent.
func (s *Store) Get(ctx context.Context, key string) (option.Option[string], error) {
	if s == nil || s.db == nil {
		return option.None[string](), ErrNotInitialized
	}
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return option.None[string](), nil
	}
	if err != nil {
		return option.None[string](), fmt.Errorf("%w: get %q: %v", ErrQueryFailed, key, err)
	}
	return option.Some(value), nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if s == nil || s.db == nil {
		return ErrNotInitialized
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: set %q: %v", ErrQueryFailed, key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return ErrNotInitialized
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: delete %q: %v", ErrQueryFailed, key, err)
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
