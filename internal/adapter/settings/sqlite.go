// Package settings persists per-product installer settings in SQLite.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"installer-shell/internal/domain"
)

// SQLiteStore implements domain.SettingsStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ domain.SettingsStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and runs the
// schema migration. The parent directory is created when missing.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, storeErr("NewSQLiteStore", fmt.Errorf("create settings dir: %w", err))
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, storeErr("NewSQLiteStore", fmt.Errorf("open settings db: %w", err))
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, storeErr("NewSQLiteStore", fmt.Errorf("set WAL mode: %w", err))
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, storeErr("NewSQLiteStore", fmt.Errorf("migrate settings db: %w", err))
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			publisher  TEXT NOT NULL,
			product    TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (publisher, product, key)
		)
	`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, scope domain.SettingsScope, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE publisher = ? AND product = ? AND key = ?",
		scope.Publisher, scope.Product, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storeErr("SQLiteStore.Get", err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, scope domain.SettingsScope, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (publisher, product, key, value, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (publisher, product, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		scope.Publisher, scope.Product, key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return storeErr("SQLiteStore.Set", err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *SQLiteStore) Remove(ctx context.Context, scope domain.SettingsScope, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM settings WHERE publisher = ? AND product = ? AND key = ?",
		scope.Publisher, scope.Product, key,
	)
	if err != nil {
		return storeErr("SQLiteStore.Remove", err)
	}
	return nil
}

func storeErr(op string, err error) error {
	return domain.NewSubSystemError("settings", op, domain.ErrSettingsStore, err.Error())
}
