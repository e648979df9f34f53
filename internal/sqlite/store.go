// File path: internal/sqlite/store.go

// Package sqlite implements the metadata.Store interface over a local spec
// snapshot database: spec records (binary or XML payloads), the object
// catalog, table index metadata, and data dictionary titles, as extracted
// from the ERP's central objects tables.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store wraps a pooled sqlx.DB connection to the SQLite spec snapshot.
type Store struct {
	db *sqlx.DB
}

// Open constructs a Store backed by the SQLite database at the provided
// path. The schema is migrated on first use.
func Open(path string) (*Store, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		cfg.Path = trimmed
	}
	return OpenWithConfig(cfg)
}

// OpenWithConfig constructs a Store using the provided configuration.
func OpenWithConfig(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path required")
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve sqlite path: %w", err)
	}
	busy := int(cfg.BusyTimeout / time.Millisecond)
	if busy <= 0 {
		busy = 5000
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", abs, busy)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingTimeout := cfg.BusyTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying sqlx.DB for snapshot loaders and tests.
func (s *Store) DB() *sqlx.DB {
	if s == nil {
		return nil
	}
	return s.db
}

func (s *Store) migrate(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not initialised")
	}
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

var schemaStatements = []string{
	`PRAGMA journal_mode = WAL;`,
	`PRAGMA foreign_keys = ON;`,
	`CREATE TABLE IF NOT EXISTS spec_records (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                spec_key TEXT NOT NULL,
                spec_type TEXT NOT NULL,
                sequence INTEGER NOT NULL DEFAULT 0,
                payload BLOB NOT NULL,
                encoding TEXT NOT NULL DEFAULT 'xml',
                compressed INTEGER NOT NULL DEFAULT 0,
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                UNIQUE(spec_key, spec_type, sequence)
        );`,
	`CREATE TABLE IF NOT EXISTS object_catalog (
                object_name TEXT NOT NULL,
                object_type TEXT NOT NULL,
                description TEXT NOT NULL DEFAULT '',
                system_code TEXT NOT NULL DEFAULT '',
                PRIMARY KEY (object_name, object_type)
        );`,
	`CREATE TABLE IF NOT EXISTS table_indexes (
                table_name TEXT NOT NULL,
                idx_id INTEGER NOT NULL,
                idx_name TEXT NOT NULL,
                is_primary INTEGER NOT NULL DEFAULT 0,
                PRIMARY KEY (table_name, idx_id)
        );`,
	`CREATE TABLE IF NOT EXISTS table_index_keys (
                table_name TEXT NOT NULL,
                idx_id INTEGER NOT NULL,
                seq INTEGER NOT NULL,
                column_name TEXT NOT NULL,
                PRIMARY KEY (table_name, idx_id, seq),
                FOREIGN KEY (table_name, idx_id)
                        REFERENCES table_indexes(table_name, idx_id)
                        ON DELETE CASCADE
        );`,
	`CREATE TABLE IF NOT EXISTS data_dictionary (
                data_item TEXT PRIMARY KEY,
                title1 TEXT NOT NULL DEFAULT '',
                title2 TEXT NOT NULL DEFAULT ''
        );`,
	`CREATE INDEX IF NOT EXISTS idx_spec_records_key ON spec_records(spec_key, spec_type, sequence);`,
	`CREATE INDEX IF NOT EXISTS idx_object_catalog_type_name ON object_catalog(object_type, object_name);`,
}
