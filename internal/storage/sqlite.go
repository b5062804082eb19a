// Package storage provides the data persistence layer for duekeeper.
//
// State is held as whole JSON documents keyed by logical store name, so
// the engine's coarse-grained read-compute-write discipline maps onto a
// single upsert per mutation.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/joshsymonds/duekeeper/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Logical store names.
const (
	storeObligations = "obligations"
	storeArchive     = "archive"
	storeSealState   = "seal_state"
)

// SQLiteStorage implements the service.Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Migrate creates the document table if it does not exist yet.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	query := `
		CREATE TABLE IF NOT EXISTS stores (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create stores table: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// get unmarshals the named document into out. A missing document leaves
// out at its zero value: an empty database is a valid empty dataset.
func (s *SQLiteStorage) get(ctx context.Context, name string, out any) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM stores WHERE name = ?`, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read store %q: %w", name, err)
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to decode store %q: %w", name, err)
	}
	return nil
}

// set marshals v and upserts it as the named document.
func (s *SQLiteStorage) set(ctx context.Context, name string, v any) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode store %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO stores (name, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP`
	if _, err := s.db.ExecContext(ctx, query, name, string(raw)); err != nil {
		return fmt.Errorf("failed to write store %q: %w", name, err)
	}
	return nil
}

// GetObligations returns the active obligation set.
func (s *SQLiteStorage) GetObligations(ctx context.Context) ([]model.Obligation, error) {
	var obligations []model.Obligation
	if err := s.get(ctx, storeObligations, &obligations); err != nil {
		return nil, err
	}
	return obligations, nil
}

// SaveObligations replaces the active obligation set.
func (s *SQLiteStorage) SaveObligations(ctx context.Context, obligations []model.Obligation) error {
	if obligations == nil {
		obligations = []model.Obligation{}
	}
	return s.set(ctx, storeObligations, obligations)
}

// GetArchive returns all archived records.
func (s *SQLiteStorage) GetArchive(ctx context.Context) ([]model.ArchiveRecord, error) {
	var records []model.ArchiveRecord
	if err := s.get(ctx, storeArchive, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SaveArchive replaces the archive collection.
func (s *SQLiteStorage) SaveArchive(ctx context.Context, records []model.ArchiveRecord) error {
	if records == nil {
		records = []model.ArchiveRecord{}
	}
	return s.set(ctx, storeArchive, records)
}

// GetSealState returns the current seal state, zero when never sealed.
func (s *SQLiteStorage) GetSealState(ctx context.Context) (model.SealState, error) {
	var state model.SealState
	if err := s.get(ctx, storeSealState, &state); err != nil {
		return model.SealState{}, err
	}
	return state, nil
}

// SaveSealState persists the seal state.
func (s *SQLiteStorage) SaveSealState(ctx context.Context, state model.SealState) error {
	return s.set(ctx, storeSealState, state)
}
