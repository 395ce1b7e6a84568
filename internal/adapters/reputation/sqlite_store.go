package reputation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/fraud-detector/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the ReputationStore interface
type SQLiteStore struct {
	db     *sql.DB
	scope  string
	logger *zap.Logger
}

var _ core.ReputationStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database and ensures the entries table exists
func NewSQLiteStore(dbPath, scope string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS reputation_entries (
			scope TEXT NOT NULL,
			entry_key TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (scope, entry_key)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteStore{db: db, scope: scope, logger: logger}, nil
}

// Contains reports whether the key has been recorded in this scope
func (s *SQLiteStore) Contains(ctx context.Context, key string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM reputation_entries
		WHERE scope = ? AND entry_key = ?
	`, s.scope, key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query reputation entry: %w", err)
	}
	return n > 0, nil
}

// Add records the key; duplicates are ignored
func (s *SQLiteStore) Add(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO reputation_entries (scope, entry_key, created_at)
		VALUES (?, ?, ?)
	`, s.scope, key, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert reputation entry: %w", err)
	}
	s.logger.Debug("Stored reputation entry", zap.String("scope", s.scope), zap.String("key", key))
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
