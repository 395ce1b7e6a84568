package reputation

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/fraud-detector/internal/core"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the ReputationStore interface
type MySQLStore struct {
	db     *sql.DB
	scope  string
	logger *zap.Logger
}

var _ core.ReputationStore = (*MySQLStore)(nil)

// NewMySQLStore connects to MySQL and ensures the entries table exists
func NewMySQLStore(dsn, scope string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS reputation_entries (
			scope VARCHAR(32) NOT NULL,
			entry_key VARCHAR(768) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
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
	return &MySQLStore{db: db, scope: scope, logger: logger}, nil
}

// Contains reports whether the key has been recorded in this scope
func (s *MySQLStore) Contains(ctx context.Context, key string) (bool, error) {
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
func (s *MySQLStore) Add(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT IGNORE INTO reputation_entries (scope, entry_key)
		VALUES (?, ?)
	`, s.scope, key)
	if err != nil {
		return fmt.Errorf("failed to insert reputation entry: %w", err)
	}
	s.logger.Debug("Stored reputation entry", zap.String("scope", s.scope), zap.String("key", key))
	return nil
}

// Close closes the database connection
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
