package reputation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mikey/fraud-detector/internal/core"
	"go.uber.org/zap"
)

// FileStore keeps the set as a JSON array of lowercase strings. Every Add reads the
// file and rewrites it whole; the mutex only serialises writers in this process.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

var _ core.ReputationStore = (*FileStore)(nil)

// NewFileStore creates a new file-backed store
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("reputation file path is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create reputation directory: %w", err)
		}
	}
	return &FileStore{path: path, logger: logger}, nil
}

// Contains reports whether the key is in the file
func (s *FileStore) Contains(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return false, err
	}
	key = strings.ToLower(key)
	for _, e := range entries {
		if e == key {
			return true, nil
		}
	}
	return false, nil
}

// Add appends the key and rewrites the file
func (s *FileStore) Add(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	key = strings.ToLower(key)
	for _, e := range entries {
		if e == key {
			return nil
		}
	}

	entries = append(entries, key)
	if err := s.write(entries); err != nil {
		return err
	}
	s.logger.Info("Saved reported entry", zap.String("key", key), zap.String("file", s.path))
	return nil
}

// load reads the file, initialising it to an empty list when absent or empty
func (s *FileStore) load() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(bytes.TrimSpace(data)) == 0) {
		if err := s.write([]string{}); err != nil {
			return nil, err
		}
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reputation file: %w", err)
	}

	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse reputation file: %w", err)
	}

	entries := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, v := range raw {
		str, ok := v.(string)
		if !ok {
			continue
		}
		str = strings.ToLower(str)
		if _, dup := seen[str]; dup {
			continue
		}
		seen[str] = struct{}{}
		entries = append(entries, str)
	}
	return entries, nil
}

// write replaces the file through a temporary sibling and a rename
func (s *FileStore) write(entries []string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode reputation file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write reputation file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace reputation file: %w", err)
	}
	return nil
}
