package reputation

import (
	"context"
	"sync"

	"github.com/mikey/fraud-detector/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is a process-lifetime implementation of the ReputationStore interface
type MemoryStore struct {
	keys   map[string]struct{}
	mu     sync.RWMutex
	logger *zap.Logger
}

var _ core.ReputationStore = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory store seeded with the given keys
func NewMemoryStore(logger *zap.Logger, seeds ...string) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := &MemoryStore{
		keys:   make(map[string]struct{}, len(seeds)),
		logger: logger,
	}
	for _, s := range seeds {
		if s != "" {
			store.keys[s] = struct{}{}
		}
	}
	return store
}

// Contains reports whether the key is in the set
func (s *MemoryStore) Contains(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.keys[key]
	return ok, nil
}

// Add inserts the key
func (s *MemoryStore) Add(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[key]; ok {
		return nil
	}
	s.keys[key] = struct{}{}
	s.logger.Debug("Added reputation entry", zap.String("key", key), zap.Int("size", len(s.keys)))
	return nil
}

// Len returns the number of entries
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}
