package factory

import (
	"context"
	"fmt"

	"github.com/mikey/fraud-detector/internal/adapters/reputation"
	"github.com/mikey/fraud-detector/internal/analyzer/phonecheck"
	"github.com/mikey/fraud-detector/internal/config"
	"github.com/mikey/fraud-detector/internal/core"
	"go.uber.org/zap"
)

const (
	// ScopeURL holds reported phishing URLs
	ScopeURL = "url"
	// ScopePhone holds known scam numbers
	ScopePhone = "phone"
)

// ReputationFactory creates the reported-URL and scam-number stores
type ReputationFactory struct {
	cfg       *config.Config
	logger    *zap.Logger
	resources *Resources
}

// NewReputationFactory creates a new reputation store factory
func NewReputationFactory(cfg *config.Config, logger *zap.Logger, resources *Resources) *ReputationFactory {
	return &ReputationFactory{
		cfg:       cfg,
		logger:    logger,
		resources: resources,
	}
}

// CreateStore creates the store for scope. The phone store always starts out
// holding the built-in scam numbers.
func (f *ReputationFactory) CreateStore(ctx context.Context, scope string) (core.ReputationStore, error) {
	repCfg := f.cfg.GetReputation(scope)
	logger := f.logger.With(zap.String("scope", scope), zap.String("type", repCfg.Type))

	var seeds []string
	if scope == ScopePhone {
		seeds = phonecheck.CanonicalSeeds()
	}

	var store core.ReputationStore
	switch repCfg.Type {
	case "memory":
		return reputation.NewMemoryStore(logger, seeds...), nil
	case "file":
		s, err := reputation.NewFileStore(repCfg.FilePath, logger)
		if err != nil {
			return nil, err
		}
		store = s
	case "sqlite":
		if err := ensureDir(repCfg.SQLitePath); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		s, err := reputation.NewSQLiteStore(repCfg.SQLitePath, scope, logger)
		if err != nil {
			return nil, err
		}
		f.track(scope+" sqlite store", s.Close)
		store = s
	case "mysql":
		s, err := reputation.NewMySQLStore(repCfg.MySQLDSN, scope, logger)
		if err != nil {
			return nil, err
		}
		f.track(scope+" mysql store", s.Close)
		store = s
	case "redis":
		s, err := reputation.NewRedisStore(repCfg.RedisAddr, repCfg.RedisPassword, repCfg.RedisDB, repCfg.RedisPrefix, scope, logger)
		if err != nil {
			return nil, err
		}
		f.track(scope+" redis store", s.Close)
		store = s
	default:
		return nil, fmt.Errorf("unsupported reputation store type: %s", repCfg.Type)
	}

	for _, key := range seeds {
		if err := store.Add(ctx, key); err != nil {
			return nil, fmt.Errorf("failed to seed %s store: %w", scope, err)
		}
	}
	logger.Info("Initialized reputation store", zap.Int("seeded", len(seeds)))
	return store, nil
}

func (f *ReputationFactory) track(name string, fn func() error) {
	if f.resources != nil {
		f.resources.Track(name, fn)
	}
}
