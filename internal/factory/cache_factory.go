package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/fraud-detector/internal/adapters/cache"
	"github.com/mikey/fraud-detector/internal/config"
	"github.com/mikey/fraud-detector/internal/core"
	"go.uber.org/zap"
)

// CacheFactory creates domain age cache repositories based on configuration
type CacheFactory struct {
	cfg       *config.Config
	logger    *zap.Logger
	resources *Resources
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger, resources *Resources) *CacheFactory {
	return &CacheFactory{
		cfg:       cfg,
		logger:    logger,
		resources: resources,
	}
}

// CreateCacheRepository creates a cache repository based on the configuration
func (f *CacheFactory) CreateCacheRepository() (core.CacheRepository, error) {
	cacheCfg := f.cfg.GetCache()

	switch cacheCfg.Type {
	case "memory":
		c := cache.NewMemoryCache(f.logger, cacheCfg.CleanupFrequency)
		f.track("memory cache", c.Stop)
		return c, nil
	case "sqlite":
		if err := ensureDir(cacheCfg.SQLitePath); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		c, err := cache.NewSQLiteCache(cacheCfg.SQLitePath, f.logger, cacheCfg.CleanupFrequency)
		if err != nil {
			return nil, err
		}
		f.track("sqlite cache", c.Stop)
		return c, nil
	case "mysql":
		c, err := cache.NewMySQLCache(cacheCfg.MySQLDSN, f.logger, cacheCfg.CleanupFrequency)
		if err != nil {
			return nil, err
		}
		f.track("mysql cache", c.Stop)
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheCfg.Type)
	}
}

// IsCacheEnabled returns whether caching is enabled
func (f *CacheFactory) IsCacheEnabled() bool {
	return f.cfg.GetCache().Enabled
}

func (f *CacheFactory) track(name string, stop func()) {
	if f.resources == nil {
		return
	}
	f.resources.Track(name, func() error {
		stop()
		return nil
	})
}

// ensureDir creates the parent directory of path
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
