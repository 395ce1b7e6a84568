package cache

import (
	"context"
	"time"

	"github.com/mikey/fraud-detector/internal/core"
	"go.uber.org/zap"
)

// DomainAgeCache serves domain ages from a CacheRepository and falls back to
// the wrapped lookup on a miss. Failed lookups are not cached.
type DomainAgeCache struct {
	next   core.DomainAgeLookup
	repo   core.CacheRepository
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

var _ core.DomainAgeLookup = (*DomainAgeCache)(nil)

// NewDomainAgeCache wraps next with a cache of the given TTL
func NewDomainAgeCache(next core.DomainAgeLookup, repo core.CacheRepository, ttl time.Duration, logger *zap.Logger) *DomainAgeCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DomainAgeCache{
		next:   next,
		repo:   repo,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// DomainAgeDays returns the cached age, looking it up on a miss
func (c *DomainAgeCache) DomainAgeDays(ctx context.Context, domain string) (int, error) {
	if entry, err := c.repo.Get(ctx, domain); err == nil {
		// A cached age keeps growing while the entry is alive
		elapsed := int(c.now().Sub(entry.LastSeen).Hours() / 24)
		if elapsed < 0 {
			elapsed = 0
		}
		c.logger.Debug("Domain age cache hit", zap.String("domain", domain))
		return entry.AgeDays + elapsed, nil
	}

	age, err := c.next.DomainAgeDays(ctx, domain)
	if err != nil {
		return 0, err
	}

	now := c.now()
	entry := &core.CacheEntry{
		Domain:    domain,
		AgeDays:   age,
		LastSeen:  now,
		ExpiresAt: now.Add(c.ttl),
	}
	if err := c.repo.Set(ctx, entry); err != nil {
		c.logger.Warn("Failed to cache domain age", zap.String("domain", domain), zap.Error(err))
	}
	return age, nil
}
