package factory

import (
	"github.com/mikey/fraud-detector/internal/adapters/cache"
	"github.com/mikey/fraud-detector/internal/adapters/probe"
	"github.com/mikey/fraud-detector/internal/adapters/whois"
	"github.com/mikey/fraud-detector/internal/config"
	"github.com/mikey/fraud-detector/internal/core"
	"go.uber.org/zap"
)

// NetCheckFactory creates the network-backed URL feature sources: the WHOIS
// domain age lookup and the HEAD prober
type NetCheckFactory struct {
	cfg          *config.Config
	logger       *zap.Logger
	cacheFactory *CacheFactory
}

// NewNetCheckFactory creates a new network check factory
func NewNetCheckFactory(cfg *config.Config, logger *zap.Logger, cacheFactory *CacheFactory) *NetCheckFactory {
	return &NetCheckFactory{
		cfg:          cfg,
		logger:       logger,
		cacheFactory: cacheFactory,
	}
}

// NetworkEnabled reports whether URL analysis may touch the network
func (f *NetCheckFactory) NetworkEnabled() bool {
	return f.cfg.GetURL().NetworkEnabled
}

// CreateDomainAgeLookup returns the WHOIS client, wrapped in the domain age
// cache when caching is enabled. It returns nil when networking is off, which
// makes the extractor fall back to the default age.
func (f *NetCheckFactory) CreateDomainAgeLookup() (core.DomainAgeLookup, error) {
	if !f.NetworkEnabled() {
		f.logger.Info("Network checks disabled, skipping WHOIS lookups")
		return nil, nil
	}

	whoisCfg := f.cfg.GetWhois()
	servers := make(map[string]string, len(whois.DefaultServers)+len(whoisCfg.Servers))
	for tld, server := range whois.DefaultServers {
		servers[tld] = server
	}
	for tld, server := range whoisCfg.Servers {
		servers[tld] = server
	}

	opts := []whois.Option{whois.WithServers(servers)}
	if whoisCfg.Port != "" {
		opts = append(opts, whois.WithPort(whoisCfg.Port))
	}
	client := whois.NewClient(f.logger.Named("whois"), opts...)

	if f.cacheFactory == nil || !f.cacheFactory.IsCacheEnabled() {
		return client, nil
	}
	repo, err := f.cacheFactory.CreateCacheRepository()
	if err != nil {
		return nil, err
	}
	return cache.NewDomainAgeCache(client, repo, f.cfg.GetCache().TTL, f.logger.Named("cache")), nil
}

// CreateProber returns an HTTP prober, or one that never connects when
// networking is off
func (f *NetCheckFactory) CreateProber() core.Prober {
	if !f.NetworkEnabled() {
		return probe.Offline{}
	}
	return probe.NewHTTPProber(nil, f.cfg.GetURL().LookupTimeout, f.logger.Named("probe"))
}
