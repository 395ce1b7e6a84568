package factory

import (
	"context"
	"fmt"

	"github.com/mikey/fraud-detector/internal/analyzer/apkcheck"
	"github.com/mikey/fraud-detector/internal/analyzer/emailcheck"
	"github.com/mikey/fraud-detector/internal/analyzer/phonecheck"
	"github.com/mikey/fraud-detector/internal/analyzer/typo"
	"github.com/mikey/fraud-detector/internal/analyzer/urlcheck"
	"github.com/mikey/fraud-detector/internal/config"
	"github.com/mikey/fraud-detector/internal/core"
	"github.com/mikey/fraud-detector/internal/whitelist"
	"go.uber.org/zap"
)

// AnalyzerFactory assembles the four analyzers and the detection service
type AnalyzerFactory struct {
	cfg         *config.Config
	logger      *zap.Logger
	classifiers *ClassifierFactory
	reputation  *ReputationFactory
	netcheck    *NetCheckFactory
}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory(
	cfg *config.Config,
	logger *zap.Logger,
	classifiers *ClassifierFactory,
	reputation *ReputationFactory,
	netcheck *NetCheckFactory,
) *AnalyzerFactory {
	return &AnalyzerFactory{
		cfg:         cfg,
		logger:      logger,
		classifiers: classifiers,
		reputation:  reputation,
		netcheck:    netcheck,
	}
}

// CreateURLAnalyzer wires the feature extractor, allow-list, report store and
// classifier into a URL analyzer
func (f *AnalyzerFactory) CreateURLAnalyzer(ctx context.Context) (*urlcheck.Analyzer, error) {
	urlCfg := f.cfg.GetURL()
	logger := f.logger.Named("url")

	model, err := f.classifiers.CreateClassifier(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}
	reports, err := f.reputation.CreateStore(ctx, ScopeURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create URL report store: %w", err)
	}
	ages, err := f.netcheck.CreateDomainAgeLookup()
	if err != nil {
		return nil, fmt.Errorf("failed to create domain age lookup: %w", err)
	}

	if len(urlCfg.PopularDomains) == 0 {
		logger.Info("No url.typo.popular_domains configured, using the built-in list",
			zap.Int("domains", len(typo.DefaultPopularDomains)))
	}

	allowed := whitelist.DefaultDomains()
	allowed = append(allowed, urlCfg.ExtraAllowed...)
	allow := whitelist.NewChecker(allowed, logger)

	extractor := urlcheck.NewExtractor(ages, f.netcheck.CreateProber(), urlCfg.PopularDomains, urlCfg.TypoThreshold, logger)
	adapter := urlcheck.NewModelAdapter(urlCfg.PopularDomains, urlCfg.TypoThreshold)
	gate := urlcheck.NewGate(allow, model, reports, adapter, logger)

	logger.Info("Initialized URL analyzer",
		zap.String("backend", urlCfg.Backend),
		zap.Bool("network", urlCfg.NetworkEnabled))
	return urlcheck.NewAnalyzer(extractor, gate, logger), nil
}

// CreateEmailAnalyzer creates the email spam analyzer
func (f *AnalyzerFactory) CreateEmailAnalyzer() *emailcheck.Analyzer {
	return emailcheck.NewAnalyzer(f.cfg.GetStringSlice("email.providers"), f.logger.Named("email"))
}

// CreatePhoneAnalyzer creates the phone scam analyzer with its scam number store
func (f *AnalyzerFactory) CreatePhoneAnalyzer(ctx context.Context) (*phonecheck.Analyzer, error) {
	scams, err := f.reputation.CreateStore(ctx, ScopePhone)
	if err != nil {
		return nil, fmt.Errorf("failed to create scam number store: %w", err)
	}
	return phonecheck.NewAnalyzer(scams, f.logger.Named("phone")), nil
}

// CreateAPKAnalyzer creates the APK malware analyzer
func (f *AnalyzerFactory) CreateAPKAnalyzer() *apkcheck.Analyzer {
	return apkcheck.NewAnalyzer(f.logger.Named("apk"))
}

// CreateDetectionService builds every analyzer and the service in front of them
func (f *AnalyzerFactory) CreateDetectionService(ctx context.Context) (*core.DetectionService, error) {
	urls, err := f.CreateURLAnalyzer(ctx)
	if err != nil {
		return nil, err
	}
	phones, err := f.CreatePhoneAnalyzer(ctx)
	if err != nil {
		return nil, err
	}
	return core.NewDetectionService(urls, f.CreateEmailAnalyzer(), phones, f.CreateAPKAnalyzer(), f.logger), nil
}
