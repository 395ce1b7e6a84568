package factory

import (
	"context"
	"fmt"

	"github.com/mikey/fraud-detector/internal/adapters/bedrock"
	"github.com/mikey/fraud-detector/internal/adapters/forest"
	"github.com/mikey/fraud-detector/internal/adapters/gemini"
	"github.com/mikey/fraud-detector/internal/adapters/openai"
	"github.com/mikey/fraud-detector/internal/adapters/remote"
	"github.com/mikey/fraud-detector/internal/analyzer/urlcheck"
	"github.com/mikey/fraud-detector/internal/config"
	"github.com/mikey/fraud-detector/internal/core"
	"github.com/mikey/fraud-detector/internal/utils"
	"go.uber.org/zap"
)

// ClassifierFactory creates the URL phishing classifier
type ClassifierFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	resources     *Resources
}

// NewClassifierFactory creates a new classifier factory
func NewClassifierFactory(
	cfg *config.Config,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
	resources *Resources,
) *ClassifierFactory {
	return &ClassifierFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
		resources:     resources,
	}
}

// CreateClassifier creates a classifier for the configured backend. The
// forest model is loaded lazily on the first prediction.
func (f *ClassifierFactory) CreateClassifier(ctx context.Context) (core.Classifier, error) {
	urlCfg := f.cfg.GetURL()
	logger := f.logger.Named("classifier")

	switch urlCfg.Backend {
	case "forest":
		return forest.NewHandle(urlCfg.ModelPath, urlcheck.ModelFeatureNames, logger), nil
	case "remote":
		remoteCfg := f.cfg.GetRemote()
		if remoteCfg.Endpoint == "" {
			return nil, fmt.Errorf("remote classifier endpoint is required")
		}
		return remote.NewClassifier(remoteCfg.Endpoint, remoteCfg.APIKey, remoteCfg.Timeout, logger), nil
	case "openai":
		c, err := openai.NewFactory(f.cfg, logger, f.textProcessor).CreateClassifier()
		if err != nil {
			return nil, err
		}
		return c, nil
	case "bedrock":
		c, err := bedrock.NewFactory(f.cfg, logger, f.textProcessor).CreateClassifier(ctx)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "gemini":
		c, err := gemini.NewFactory(f.cfg, logger, f.textProcessor).CreateClassifier(ctx)
		if err != nil {
			return nil, err
		}
		if f.resources != nil {
			f.resources.Track("gemini client", c.Close)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported classifier backend: %s", urlCfg.Backend)
	}
}
