package factory

import (
	"fmt"
	"io"
	"os"

	"github.com/mikey/fraud-detector/internal/adapters/filter"
	"github.com/mikey/fraud-detector/internal/config"
	"github.com/mikey/fraud-detector/internal/core"
	"github.com/mikey/fraud-detector/internal/ports"
	"github.com/mikey/fraud-detector/internal/utils"
	"go.uber.org/zap"
)

// FilterFactory creates email filters based on configuration
type FilterFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	service       *core.DetectionService
	textProcessor *utils.TextProcessor
	out           io.Writer
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.DetectionService,
	textProcessor *utils.TextProcessor,
) *FilterFactory {
	return &FilterFactory{
		cfg:           cfg,
		logger:        logger,
		service:       service,
		textProcessor: textProcessor,
		out:           os.Stdout,
	}
}

// CreateEmailFilter creates an email filter based on the configuration
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	serverCfg := f.cfg.GetServer()

	switch serverCfg.FilterType {
	case "smtp":
		return filter.NewSMTPFilter(f.service, serverCfg, f.textProcessor, f.logger.Named("smtp")), nil
	case "cli":
		maxLinks := 0
		if serverCfg.CheckLinks {
			maxLinks = serverCfg.MaxLinks
		}
		return filter.NewCliFilter(f.service, f.out, maxLinks, f.cfg.GetBool("cli.verbose"), f.logger.Named("cli")), nil
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", serverCfg.FilterType)
	}
}
