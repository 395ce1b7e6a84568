package di

import (
	"context"

	"go.uber.org/dig"

	"github.com/mikey/fraud-detector/internal/config"
	"github.com/mikey/fraud-detector/internal/core"
	"github.com/mikey/fraud-detector/internal/factory"
	"github.com/mikey/fraud-detector/internal/logging"
	"github.com/mikey/fraud-detector/internal/ports"
	"github.com/mikey/fraud-detector/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
// for the mail screening daemon
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideServices(container); err != nil {
		return nil, err
	}
	return container, nil
}

// provideServices registers everything below the config and logger. Both
// containers share it.
func provideServices(container *dig.Container) error {
	// Register factories
	for _, ctor := range []interface{}{
		factory.NewResources,
		factory.NewTextProcessorFactory,
		factory.NewCacheFactory,
		factory.NewReputationFactory,
		factory.NewNetCheckFactory,
		factory.NewClassifierFactory,
		factory.NewAnalyzerFactory,
		factory.NewFilterFactory,
	} {
		if err := container.Provide(ctor); err != nil {
			return err
		}
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	// Register detection service
	if err := container.Provide(func(f *factory.AnalyzerFactory) (*core.DetectionService, error) {
		return f.CreateDetectionService(context.Background())
	}); err != nil {
		return err
	}

	// Register email filter
	return container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	})
}
