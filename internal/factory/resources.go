package factory

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Resources collects the shutdown hooks of everything the factories open:
// database handles, cache cleanup loops and model clients
type Resources struct {
	mu      sync.Mutex
	closers []closer
	logger  *zap.Logger
}

type closer struct {
	name string
	fn   func() error
}

// NewResources creates an empty resource registry
func NewResources(logger *zap.Logger) *Resources {
	return &Resources{logger: logger}
}

// Track registers fn to run on Close
func (r *Resources) Track(name string, fn func() error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closers = append(r.closers, closer{name: name, fn: fn})
}

// Close releases everything in reverse creation order and reports all failures
func (r *Resources) Close() error {
	r.mu.Lock()
	closers := r.closers
	r.closers = nil
	r.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if err := c.fn(); err != nil {
			r.logger.Error("Failed to close resource", zap.String("resource", c.name), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		r.logger.Debug("Closed resource", zap.String("resource", c.name))
	}
	return errors.Join(errs...)
}
