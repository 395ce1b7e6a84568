package forest

import (
	"context"
	"fmt"
	"sync"

	"github.com/mikey/fraud-detector/internal/core"
	"go.uber.org/zap"
)

// Handle loads a model exactly once and serves predictions from it.
// A load failure is remembered; the process must be restarted to retry.
type Handle struct {
	path     string
	expected []string
	logger   *zap.Logger

	once  sync.Once
	model *Model
	err   error
}

var _ core.Classifier = (*Handle)(nil)

// NewHandle creates a lazily-loading handle. expected is the feature schema
// the caller will send; the model must declare exactly these names in order.
func NewHandle(path string, expected []string, logger *zap.Logger) *Handle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handle{
		path:     path,
		expected: expected,
		logger:   logger,
	}
}

// Load reads the model on first call and returns the cached result afterwards
func (h *Handle) Load() (*Model, error) {
	h.once.Do(func() {
		m, err := ReadFile(h.path)
		if err != nil {
			h.err = fmt.Errorf("%w: %v", core.ErrModelUnavailable, err)
			h.logger.Error("Failed to load phishing model", zap.String("path", h.path), zap.Error(err))
			return
		}
		if err := checkSchema(m.FeatureNames, h.expected); err != nil {
			h.err = err
			h.logger.Error("Phishing model schema mismatch", zap.String("path", h.path), zap.Error(err))
			return
		}
		h.model = m
		h.logger.Info("Loaded phishing model",
			zap.String("path", h.path),
			zap.Int("trees", len(m.Trees)),
			zap.Int("features", len(m.FeatureNames)))
	})
	return h.model, h.err
}

// Predict classifies a model feature vector. Class 1 is phishing.
func (h *Handle) Predict(_ context.Context, _ string, features core.FeatureSet) (*core.Prediction, error) {
	m, err := h.Load()
	if err != nil {
		return nil, err
	}
	if err := checkSchema(features.Keys(), m.FeatureNames); err != nil {
		return nil, err
	}

	class, proba, err := m.Predict(features.Values())
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate model: %w", err)
	}

	label := 0
	if class == 1 {
		label = 1
	}
	return &core.Prediction{
		Label:      label,
		Confidence: proba,
		Model:      "forest",
	}, nil
}

func checkSchema(got, want []string) error {
	if len(want) == 0 {
		return nil
	}
	if len(got) != len(want) {
		return fmt.Errorf("%w: model has %d features, adapter produces %d", core.ErrSchemaMismatch, len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("%w: feature %d is %q, expected %q", core.ErrSchemaMismatch, i, got[i], want[i])
		}
	}
	return nil
}
