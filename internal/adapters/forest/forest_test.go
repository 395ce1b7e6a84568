package forest

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mikey/fraud-detector/internal/core"
)

// Two stumps on feature "a": a <= 0 votes legitimate, otherwise phishing.
const stumpModel = `{
  "feature_names": ["a", "b"],
  "classes": [0, 1],
  "trees": [
    {"nodes": [
      {"feature": 0, "threshold": 0, "left": 1, "right": 2},
      {"left": -1, "right": -1, "value": [8, 2]},
      {"left": -1, "right": -1, "value": [1, 9]}
    ]},
    {"nodes": [
      {"feature": 0, "threshold": 0, "left": 1, "right": 2},
      {"left": -1, "right": -1, "value": [10, 0]},
      {"left": -1, "right": -1, "value": [3, 7]}
    ]}
  ]
}`

func writeModel(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return path
}

func features(a, b float64) core.FeatureSet {
	fs := core.NewFeatureSet("a", "b")
	fs.Set("a", a)
	fs.Set("b", b)
	return fs
}

func TestModelPredictSoftVote(t *testing.T) {
	t.Parallel()

	m, err := Read(strings.NewReader(stumpModel))
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	class, proba, err := m.Predict([]float64{1, 0})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if class != 1 || math.Abs(proba-0.8) > 1e-9 {
		t.Fatalf("expected class 1 with 0.8, got %d with %.3f", class, proba)
	}

	class, proba, _ = m.Predict([]float64{-1, 0})
	if class != 0 || math.Abs(proba-0.9) > 1e-9 {
		t.Fatalf("expected class 0 with 0.9, got %d with %.3f", class, proba)
	}
}

func TestReadRejectsInvalidModels(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"no trees":   `{"feature_names":["a"],"classes":[0,1],"trees":[]}`,
		"one class":  `{"feature_names":["a"],"classes":[1],"trees":[{"nodes":[{"left":-1,"value":[1]}]}]}`,
		"bad child":  `{"feature_names":["a"],"classes":[0,1],"trees":[{"nodes":[{"feature":0,"left":0,"right":5}]}]}`,
		"bad leaf":   `{"feature_names":["a"],"classes":[0,1],"trees":[{"nodes":[{"left":-1,"value":[1]}]}]}`,
		"not json":   `nope`,
		"no feature": `{"classes":[0,1],"trees":[{"nodes":[{"left":-1,"value":[1,1]}]}]}`,
	}
	for name, body := range tests {
		name, body := name, body
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := Read(strings.NewReader(body)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestHandlePredict(t *testing.T) {
	t.Parallel()

	h := NewHandle(writeModel(t, stumpModel), []string{"a", "b"}, nil)

	pred, err := h.Predict(context.Background(), "http://x", features(1, 0))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if pred.Label != 1 || pred.Model != "forest" {
		t.Fatalf("unexpected prediction %+v", pred)
	}
}

func TestHandleSchemaMismatchIsFatal(t *testing.T) {
	t.Parallel()

	h := NewHandle(writeModel(t, stumpModel), []string{"a", "c"}, nil)
	_, err := h.Predict(context.Background(), "", features(1, 0))
	if !errors.Is(err, core.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
	// The failure is sticky.
	if _, err := h.Load(); !errors.Is(err, core.ErrSchemaMismatch) {
		t.Fatalf("expected the load error to be cached, got %v", err)
	}
}

func TestHandleMissingFile(t *testing.T) {
	t.Parallel()

	h := NewHandle(filepath.Join(t.TempDir(), "absent.json"), nil, nil)
	_, err := h.Predict(context.Background(), "", features(0, 0))
	if !errors.Is(err, core.ErrModelUnavailable) {
		t.Fatalf("expected model unavailable, got %v", err)
	}
}

func TestHandleLoadsOnceUnderConcurrency(t *testing.T) {
	t.Parallel()

	h := NewHandle(writeModel(t, stumpModel), []string{"a", "b"}, nil)

	var wg sync.WaitGroup
	models := make([]*Model, 8)
	for i := range models {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := h.Load()
			if err != nil {
				t.Errorf("load: %v", err)
				return
			}
			models[i] = m
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(models); i++ {
		if models[i] != models[0] {
			t.Fatalf("expected a single shared model instance")
		}
	}
}
