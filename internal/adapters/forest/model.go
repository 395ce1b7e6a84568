// Package forest evaluates tree-ensemble classifiers exported as JSON.
package forest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Node is one split or leaf of a decision tree. A node is a leaf when Left is -1.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value"`
}

// Tree is a flat array of nodes rooted at index 0
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Model is a random forest: trees vote with their normalised leaf distributions
type Model struct {
	FeatureNames []string `json:"feature_names"`
	Classes      []int    `json:"classes"`
	Trees        []Tree   `json:"trees"`
}

// Read decodes and validates a model
func Read(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ReadFile decodes a model from disk
func ReadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func (m *Model) validate() error {
	if len(m.FeatureNames) == 0 {
		return fmt.Errorf("model has no feature names")
	}
	if len(m.Classes) < 2 {
		return fmt.Errorf("model needs at least two classes, has %d", len(m.Classes))
	}
	if len(m.Trees) == 0 {
		return fmt.Errorf("model has no trees")
	}
	for ti, t := range m.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Left == -1 {
				if len(n.Value) != len(m.Classes) {
					return fmt.Errorf("tree %d leaf %d has %d values for %d classes", ti, ni, len(n.Value), len(m.Classes))
				}
				continue
			}
			if n.Left <= ni || n.Left >= len(t.Nodes) || n.Right <= ni || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d has invalid children", ti, ni)
			}
			if n.Feature < 0 || n.Feature >= len(m.FeatureNames) {
				return fmt.Errorf("tree %d node %d splits on unknown feature %d", ti, ni, n.Feature)
			}
		}
	}
	return nil
}

// PredictProba returns the mean class distribution over all trees
func (m *Model) PredictProba(x []float64) ([]float64, error) {
	if len(x) != len(m.FeatureNames) {
		return nil, fmt.Errorf("expected %d features, got %d", len(m.FeatureNames), len(x))
	}

	proba := make([]float64, len(m.Classes))
	for _, t := range m.Trees {
		leaf := t.leaf(x)
		var total float64
		for _, v := range leaf.Value {
			total += v
		}
		if total == 0 {
			continue
		}
		for i, v := range leaf.Value {
			proba[i] += v / total
		}
	}
	for i := range proba {
		proba[i] /= float64(len(m.Trees))
	}
	return proba, nil
}

// Predict returns the most probable class and its probability
func (m *Model) Predict(x []float64) (int, float64, error) {
	proba, err := m.PredictProba(x)
	if err != nil {
		return 0, 0, err
	}
	best := 0
	for i := range proba {
		if proba[i] > proba[best] {
			best = i
		}
	}
	return m.Classes[best], proba[best], nil
}

func (t Tree) leaf(x []float64) Node {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left == -1 {
			return n
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
