// Package remote delegates phishing classification to an external model service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mikey/fraud-detector/internal/core"
	"go.uber.org/zap"
)

// Classifier posts model features to a scoring service
type Classifier struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *zap.Logger
}

var _ core.Classifier = (*Classifier)(nil)

type predictRequest struct {
	URL      string          `json:"url"`
	Features core.FeatureSet `json:"features"`
}

type predictResponse struct {
	Label       *int     `json:"label"`
	Confidence  *float64 `json:"confidence"`
	Explanation string   `json:"explanation"`
	Model       string   `json:"model"`
}

// NewClassifier creates a reusable HTTP classifier
func NewClassifier(endpoint, apiKey string, timeout time.Duration, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Classifier{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Predict sends the feature vector to /predict. Any transport or decoding
// failure is reported as ErrModelUnavailable.
func (c *Classifier) Predict(ctx context.Context, rawURL string, features core.FeatureSet) (*core.Prediction, error) {
	var resp predictResponse
	if err := c.post(ctx, "/predict", predictRequest{URL: rawURL, Features: features}, &resp); err != nil {
		c.logger.Warn("Remote classifier failed", zap.String("endpoint", c.endpoint), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", core.ErrModelUnavailable, err)
	}
	if resp.Label == nil || resp.Confidence == nil {
		return nil, fmt.Errorf("%w: incomplete prediction", core.ErrModelUnavailable)
	}

	label := 0
	if *resp.Label == 1 {
		label = 1
	}
	conf := *resp.Confidence
	if conf < 0 || conf > 1 {
		return nil, fmt.Errorf("%w: confidence %v out of range", core.ErrModelUnavailable, conf)
	}

	model := resp.Model
	if model == "" {
		model = "remote"
	}
	return &core.Prediction{
		Label:       label,
		Confidence:  conf,
		Model:       model,
		Explanation: resp.Explanation,
	}, nil
}

func (c *Classifier) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
