package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/fraud-detector/internal/core"
	"github.com/mikey/fraud-detector/internal/utils"
	"go.uber.org/zap"
)

type stubInvoker struct {
	body    []byte
	err     error
	payload map[string]any
}

func (s *stubInvoker) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	if err := json.Unmarshal(in.Body, &s.payload); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: s.body}, nil
}

func newTestClassifier(inv ModelInvoker, modelID string) *Classifier {
	return NewClassifier(inv, modelID, 300, 0.1, 0.9, 2048, zap.NewNop(), utils.NewTextProcessor(nil))
}

func TestPredictModelFamilies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		modelID    string
		body       string
		payloadKey string
		label      int
	}{
		{
			"anthropic.claude-3-haiku-20240307-v1:0",
			`{"content":[{"type":"text","text":"{\"is_phishing\":true,\"confidence\":0.9}"}]}`,
			"messages", 1,
		},
		{
			"amazon.titan-text-express-v1",
			`{"results":[{"outputText":"{\"is_phishing\":false,\"confidence\":0.7}"}]}`,
			"inputText", 0,
		},
		{
			"meta.llama3-8b-instruct-v1:0",
			`{"generation":"{\"is_phishing\":true,\"confidence\":0.6}"}`,
			"prompt", 1,
		},
	}
	for _, tt := range tests {
		inv := &stubInvoker{body: []byte(tt.body)}
		pred, err := newTestClassifier(inv, tt.modelID).Predict(context.Background(), "http://example.com", core.NewFeatureSet("port"))
		if err != nil {
			t.Fatalf("%s: %v", tt.modelID, err)
		}
		if pred.Label != tt.label || pred.Model != tt.modelID {
			t.Errorf("%s: unexpected prediction %+v", tt.modelID, pred)
		}
		if _, ok := inv.payload[tt.payloadKey]; !ok {
			t.Errorf("%s: expected payload key %q, got %v", tt.modelID, tt.payloadKey, inv.payload)
		}
	}
}

func TestPredictErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]*stubInvoker{
		"invoke": {err: errors.New("throttled")},
		"empty":  {body: []byte(`{"content":[]}`)},
		"prose":  {body: []byte(`{"content":[{"type":"text","text":"no idea"}]}`)},
	}
	for name, inv := range tests {
		_, err := newTestClassifier(inv, "anthropic.claude-v2").Predict(context.Background(), "http://example.com", core.NewFeatureSet("port"))
		if !errors.Is(err, core.ErrModelUnavailable) {
			t.Errorf("%s: expected ErrModelUnavailable, got %v", name, err)
		}
	}
}
