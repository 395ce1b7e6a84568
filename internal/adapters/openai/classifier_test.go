package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mikey/fraud-detector/internal/config"
	"github.com/mikey/fraud-detector/internal/core"
	"github.com/mikey/fraud-detector/internal/utils"
	"go.uber.org/zap"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || !strings.Contains(req.Messages[1].Content, "URL: http://paypa1-login.com") {
			t.Errorf("unexpected messages %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "chatcmpl-1",
			"model": req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
}

func newTestClassifier(t *testing.T, baseURL string) *Classifier {
	t.Helper()
	cfg := config.NewFromViper(config.NewEmptyViper())
	cfg.Set("openai.api_key", "test-key")
	cfg.Set("openai.base_url", baseURL+"/v1")

	c, err := NewFactory(cfg, zap.NewNop(), utils.NewTextProcessor(nil)).CreateClassifier()
	if err != nil {
		t.Fatalf("create classifier: %v", err)
	}
	return c
}

func TestPredict(t *testing.T) {
	t.Parallel()

	srv := chatServer(t, "Here you go: {\"is_phishing\": true, \"confidence\": 0.85, \"explanation\": \"brand lookalike\"}")
	defer srv.Close()

	c := newTestClassifier(t, srv.URL)
	pred, err := c.Predict(context.Background(), "http://paypa1-login.com", core.NewFeatureSet("is_typo_domain"))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if pred.Label != 1 || pred.Confidence != 0.85 || pred.Model != "gpt-4" {
		t.Fatalf("unexpected prediction %+v", pred)
	}
}

func TestPredictUnparseable(t *testing.T) {
	t.Parallel()

	srv := chatServer(t, "I am not able to decide")
	defer srv.Close()

	c := newTestClassifier(t, srv.URL)
	_, err := c.Predict(context.Background(), "http://paypa1-login.com", core.NewFeatureSet("is_typo_domain"))
	if !errors.Is(err, core.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestFactoryRequiresKey(t *testing.T) {
	t.Parallel()

	cfg := config.NewFromViper(config.NewEmptyViper())
	if _, err := NewFactory(cfg, zap.NewNop(), utils.NewTextProcessor(nil)).CreateClassifier(); err == nil {
		t.Fatalf("expected an error without an API key")
	}
}
