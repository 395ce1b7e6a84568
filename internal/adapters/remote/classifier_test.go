package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mikey/fraud-detector/internal/core"
)

func TestPredict(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		var req struct {
			URL      string             `json:"url"`
			Features map[string]float64 `json:"features"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.URL != "http://paypa1.com" || req.Features["Domain_Age"] != 3 {
			t.Errorf("unexpected request %+v", req)
		}
		_, _ = w.Write([]byte(`{"label":1,"confidence":0.92,"explanation":"lookalike"}`))
	}))
	defer srv.Close()

	fs := core.NewFeatureSet("Domain_Age", "Have_IP")
	fs.Set("Domain_Age", 3)

	c := NewClassifier(srv.URL, "secret", time.Second, nil)
	pred, err := c.Predict(context.Background(), "http://paypa1.com", fs)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if pred.Label != 1 || pred.Confidence != 0.92 || pred.Model != "remote" || pred.Explanation != "lookalike" {
		t.Fatalf("unexpected prediction %+v", pred)
	}
}

func TestPredictUnavailable(t *testing.T) {
	t.Parallel()

	tests := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		},
		"incomplete": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"label":1}`))
		},
		"range": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"label":0,"confidence":1.5}`))
		},
	}
	for name, h := range tests {
		srv := httptest.NewServer(h)
		c := NewClassifier(srv.URL, "", time.Second, nil)
		_, err := c.Predict(context.Background(), "http://example.com", core.NewFeatureSet("a"))
		srv.Close()
		if !errors.Is(err, core.ErrModelUnavailable) {
			t.Errorf("%s: expected ErrModelUnavailable, got %v", name, err)
		}
	}
}
