package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestHeadDoesNotFollowRedirects(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		methods []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		methods = append(methods, r.Method)
		mu.Unlock()
		switch r.URL.Path {
		case "/moved":
			http.Redirect(w, r, "/favicon.ico", http.StatusFound)
		case "/favicon.ico":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewHTTPProber(srv.Client(), time.Second, nil)

	tests := map[string]int{
		"/moved":       http.StatusFound,
		"/favicon.ico": http.StatusOK,
		"/missing":     http.StatusNotFound,
	}
	for path, want := range tests {
		got, err := p.Head(context.Background(), srv.URL+path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if got != want {
			t.Errorf("%s: expected %d, got %d", path, want, got)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for _, m := range methods {
		if m != http.MethodHead {
			t.Fatalf("expected only HEAD requests, got %s", m)
		}
	}
	if len(methods) != len(tests) {
		t.Fatalf("expected %d requests, got %d", len(tests), len(methods))
	}
}

func TestHeadErrors(t *testing.T) {
	t.Parallel()

	p := NewHTTPProber(nil, 100*time.Millisecond, nil)
	if _, err := p.Head(context.Background(), "://bad"); err == nil {
		t.Fatalf("expected a request error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Head(ctx, "http://127.0.0.1:1/"); err == nil {
		t.Fatalf("expected a cancelled request to fail")
	}

	if _, err := (Offline{}).Head(context.Background(), "http://example.com"); err == nil {
		t.Fatalf("expected the offline prober to fail")
	}
}
