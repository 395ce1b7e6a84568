package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := NewFromViper(NewEmptyViper())

	u := cfg.GetURL()
	if u.Backend != "forest" || u.TypoThreshold != 0.8 || !u.NetworkEnabled || u.LookupTimeout != 5*time.Second {
		t.Fatalf("unexpected url defaults %+v", u)
	}
	if r := cfg.GetReputation("url"); r.Type != "file" || r.Scope != "url" {
		t.Fatalf("unexpected url reputation defaults %+v", r)
	}
	if r := cfg.GetPhone().Reputation; r.Type != "memory" {
		t.Fatalf("expected phone reputation in memory, got %q", r.Type)
	}
	s := cfg.GetServer()
	if s.Headers.Status != "X-Fraud-Status" || s.MaxLinks != 5 || s.BlockSpam {
		t.Fatalf("unexpected server defaults %+v", s)
	}
	if c := cfg.GetCache(); c.TTL != 24*time.Hour || c.CleanupFrequency != time.Hour {
		t.Fatalf("unexpected cache defaults %+v", c)
	}
}

func TestNewWithFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
url:
  classifier:
    backend: remote
  network:
    lookup_timeout: 2s
phone:
  reputation:
    type: redis
remote:
  endpoint: http://inference:9000
whois:
  servers:
    id: whois.example.id
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := NewWithFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.GetURL(); got.Backend != "remote" || got.LookupTimeout != 2*time.Second {
		t.Fatalf("unexpected url config %+v", got)
	}
	if got := cfg.GetPhone().Reputation.Type; got != "redis" {
		t.Fatalf("expected redis, got %q", got)
	}
	if got := cfg.GetRemote().Endpoint; got != "http://inference:9000" {
		t.Fatalf("unexpected endpoint %q", got)
	}
	if got := cfg.GetWhois().Servers["id"]; got != "whois.example.id" {
		t.Fatalf("unexpected whois server %q", got)
	}
	// defaults survive alongside the file
	if got := cfg.GetString("logging.level"); got != "info" {
		t.Fatalf("expected default log level, got %q", got)
	}

	if _, err := NewWithFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected an error for an explicit missing file")
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Parallel()

	cfg := NewFromViper(NewEmptyViper())
	cfg.Set("url.network.lookup_timeout", "soon")
	if got := cfg.GetURL().LookupTimeout; got != 5*time.Second {
		t.Fatalf("expected the default timeout, got %v", got)
	}
	if _, err := cfg.GetDuration("url.network.lookup_timeout"); err == nil {
		t.Fatalf("expected a parse error")
	}
}
