package factory

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mikey/fraud-detector/internal/adapters/filter"
	"github.com/mikey/fraud-detector/internal/adapters/forest"
	"github.com/mikey/fraud-detector/internal/adapters/probe"
	"github.com/mikey/fraud-detector/internal/adapters/remote"
	"github.com/mikey/fraud-detector/internal/config"
	"github.com/mikey/fraud-detector/internal/core"
	"github.com/mikey/fraud-detector/internal/utils"
	"go.uber.org/zap"
)

// testConfig returns an offline configuration that keeps all state under a temp dir
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.NewFromViper(config.NewEmptyViper())
	cfg.Set("url.network.enabled", false)
	cfg.Set("url.classifier.model_path", filepath.Join(dir, "missing_model.json"))
	cfg.Set("url.reputation.file_path", filepath.Join(dir, "reported_urls.json"))
	cfg.Set("phone.reputation.file_path", filepath.Join(dir, "scam_numbers.json"))
	cfg.Set("reputation.sqlite_path", filepath.Join(dir, "reputation.db"))
	cfg.Set("cache.sqlite_path", filepath.Join(dir, "cache.db"))
	return cfg
}

func newAnalyzerFactory(cfg *config.Config, resources *Resources) *AnalyzerFactory {
	logger := zap.NewNop()
	caches := NewCacheFactory(cfg, logger, resources)
	return NewAnalyzerFactory(
		cfg,
		logger,
		NewClassifierFactory(cfg, logger, utils.NewTextProcessor(logger), resources),
		NewReputationFactory(cfg, logger, resources),
		NewNetCheckFactory(cfg, logger, caches),
	)
}

func TestCreateStoreSeedsPhoneScope(t *testing.T) {
	t.Parallel()

	for _, storeType := range []string{"memory", "file", "sqlite"} {
		storeType := storeType
		t.Run(storeType, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig(t)
			cfg.Set("phone.reputation.type", storeType)
			resources := NewResources(zap.NewNop())
			defer resources.Close()

			store, err := NewReputationFactory(cfg, zap.NewNop(), resources).CreateStore(context.Background(), ScopePhone)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			known, err := store.Contains(context.Background(), "081234567890")
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !known {
				t.Errorf("Expected built-in scam number to be seeded into the %s store", storeType)
			}
		})
	}
}

func TestCreateStoreURLScopeStartsEmpty(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Set("url.reputation.type", "memory")

	store, err := NewReputationFactory(cfg, zap.NewNop(), nil).CreateStore(context.Background(), ScopeURL)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	known, _ := store.Contains(context.Background(), "081234567890")
	if known {
		t.Error("Expected URL store to start empty")
	}
}

func TestCreateStoreUnsupported(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Set("url.reputation.type", "etcd")

	_, err := NewReputationFactory(cfg, zap.NewNop(), nil).CreateStore(context.Background(), ScopeURL)
	if err == nil || !strings.Contains(err.Error(), "unsupported reputation store type") {
		t.Errorf("Expected unsupported type error, got %v", err)
	}
}

func TestCreateClassifier(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	f := NewClassifierFactory(cfg, zap.NewNop(), utils.NewTextProcessor(nil), nil)

	c, err := f.CreateClassifier(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := c.(*forest.Handle); !ok {
		t.Errorf("Expected forest handle by default, got %T", c)
	}

	cfg.Set("url.classifier.backend", "remote")
	c, err = f.CreateClassifier(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := c.(*remote.Classifier); !ok {
		t.Errorf("Expected remote classifier, got %T", c)
	}

	cfg.Set("url.classifier.backend", "openai")
	if _, err := f.CreateClassifier(context.Background()); err == nil {
		t.Error("Expected error for openai backend without an API key")
	}

	cfg.Set("url.classifier.backend", "svm")
	_, err = f.CreateClassifier(context.Background())
	if err == nil || !strings.Contains(err.Error(), "unsupported classifier backend") {
		t.Errorf("Expected unsupported backend error, got %v", err)
	}
}

func TestCreateCacheRepository(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	resources := NewResources(zap.NewNop())
	f := NewCacheFactory(cfg, zap.NewNop(), resources)

	if _, err := f.CreateCacheRepository(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	cfg.Set("cache.type", "sqlite")
	if _, err := f.CreateCacheRepository(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := resources.Close(); err != nil {
		t.Errorf("Expected clean shutdown, got %v", err)
	}

	cfg.Set("cache.type", "memcached")
	if _, err := f.CreateCacheRepository(); err == nil {
		t.Error("Expected error for unsupported cache type")
	}
}

func TestNetCheckOffline(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	f := NewNetCheckFactory(cfg, zap.NewNop(), NewCacheFactory(cfg, zap.NewNop(), nil))

	lookup, err := f.CreateDomainAgeLookup()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if lookup != nil {
		t.Errorf("Expected no WHOIS lookup offline, got %T", lookup)
	}
	if _, ok := f.CreateProber().(probe.Offline); !ok {
		t.Errorf("Expected offline prober, got %T", f.CreateProber())
	}

	cfg.Set("url.network.enabled", true)
	lookup, err = f.CreateDomainAgeLookup()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if lookup == nil {
		t.Error("Expected a WHOIS lookup when networking is enabled")
	}
	if _, ok := f.CreateProber().(*probe.HTTPProber); !ok {
		t.Errorf("Expected HTTP prober, got %T", f.CreateProber())
	}
}

func TestCreateDetectionService(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	resources := NewResources(zap.NewNop())
	defer resources.Close()
	ctx := context.Background()

	svc, err := newAnalyzerFactory(cfg, resources).CreateDetectionService(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	phone := svc.AnalyzePhone(ctx, "+62 812-3456-7890")
	if !phone.Verdict || phone.RiskScore != 100 {
		t.Errorf("Expected known scam number to score 100, got %d (verdict %t)", phone.RiskScore, phone.Verdict)
	}

	allowed, err := svc.AnalyzeURL(ctx, "https://www.google.com/search")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if allowed.Verdict {
		t.Error("Expected allow-listed URL to be legitimate")
	}

	// No model file exists, so anything needing the model is unavailable
	if _, err := svc.AnalyzeURL(ctx, "http://secure-login.example-bank.xyz/verify"); !errors.Is(err, core.ErrModelUnavailable) {
		t.Errorf("Expected ErrModelUnavailable, got %v", err)
	}

	// A report short-circuits the model
	if err := svc.ReportURL(ctx, "http://secure-login.example-bank.xyz/verify"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	reported, err := svc.AnalyzeURL(ctx, "http://secure-login.example-bank.xyz/verify")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !reported.Verdict {
		t.Error("Expected reported URL to be phishing")
	}

	email := svc.AnalyzeEmail(ctx, "Hello team, the meeting notes are attached.", "alice@example.com")
	if email.Verdict {
		t.Errorf("Expected plain email to be clean, got score %d", email.RiskScore)
	}
}

func TestCreateEmailFilter(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	f := NewFilterFactory(cfg, zap.NewNop(), nil, utils.NewTextProcessor(nil))
	f.out = &bytes.Buffer{}

	ef, err := f.CreateEmailFilter()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := ef.(*filter.SMTPFilter); !ok {
		t.Errorf("Expected SMTP filter by default, got %T", ef)
	}

	cfg.Set("server.filter_type", "cli")
	ef, err = f.CreateEmailFilter()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := ef.(*filter.CliFilter); !ok {
		t.Errorf("Expected CLI filter, got %T", ef)
	}

	cfg.Set("server.filter_type", "milter")
	if _, err := f.CreateEmailFilter(); err == nil {
		t.Error("Expected error for unsupported filter type")
	}
}

func TestResourcesCloseOrder(t *testing.T) {
	t.Parallel()
	r := NewResources(zap.NewNop())

	var order []string
	boom := errors.New("boom")
	r.Track("first", func() error { order = append(order, "first"); return nil })
	r.Track("second", func() error { order = append(order, "second"); return boom })

	err := r.Close()
	if !errors.Is(err, boom) {
		t.Errorf("Expected joined error to contain boom, got %v", err)
	}
	if strings.Join(order, ",") != "second,first" {
		t.Errorf("Expected reverse close order, got %v", order)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Expected second Close to be a no-op, got %v", err)
	}
}
