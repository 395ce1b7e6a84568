package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mikey/fraud-detector/internal/config"
	"github.com/mikey/fraud-detector/internal/core"
	"github.com/mikey/fraud-detector/internal/factory"
	"github.com/mikey/fraud-detector/internal/ports"
)

func TestParseFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "url", args: []string{"-type", "url", "-input", "http://example.com"}},
		{name: "url without input", args: []string{"-type", "url"}, wantErr: true},
		{name: "phone report", args: []string{"-type", "phone", "-input", "081234567890", "-report"}},
		{name: "email from stdin", args: []string{"-type", "email"}},
		{name: "email report", args: []string{"-type", "email", "-report"}, wantErr: true},
		{name: "apk without file", args: []string{"-type", "apk"}, wantErr: true},
		{name: "apk", args: []string{"-type", "APK", "-file", "app.apk"}},
		{name: "unknown type", args: []string{"-type", "sms"}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseFlags(tt.args)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error %t, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadCLIConfigOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := loadCLIConfig(&CLIFlags{
		Type:     TypeURL,
		Offline:  true,
		Model:    "/tmp/model.json",
		Backend:  "remote",
		MaxLinks: 0,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	urlCfg := cfg.GetURL()
	if urlCfg.NetworkEnabled {
		t.Error("Expected network checks to be disabled")
	}
	if urlCfg.ModelPath != "/tmp/model.json" {
		t.Errorf("Expected model path override, got %s", urlCfg.ModelPath)
	}
	if urlCfg.Backend != "remote" {
		t.Errorf("Expected backend override, got %s", urlCfg.Backend)
	}
	if cfg.GetServer().FilterType != "cli" {
		t.Errorf("Expected cli filter, got %s", cfg.GetServer().FilterType)
	}
	if cfg.GetServer().CheckLinks {
		t.Error("Expected link checks off when max links is zero")
	}
}

func TestBuildCLIContainer(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	flags := &CLIFlags{
		Type:     TypePhone,
		Input:    "081234567890",
		Offline:  true,
		Model:    filepath.Join(dir, "model.json"),
		MaxLinks: 5,
	}
	container, err := BuildCLIContainer(flags)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Keep the URL report file inside the temp dir
	if err := container.Decorate(func(cfg *config.Config) *config.Config {
		cfg.Set("url.reputation.file_path", filepath.Join(dir, "reported_urls.json"))
		return cfg
	}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	err = container.Invoke(func(svc *core.DetectionService, ef ports.EmailFilter, resources *factory.Resources) {
		defer resources.Close()
		if ef == nil {
			t.Fatal("Expected an email filter")
		}
		if r := svc.AnalyzePhone(context.Background(), flags.Input); !r.Verdict {
			t.Errorf("Expected seeded scam number to be flagged, got score %d", r.RiskScore)
		}
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}
