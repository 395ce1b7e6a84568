package apkcheck

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/unicode"

	"github.com/mikey/fraud-detector/internal/core"
)

const benignManifest = `<?xml version="1.0" encoding="utf-8"?>
<manifest xmlns:android="http://schemas.android.com/apk/res/android"
    package="com.example.notes"
    android:versionCode="3"
    android:versionName="1.2.0">
    <uses-permission android:name="android.permission.INTERNET" />
    <uses-permission android:name="android.permission.CAMERA" />
    <application android:label="Notes">
        <activity android:name=".MainActivity" />
        <activity android:name=".SettingsActivity" />
        <service android:name=".SyncService" />
    </application>
</manifest>`

func buildAPK(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func analyzeBytes(data []byte) *core.APKResult {
	return NewAnalyzer(nil).Analyze(context.Background(), bytes.NewReader(data), int64(len(data)))
}

func TestAnalyzeBenignManifest(t *testing.T) {
	t.Parallel()

	res := analyzeBytes(buildAPK(t, map[string][]byte{
		"AndroidManifest.xml": []byte(benignManifest),
		"classes.dex":         []byte("dex"),
	}))

	m := res.Manifest
	if m.PackageName != "com.example.notes" || m.AppName != "Notes" || m.VersionName != "1.2.0" || m.VersionCode != 3 {
		t.Fatalf("unexpected manifest %+v", m)
	}
	if len(m.Permissions) != 2 {
		t.Fatalf("expected only uses-permission names, got %v", m.Permissions)
	}

	fs := res.Features
	if fs.Get(FeatDangerousCount) != 1 || fs.Get(FeatSuspiciousCount) != 2 ||
		fs.Get(FeatActivityCount) != 2 || fs.Get(FeatServiceCount) != 1 {
		t.Fatalf("unexpected features %v", fs.Values())
	}

	// only the small-size rule fires
	if res.RiskScore != 10 || res.Verdict || res.Level != core.LevelSafe {
		t.Fatalf("expected score 10, got %d %v", res.RiskScore, res.Issues)
	}
}

func TestAnalyzeKnownMalwareIsCapped(t *testing.T) {
	t.Parallel()

	var perms strings.Builder
	for _, p := range DangerousPermissions[:7] {
		fmt.Fprintf(&perms, `<uses-permission android:name="%s"/>`, p)
	}
	manifest := `<manifest package="com.fake.banking" android:versionCode="1">` +
		perms.String() + `<application/></manifest>`

	res := analyzeBytes(buildAPK(t, map[string][]byte{"AndroidManifest.xml": []byte(manifest)}))
	// 50 package + 30 dangerous + 20 no activity + 10 size
	if res.RiskScore != 100 || !res.Verdict {
		t.Fatalf("expected capped score 100, got %d", res.RiskScore)
	}
	if len(res.Issues) != 4 {
		t.Fatalf("expected 4 issues, got %v", res.Issues)
	}
	if res.Features.Get(FeatMaliciousPackage) != 1 {
		t.Fatalf("expected the package to be flagged")
	}
}

func TestMissingFieldsUseDefaults(t *testing.T) {
	t.Parallel()

	res := analyzeBytes(buildAPK(t, map[string][]byte{
		"AndroidManifest.xml": []byte(`<manifest><application><activity/></application></manifest>`),
	}))
	m := res.Manifest
	if m.PackageName != unknown || m.AppName != unknown || m.VersionName != unknown || m.VersionCode != 0 {
		t.Fatalf("expected defaults, got %+v", m)
	}
	// invalid version code + small size
	if res.RiskScore != 25 || res.Level != core.LevelLow {
		t.Fatalf("expected score 25, got %d %v", res.RiskScore, res.Issues)
	}
}

func TestUTF16Manifest(t *testing.T) {
	t.Parallel()

	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.Bytes([]byte(benignManifest))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	res := analyzeBytes(buildAPK(t, map[string][]byte{"AndroidManifest.xml": data}))
	if res.Manifest.PackageName != "com.example.notes" || res.RiskScore != 10 {
		t.Fatalf("expected the UTF-16 manifest to parse, got %+v %d", res.Manifest, res.RiskScore)
	}
}

func TestFailClosed(t *testing.T) {
	t.Parallel()

	tests := map[string][]byte{
		"missing manifest": buildAPK(t, map[string][]byte{"classes.dex": []byte("dex")}),
		"not a zip":        []byte("this is not an archive"),
		"garbage manifest": buildAPK(t, map[string][]byte{"AndroidManifest.xml": {0xff, 0xfe, 0x00, 0x01, 0x02}}),
		"corrupt axml":     buildAPK(t, map[string][]byte{"AndroidManifest.xml": {0x03, 0x00, 0x08, 0x00, 0x01}}),
	}
	for name, data := range tests {
		res := analyzeBytes(data)
		if res.RiskScore != 100 || !res.Verdict || res.Level != core.LevelVeryHigh {
			t.Errorf("%s: expected fail-closed result, got %d %v", name, res.RiskScore, res.Verdict)
		}
		if len(res.Issues) != 1 || !strings.HasPrefix(res.Issues[0], "Error analyzing APK: ") {
			t.Errorf("%s: unexpected issues %v", name, res.Issues)
		}
	}
}

func TestAnalyzeFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "app.apk")
	if err := os.WriteFile(path, buildAPK(t, map[string][]byte{"AndroidManifest.xml": []byte(benignManifest)}), 0o644); err != nil {
		t.Fatalf("write apk: %v", err)
	}

	a := NewAnalyzer(nil)
	res := a.AnalyzeFile(context.Background(), path)
	if res.Manifest.PackageName != "com.example.notes" {
		t.Fatalf("unexpected package %q", res.Manifest.PackageName)
	}

	res = a.AnalyzeFile(context.Background(), filepath.Join(dir, "absent.apk"))
	if res.RiskScore != 100 || !res.Verdict {
		t.Fatalf("expected a missing file to fail closed")
	}
}
