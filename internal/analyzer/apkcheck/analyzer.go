package apkcheck

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/mikey/fraud-detector/internal/core"
	"github.com/mikey/fraud-detector/internal/scoring"
)

// MaliciousThreshold is the score at which a package is flagged
const MaliciousThreshold = 50

// Feature names, in order
const (
	FeatAppSize          = "app_size"
	FeatPermissionCount  = "permission_count"
	FeatDangerousCount   = "dangerous_permission_count"
	FeatSuspiciousCount  = "suspicious_permission_count"
	FeatMaliciousPackage = "known_malicious_package"
	FeatVersionCode      = "version_code"
	FeatActivityCount    = "activity_count"
	FeatServiceCount     = "service_count"
	FeatReceiverCount    = "receiver_count"
	FeatProviderCount    = "provider_count"
)

// FeatureNames is the fixed shape of the APK feature set
var FeatureNames = []string{
	FeatAppSize, FeatPermissionCount, FeatDangerousCount, FeatSuspiciousCount,
	FeatMaliciousPackage, FeatVersionCode, FeatActivityCount, FeatServiceCount,
	FeatReceiverCount, FeatProviderCount,
}

// SuspiciousPermissions are permissions commonly abused by malware
var SuspiciousPermissions = []string{
	"android.permission.READ_PHONE_STATE",
	"android.permission.READ_CONTACTS",
	"android.permission.READ_SMS",
	"android.permission.SEND_SMS",
	"android.permission.RECORD_AUDIO",
	"android.permission.CAMERA",
	"android.permission.ACCESS_FINE_LOCATION",
	"android.permission.ACCESS_COARSE_LOCATION",
	"android.permission.READ_EXTERNAL_STORAGE",
	"android.permission.WRITE_EXTERNAL_STORAGE",
	"android.permission.SYSTEM_ALERT_WINDOW",
	"android.permission.REQUEST_INSTALL_PACKAGES",
	"android.permission.INSTALL_PACKAGES",
	"android.permission.DELETE_PACKAGES",
	"android.permission.ACCESS_SUPERUSER",
	"android.permission.WRITE_SECURE_SETTINGS",
	"android.permission.WRITE_SETTINGS",
	"android.permission.MODIFY_PHONE_STATE",
	"android.permission.INTERNET",
	"android.permission.ACCESS_NETWORK_STATE",
	"android.permission.ACCESS_WIFI_STATE",
	"android.permission.CHANGE_WIFI_STATE",
	"android.permission.ACCESS_BLUETOOTH",
	"android.permission.BLUETOOTH_ADMIN",
}

// DangerousPermissions are high-risk permissions; all of them are also suspicious
var DangerousPermissions = []string{
	"android.permission.READ_PHONE_STATE",
	"android.permission.READ_CONTACTS",
	"android.permission.READ_SMS",
	"android.permission.SEND_SMS",
	"android.permission.RECORD_AUDIO",
	"android.permission.CAMERA",
	"android.permission.ACCESS_FINE_LOCATION",
	"android.permission.ACCESS_COARSE_LOCATION",
	"android.permission.READ_EXTERNAL_STORAGE",
	"android.permission.WRITE_EXTERNAL_STORAGE",
}

// MaliciousPackages are package names of known malware
var MaliciousPackages = []string{
	"com.fake.banking",
	"com.scam.wallet",
	"com.malware.trojan",
	"com.spyware.tracker",
}

// Rules score the extracted features, evaluated independently
var Rules = []scoring.Rule{
	{Feature: FeatDangerousCount, Op: scoring.Above, Cutoff: 5, Points: 30, Issue: "Requests %.0f dangerous permissions"},
	{Feature: FeatSuspiciousCount, Op: scoring.Above, Cutoff: 10, Points: 25, Issue: "Requests %.0f suspicious permissions"},
	{Feature: FeatMaliciousPackage, Op: scoring.Equal, Cutoff: 1, Points: 50, Issue: "Package name is registered as malware"},
	{Feature: FeatAppSize, Op: scoring.Below, Cutoff: 1_000_000, Points: 10, Issue: "App size is suspiciously small"},
	{Feature: FeatAppSize, Op: scoring.Above, Cutoff: 100_000_000, Points: 5, Issue: "App size is very large"},
	{Feature: FeatVersionCode, Op: scoring.Below, Cutoff: 1, Points: 15, Issue: "Invalid version code"},
	{Feature: FeatActivityCount, Op: scoring.Equal, Cutoff: 0, Points: 20, Issue: "Declares no activities"},
	{Feature: FeatServiceCount, Op: scoring.Above, Cutoff: 5, Points: 15, Issue: "Declares too many services"},
	{Feature: FeatReceiverCount, Op: scoring.Above, Cutoff: 10, Points: 10, Issue: "Declares too many broadcast receivers"},
	{Feature: FeatProviderCount, Op: scoring.Above, Cutoff: 3, Points: 10, Issue: "Declares too many content providers"},
}

// Analyzer scores Android packages. Any extraction error fails closed.
type Analyzer struct {
	dangerous  map[string]struct{}
	suspicious map[string]struct{}
	malicious  map[string]struct{}
	logger     *zap.Logger
}

var _ core.APKAnalyzer = (*Analyzer)(nil)

// NewAnalyzer creates a new APK analyzer
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		dangerous:  set(DangerousPermissions),
		suspicious: set(SuspiciousPermissions),
		malicious:  set(MaliciousPackages),
		logger:     logger,
	}
}

// AnalyzeFile analyzes the package at path
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) *core.APKResult {
	f, err := os.Open(path)
	if err != nil {
		return a.failClosed(0, fmt.Errorf("failed to open %s: %w", path, err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return a.failClosed(0, fmt.Errorf("failed to stat %s: %w", path, err))
	}
	return a.Analyze(ctx, f, info.Size())
}

// Analyze analyzes a package archive of the given size
func (a *Analyzer) Analyze(_ context.Context, r io.ReaderAt, size int64) *core.APKResult {
	text, err := manifestText(r, size)
	if err != nil {
		return a.failClosed(size, err)
	}

	manifest := parseManifest(text)
	comps := countComponents(text)

	fs := core.NewFeatureSet(FeatureNames...)
	fs.Set(FeatAppSize, float64(size))
	fs.Set(FeatPermissionCount, float64(len(manifest.Permissions)))
	fs.Set(FeatDangerousCount, float64(count(manifest.Permissions, a.dangerous)))
	fs.Set(FeatSuspiciousCount, float64(count(manifest.Permissions, a.suspicious)))
	_, known := a.malicious[manifest.PackageName]
	fs.SetBool(FeatMaliciousPackage, known)
	fs.Set(FeatVersionCode, float64(manifest.VersionCode))
	fs.Set(FeatActivityCount, float64(comps.activities))
	fs.Set(FeatServiceCount, float64(comps.services))
	fs.Set(FeatReceiverCount, float64(comps.receivers))
	fs.Set(FeatProviderCount, float64(comps.providers))

	tally := scoring.NewTally()
	tally.Apply(fs, Rules)
	score := tally.Score()
	malicious := score >= MaliciousThreshold

	a.logger.Debug("Analyzed APK",
		zap.String("package", manifest.PackageName),
		zap.Int64("size", size),
		zap.Int("permissions", len(manifest.Permissions)),
		zap.Int("risk_score", score))

	return &core.APKResult{
		AnalysisResult: core.AnalysisResult{
			RiskScore:       score,
			Verdict:         malicious,
			Level:           core.RiskLevel(score),
			Issues:          tally.Issues(),
			Features:        fs,
			Recommendations: Recommend(malicious, fs),
		},
		Manifest: manifest,
	}
}

// failClosed reports an unreadable package as maximally malicious
func (a *Analyzer) failClosed(size int64, err error) *core.APKResult {
	a.logger.Warn("APK analysis failed, treating package as malicious", zap.Error(err))

	fs := core.NewFeatureSet(FeatureNames...)
	fs.Set(FeatAppSize, float64(size))

	return &core.APKResult{
		AnalysisResult: core.AnalysisResult{
			RiskScore:       scoring.MaxScore,
			Verdict:         true,
			Level:           core.RiskLevel(scoring.MaxScore),
			Issues:          []string{fmt.Sprintf("Error analyzing APK: %v", err)},
			Features:        fs,
			Recommendations: verdictAdvice(true),
		},
		Manifest: parseManifest(""),
	}
}

func set(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		out[it] = struct{}{}
	}
	return out
}

func count(perms []string, in map[string]struct{}) int {
	n := 0
	for _, p := range perms {
		if _, ok := in[p]; ok {
			n++
		}
	}
	return n
}
