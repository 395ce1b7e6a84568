package phonecheck

import (
	"context"
	"reflect"
	"testing"

	"github.com/mikey/fraud-detector/internal/adapters/reputation"
	"github.com/mikey/fraud-detector/internal/core"
)

func newAnalyzer() (*Analyzer, *reputation.MemoryStore) {
	store := reputation.NewMemoryStore(nil, CanonicalSeeds()...)
	return NewAnalyzer(store, nil), store
}

func TestNumberHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw       string
		cleaned   string
		national  string
		valid     bool
		canonical string
	}{
		{"0812-3456-7890", "081234567890", "81234567890", true, "081234567890"},
		{"+62 812 3456 7890", "+6281234567890", "81234567890", true, "081234567890"},
		{"6281234567890", "6281234567890", "81234567890", true, "081234567890"},
		{"(021) 555-1234", "0215551234", "215551234", false, ""},
		{"0801234567", "0801234567", "801234567", false, ""},
		{"12+34", "1234", "1234", false, ""},
		{"", "", "", false, ""},
	}
	for _, tt := range tests {
		cleaned := Clean(tt.raw)
		national := National(cleaned)
		canonical, ok := Canonical(tt.raw)
		if cleaned != tt.cleaned || national != tt.national || Valid(national) != tt.valid || canonical != tt.canonical || ok != tt.valid {
			t.Errorf("%q: expected %s|%s|%v|%s, got %s|%s|%v|%s", tt.raw,
				tt.cleaned, tt.national, tt.valid, tt.canonical,
				cleaned, national, Valid(national), canonical)
		}
	}
}

func TestCanonicalSeedsDedupe(t *testing.T) {
	t.Parallel()

	want := []string{"081234567890", "089876543210"}
	if got := CanonicalSeeds(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFormatting(t *testing.T) {
	t.Parallel()

	if got := Format("81234567890"); got != "+62 812-3456-7890" {
		t.Fatalf("unexpected format %q", got)
	}
	if DetectCountryCode("081234567890") != CountryCode || DetectCountryCode("81234567890") != TypeUnknown {
		t.Fatalf("unexpected country code detection")
	}
	if NumberType("812") != TypeMobile || NumberType("21") != TypeLandline || NumberType("9") != TypeUnknown {
		t.Fatalf("unexpected number types")
	}
}

func TestAnalyzeScoring(t *testing.T) {
	t.Parallel()

	a, _ := newAnalyzer()

	tests := []struct {
		number     string
		valid      bool
		score      int
		suspicious bool
		issues     int
	}{
		// sequence and ascending run
		{"0812345678901", true, 55, true, 2},
		// four identical digits only
		{"081111222233", true, 20, false, 1},
		// short cleaned length plus ascending run
		{"812345678", true, 40, false, 2},
		{"081357924680", true, 0, false, 0},
		{"12345", false, 0, false, 1},
	}
	for _, tt := range tests {
		res := a.Analyze(context.Background(), tt.number)
		if res.Valid != tt.valid || res.RiskScore != tt.score || res.Verdict != tt.suspicious || len(res.Issues) != tt.issues {
			t.Errorf("%s: expected valid=%v score=%d suspicious=%v issues=%d, got %v %d %v %v",
				tt.number, tt.valid, tt.score, tt.suspicious, tt.issues,
				res.Valid, res.RiskScore, res.Verdict, res.Issues)
		}
		if res.Level != core.RiskLevel(res.RiskScore) {
			t.Errorf("%s: level %s does not match score %d", tt.number, res.Level, res.RiskScore)
		}
	}
}

func TestKnownScamIsTerminal(t *testing.T) {
	t.Parallel()

	a, _ := newAnalyzer()
	res := a.Analyze(context.Background(), "+62 812-3456-7890")
	if res.RiskScore != 100 || !res.Verdict || len(res.Issues) != 1 {
		t.Fatalf("expected a terminal scam result, got %d %v %v", res.RiskScore, res.Verdict, res.Issues)
	}
	if res.Features.Get(FeatSequentialDigits) != 0 {
		t.Fatalf("expected pattern checks to be skipped")
	}
}

func TestReport(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	a, store := newAnalyzer()
	before := a.Analyze(ctx, "0857-9100-2468")
	if before.RiskScore == 100 {
		t.Fatalf("expected the number to be unknown before reporting")
	}

	for _, raw := range []string{"0857-9100-2468", "+6285791002468"} {
		if err := a.Report(ctx, raw); err != nil {
			t.Fatalf("report: %v", err)
		}
	}
	if store.Len() != 3 {
		t.Fatalf("expected one new canonical entry, got %d entries", store.Len())
	}

	after := a.Analyze(ctx, "085791002468")
	if after.RiskScore != 100 || !after.Verdict {
		t.Fatalf("expected reported number to score 100, got %d", after.RiskScore)
	}

	if err := a.Report(ctx, "123"); err == nil {
		t.Fatalf("expected an error for an invalid number")
	}
}

func TestPatternHelpers(t *testing.T) {
	t.Parallel()

	if !hasSequentialDigits("89876") || !hasSequentialDigits("0123") || hasSequentialDigits("1357") {
		t.Fatalf("unexpected sequential detection")
	}
	if !hasRepeatedDigits("80000") || !hasRepeatedDigits("0000") || hasRepeatedDigits("8000") {
		t.Fatalf("unexpected repeated detection")
	}
}
