package phonecheck

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/fraud-detector/internal/core"
	"github.com/mikey/fraud-detector/internal/scoring"
)

// SuspiciousThreshold is the score at which a number is flagged
const SuspiciousThreshold = 50

// Feature names, in order
const (
	FeatNationalLength     = "national_length"
	FeatCleanedLength      = "cleaned_length"
	FeatSuspiciousSequence = "has_suspicious_sequence"
	FeatRepeatedDigits     = "has_repeated_digits"
	FeatSequentialDigits   = "has_sequential_digits"
	FeatLengthOutOfRange   = "length_out_of_range"
)

// FeatureNames is the fixed shape of the phone feature set
var FeatureNames = []string{
	FeatNationalLength, FeatCleanedLength, FeatSuspiciousSequence,
	FeatRepeatedDigits, FeatSequentialDigits, FeatLengthOutOfRange,
}

// SuspiciousSequences are digit runs typical of fake or test numbers
var SuspiciousSequences = []string{
	"1234567890",
	"0987654321",
	"1111111111",
	"0000000000",
	"9999999999",
}

// Rules are the pattern checks, evaluated independently
var Rules = []scoring.Rule{
	{Feature: FeatSuspiciousSequence, Op: scoring.Equal, Cutoff: 1, Points: 30, Issue: "Contains a suspicious digit sequence"},
	{Feature: FeatRepeatedDigits, Op: scoring.Equal, Cutoff: 1, Points: 20, Issue: "Contains repeated digits"},
	{Feature: FeatSequentialDigits, Op: scoring.Equal, Cutoff: 1, Points: 25, Issue: "Contains sequential digits"},
	{Feature: FeatLengthOutOfRange, Op: scoring.Equal, Cutoff: 1, Points: 15, Issue: "Unusual number length"},
}

// Analyzer validates and scores phone numbers against a known-scam store
type Analyzer struct {
	scams  core.ReputationStore
	logger *zap.Logger
}

var _ core.PhoneAnalyzer = (*Analyzer)(nil)

// NewAnalyzer creates a new phone analyzer. Store keys are canonical numbers.
func NewAnalyzer(scams core.ReputationStore, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		scams:  scams,
		logger: logger,
	}
}

// Analyze validates number and scores it. A known scam number is terminal.
func (a *Analyzer) Analyze(ctx context.Context, number string) *core.PhoneResult {
	cleaned := Clean(number)
	national := National(cleaned)

	fs := core.NewFeatureSet(FeatureNames...)
	fs.Set(FeatNationalLength, float64(len(national)))
	fs.Set(FeatCleanedLength, float64(len(cleaned)))

	result := &core.PhoneResult{
		AnalysisResult: core.AnalysisResult{
			Level:    core.LevelSafe,
			Features: fs,
		},
		FormattedNumber: cleaned,
	}

	if !Valid(national) {
		result.Issues = []string{"Invalid number format"}
		result.Recommendations = Recommend(result)
		return result
	}

	result.Valid = true
	result.FormattedNumber = Format(national)
	result.CountryCode = DetectCountryCode(cleaned)
	result.NumberType = NumberType(national)

	if a.known(ctx, "0"+national) {
		result.RiskScore = scoring.MaxScore
		result.Verdict = true
		result.Level = core.RiskLevel(scoring.MaxScore)
		result.Issues = []string{"Number is registered as a scam number"}
		result.Recommendations = Recommend(result)
		return result
	}

	fs.SetBool(FeatSuspiciousSequence, hasSuspiciousSequence(national))
	fs.SetBool(FeatRepeatedDigits, hasRepeatedDigits(national))
	fs.SetBool(FeatSequentialDigits, hasSequentialDigits(national))
	fs.SetBool(FeatLengthOutOfRange, len(cleaned) < 10 || len(cleaned) > 15)

	tally := scoring.NewTally()
	tally.Apply(fs, Rules)

	result.RiskScore = tally.Score()
	result.Verdict = result.RiskScore >= SuspiciousThreshold
	result.Level = core.RiskLevel(result.RiskScore)
	result.Issues = tally.Issues()
	result.Recommendations = Recommend(result)

	a.logger.Debug("Analyzed phone number",
		zap.String("number", result.FormattedNumber),
		zap.Int("risk_score", result.RiskScore),
		zap.Bool("is_suspicious", result.Verdict))

	return result
}

// Report adds number to the known-scam store
func (a *Analyzer) Report(ctx context.Context, number string) error {
	if a.scams == nil {
		return fmt.Errorf("no scam number store configured")
	}
	key, ok := Canonical(number)
	if !ok {
		return fmt.Errorf("cannot report invalid number %q", number)
	}
	if err := a.scams.Add(ctx, key); err != nil {
		return fmt.Errorf("failed to record scam number: %w", err)
	}
	a.logger.Info("Phone number reported as scam", zap.String("number", key))
	return nil
}

func (a *Analyzer) known(ctx context.Context, key string) bool {
	if a.scams == nil {
		return false
	}
	ok, err := a.scams.Contains(ctx, key)
	if err != nil {
		a.logger.Warn("Failed to query scam number store", zap.String("number", key), zap.Error(err))
		return false
	}
	return ok
}

func hasSuspiciousSequence(n string) bool {
	for _, s := range SuspiciousSequences {
		if strings.Contains(n, s) {
			return true
		}
	}
	return false
}

func hasRepeatedDigits(n string) bool {
	for i := 0; i+3 < len(n); i++ {
		if n[i] == n[i+1] && n[i] == n[i+2] && n[i] == n[i+3] {
			return true
		}
	}
	return false
}

// hasSequentialDigits looks for four digits stepping by +1 or -1
func hasSequentialDigits(n string) bool {
	for i := 0; i+3 < len(n); i++ {
		for _, step := range []int{1, -1} {
			run := true
			for j := 1; j <= 3; j++ {
				if int(n[i+j])-int(n[i]) != step*j {
					run = false
					break
				}
			}
			if run {
				return true
			}
		}
	}
	return false
}
