package emailcheck

import (
	"context"

	"go.uber.org/zap"

	"github.com/mikey/fraud-detector/internal/core"
	"github.com/mikey/fraud-detector/internal/scoring"
	"github.com/mikey/fraud-detector/internal/whitelist"
)

// SpamThreshold is the score at which a message is flagged as spam
const SpamThreshold = 50

// Rules are the content rules, evaluated independently
var Rules = []scoring.Rule{
	{Feature: FeatSpamKeywords, Op: scoring.Above, Cutoff: 5, Points: 30, Issue: "Contains %.0f spam keywords"},
	{Feature: FeatSuspiciousCount, Op: scoring.Above, Cutoff: 3, Points: 25, Issue: "Contains %.0f suspicious patterns"},
	{Feature: FeatAllCapsRatio, Op: scoring.Above, Cutoff: 0.3, Points: 20, Issue: "Too many capital letters"},
	{Feature: FeatExclamationCount, Op: scoring.Above, Cutoff: 5, Points: 15, Issue: "Too many exclamation marks"},
	{Feature: FeatURLCount, Op: scoring.Above, Cutoff: 3, Points: 20, Issue: "Too many links"},
	{Feature: FeatNumberCount, Op: scoring.Above, Cutoff: 10, Points: 15, Issue: "Too many numbers"},
	{Feature: FeatLength, Op: scoring.Below, Cutoff: 50, Points: 10, Issue: "Message is too short"},
	{Feature: FeatLength, Op: scoring.Above, Cutoff: 2000, Points: 10, Issue: "Message is too long"},
}

// Analyzer scores email content and its sender
type Analyzer struct {
	providers *whitelist.Checker
	logger    *zap.Logger
}

var _ core.EmailAnalyzer = (*Analyzer)(nil)

// NewAnalyzer creates a new email analyzer. An empty provider list uses DefaultProviders.
func NewAnalyzer(providers []string, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(providers) == 0 {
		providers = DefaultProviders
	}
	return &Analyzer{
		providers: whitelist.NewChecker(providers, nil),
		logger:    logger,
	}
}

// Analyze scores content; sender is optional
func (a *Analyzer) Analyze(_ context.Context, content, sender string) *core.EmailResult {
	fs := Extract(content)
	tally := scoring.NewTally()

	if sender != "" {
		a.checkSender(sender, tally)
	}
	tally.Apply(fs, Rules)

	score := tally.Score()
	spam := score >= SpamThreshold

	a.logger.Debug("Analyzed email",
		zap.String("sender", sender),
		zap.Int("risk_score", score),
		zap.Bool("is_spam", spam))

	return &core.EmailResult{
		AnalysisResult: core.AnalysisResult{
			RiskScore:       score,
			Verdict:         spam,
			Level:           core.RiskLevel(score),
			Issues:          tally.Issues(),
			Features:        fs,
			Recommendations: Recommend(spam, fs),
		},
		Sender: sender,
	}
}
