package urlcheck

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/fraud-detector/internal/core"
)

// YoungDomainDays is the age below which a known registration date is flagged
const YoungDomainDays = 30

// Analyzer runs feature extraction and the classification gate for a URL
type Analyzer struct {
	extractor *Extractor
	gate      *Gate
	logger    *zap.Logger
}

var _ core.URLAnalyzer = (*Analyzer)(nil)

// NewAnalyzer creates a new URL analyzer
func NewAnalyzer(extractor *Extractor, gate *Gate, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		extractor: extractor,
		gate:      gate,
		logger:    logger,
	}
}

// Analyze classifies raw. It fails only when the model is needed and unavailable.
// Input without a host still yields a result.
func (a *Analyzer) Analyze(ctx context.Context, raw string) (*core.URLResult, error) {
	decision, err := a.gate.Decide(ctx, raw)
	if err != nil {
		return nil, err
	}

	features := a.extractor.Extract(ctx, raw)
	score := decision.RiskScore()
	phishing := decision.Label == LabelPhishing

	result := &core.URLResult{
		AnalysisResult: core.AnalysisResult{
			RiskScore:       score,
			Verdict:         phishing,
			Level:           core.RiskLevel(score),
			Issues:          issues(decision, features),
			Features:        features,
			Recommendations: Recommend(phishing, score, features),
		},
		URL:             raw,
		Label:           decision.Label,
		Confidence:      decision.Confidence,
		ConfidenceLevel: ConfidenceLevel(decision.Label, decision.Confidence),
		Decision:        decision.Branch,
		Reported:        decision.Reported,
		AllowListed:     decision.AllowListed,
		ModelFeatures:   decision.ModelFeatures,
	}

	a.logger.Debug("Analyzed URL",
		zap.String("url", raw),
		zap.String("decision", decision.Branch),
		zap.Int("label", decision.Label),
		zap.Float64("confidence", decision.Confidence),
		zap.Int("risk_score", score))

	return result, nil
}

// Report marks raw as confirmed phishing
func (a *Analyzer) Report(ctx context.Context, raw string) error {
	return a.gate.Report(ctx, raw)
}

func issues(d Decision, fs core.FeatureSet) []string {
	out := make([]string, 0, 8)

	switch d.Branch {
	case DecisionReported:
		out = append(out, "URL has been reported as phishing")
	case DecisionAllowList:
		out = append(out, "Host is on the list of known legitimate sites")
	case DecisionUnparsed:
		out = append(out, "URL could not be parsed")
	case DecisionModel:
		if d.Label == LabelPhishing {
			out = append(out, fmt.Sprintf("Model classified the URL as phishing (%.0f%% confidence)", d.Confidence*100))
		}
		if d.Explanation != "" {
			out = append(out, d.Explanation)
		}
	}

	if fs.Get(FeatIsTypoDomain) == 1 {
		out = append(out, "Domain imitates a popular brand")
	}
	if fs.Get(FeatIPInDomain) == 1 {
		out = append(out, "Uses an IP address instead of a domain name")
	}
	if fs.Get(FeatAtSymbol) == 1 {
		out = append(out, "Contains an @ symbol")
	}
	if fs.Get(FeatURLLength) > 0 && fs.Get(FeatHTTPSUsed) == 0 {
		out = append(out, "Does not use HTTPS")
	}
	if fs.Get(FeatSubdomainCount) > 2 {
		out = append(out, fmt.Sprintf("Too many subdomains (%.0f)", fs.Get(FeatSubdomainCount)))
	}
	if n := fs.Get(FeatSuspiciousWords); n > 0 {
		out = append(out, fmt.Sprintf("Contains %.0f suspicious words", n))
	}
	if age := fs.Get(FeatDomainAge); age > 0 && age < YoungDomainDays {
		out = append(out, fmt.Sprintf("Domain registered only %.0f days ago", age))
	}
	if fs.Get(FeatIsJudol) == 1 {
		out = append(out, "Mentions online gambling (judol)")
	}

	return out
}
