package urlcheck

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/fraud-detector/internal/core"
	"github.com/mikey/fraud-detector/internal/whitelist"
)

// OverrideConfidence is the fixed confidence of allow-list and report decisions
const OverrideConfidence = 0.95

// Labels emitted by the gate
const (
	LabelLegitimate = 0
	LabelPhishing   = 1
)

// Decision branches, in precedence order
const (
	DecisionReported  = "reported"
	DecisionAllowList = "allow-list"
	DecisionModel     = "model"
	// DecisionUnparsed covers URLs without a host: legitimate with zero confidence,
	// so the risk settles at the legitimate ceiling of 20
	DecisionUnparsed = "unparsed"
)

// Decision is the classification outcome for one URL
type Decision struct {
	Label         int
	Confidence    float64
	Branch        string
	Reported      bool
	AllowListed   bool
	Model         string
	Explanation   string
	ModelFeatures core.FeatureSet
}

// RiskScore derives the risk from the label. Legitimate predictions never exceed 20.
func (d Decision) RiskScore() int {
	if d.Label == LabelPhishing {
		return int(math.Round(d.Confidence * 100))
	}
	return int(math.Round((1 - d.Confidence) * 20))
}

// Gate combines the allow-list, user reports and the classifier
type Gate struct {
	allow   *whitelist.Checker
	model   core.Classifier
	reports core.ReputationStore
	adapter *ModelAdapter
	logger  *zap.Logger
}

// NewGate creates a new classification gate
func NewGate(
	allow *whitelist.Checker,
	model core.Classifier,
	reports core.ReputationStore,
	adapter *ModelAdapter,
	logger *zap.Logger,
) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = NewModelAdapter(nil, 0)
	}
	return &Gate{
		allow:   allow,
		model:   model,
		reports: reports,
		adapter: adapter,
		logger:  logger,
	}
}

// ReportKey normalises a URL for the report set
func ReportKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Decide classifies raw. The allow-list is consulted first, the report set second,
// and a report always wins. The model is only queried when neither applies and the
// URL has a host; otherwise the decision is legitimate with zero confidence.
func (g *Gate) Decide(ctx context.Context, raw string) (Decision, error) {
	var d Decision

	if parts, err := Split(raw); err == nil {
		d.AllowListed = g.allow.IsAllowed(parts.Host)
	}

	if g.reports != nil {
		reported, err := g.reports.Contains(ctx, ReportKey(raw))
		if err != nil {
			g.logger.Warn("Failed to read report set, treating URL as not reported",
				zap.String("url", raw),
				zap.Error(err))
		}
		d.Reported = reported && err == nil
	}

	if features, err := g.adapter.Adapt(raw); err == nil {
		d.ModelFeatures = features
	}

	switch {
	case d.Reported:
		d.Label, d.Confidence, d.Branch = LabelPhishing, OverrideConfidence, DecisionReported
		d.Model = "report"
		g.logger.Info("URL forced to phishing by report",
			zap.String("url", raw),
			zap.String("action", "report_override"),
			zap.Bool("allow_listed", d.AllowListed))

	case d.AllowListed:
		d.Label, d.Confidence, d.Branch = LabelLegitimate, OverrideConfidence, DecisionAllowList
		d.Model = "allow-list"
		g.logger.Info("Skipping model for allow-listed host",
			zap.String("url", raw),
			zap.String("action", "allowlist_bypass"))

	case d.ModelFeatures.Len() == 0:
		d.Label, d.Confidence, d.Branch = LabelLegitimate, 0, DecisionUnparsed
		d.Model = "none"
		g.logger.Info("URL has no host, skipping model",
			zap.String("url", raw),
			zap.String("action", "unparsed"))

	default:
		if g.model == nil {
			return Decision{}, core.ErrModelUnavailable
		}
		pred, err := g.model.Predict(ctx, raw, d.ModelFeatures)
		if err != nil {
			return Decision{}, fmt.Errorf("failed to classify url: %w", err)
		}
		d.Label, d.Confidence, d.Branch = pred.Label, pred.Confidence, DecisionModel
		d.Model = pred.Model
		d.Explanation = pred.Explanation
		if d.Label != LabelPhishing {
			d.Label = LabelLegitimate
		}
	}

	return d, nil
}

// Report records raw as phishing; reporting the same URL again has no further effect
func (g *Gate) Report(ctx context.Context, raw string) error {
	if g.reports == nil {
		return fmt.Errorf("no report store configured")
	}
	key := ReportKey(raw)
	if key == "" {
		return fmt.Errorf("cannot report an empty url")
	}
	if err := g.reports.Add(ctx, key); err != nil {
		return fmt.Errorf("failed to record report: %w", err)
	}
	g.logger.Info("URL reported as phishing", zap.String("url", key))
	return nil
}

// ConfidenceLevel maps a label and its confidence to a display tier
func ConfidenceLevel(label int, confidence float64) string {
	if label == LabelPhishing {
		switch {
		case confidence >= 0.9:
			return core.LevelVeryHigh
		case confidence >= 0.7:
			return core.LevelHigh
		default:
			return core.LevelMedium
		}
	}
	if confidence >= 0.9 {
		return core.LevelSafe
	}
	return core.LevelMedium
}
