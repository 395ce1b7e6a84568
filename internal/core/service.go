package core

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var linkPattern = regexp.MustCompile(`(?i)\bhttps?://[^\s<>"'()\[\]]+`)

// MessageVerdict is the outcome of screening a whole email message: the text
// analysis plus any phishing links found in it
type MessageVerdict struct {
	Email         *EmailResult
	Links         []*URLResult
	PhishingLinks []string
}

// Suspicious reports whether the message is spam or carries a phishing link
func (m *MessageVerdict) Suspicious() bool {
	return m.Email.Verdict || len(m.PhishingLinks) > 0
}

// RiskScore is the highest score among the text and its links
func (m *MessageVerdict) RiskScore() int {
	score := m.Email.RiskScore
	for _, l := range m.Links {
		if l.Verdict && l.RiskScore > score {
			score = l.RiskScore
		}
	}
	return score
}

// Reason summarises the findings for a mail header
func (m *MessageVerdict) Reason() string {
	var parts []string
	parts = append(parts, m.Email.Issues...)
	if n := len(m.PhishingLinks); n > 0 {
		parts = append(parts, fmt.Sprintf("%d phishing link(s)", n))
	}
	if len(parts) == 0 {
		return "no issues"
	}
	return strings.Join(parts, "; ")
}

// DetectionService is the entry point for every screening operation
type DetectionService struct {
	urls   URLAnalyzer
	emails EmailAnalyzer
	phones PhoneAnalyzer
	apks   APKAnalyzer
	logger *zap.Logger
}

// NewDetectionService creates a new detection service
func NewDetectionService(
	urls URLAnalyzer,
	emails EmailAnalyzer,
	phones PhoneAnalyzer,
	apks APKAnalyzer,
	logger *zap.Logger,
) *DetectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DetectionService{
		urls:   urls,
		emails: emails,
		phones: phones,
		apks:   apks,
		logger: logger,
	}
}

// AnalyzeURL screens a URL for phishing
func (s *DetectionService) AnalyzeURL(ctx context.Context, rawURL string) (*URLResult, error) {
	res, err := s.urls.Analyze(ctx, rawURL)
	if err != nil {
		s.logger.Error("URL analysis failed", zap.String("url", rawURL), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Analyzed URL",
		zap.String("url", rawURL),
		zap.String("decision", res.Decision),
		zap.Int("risk_score", res.RiskScore))
	return res, nil
}

// ReportURL records a URL as confirmed phishing
func (s *DetectionService) ReportURL(ctx context.Context, rawURL string) error {
	if err := s.urls.Report(ctx, rawURL); err != nil {
		return fmt.Errorf("failed to report URL: %w", err)
	}
	s.logger.Info("Reported URL", zap.String("url", rawURL), zap.String("action", "report"))
	return nil
}

// AnalyzeEmail screens email text and an optional sender address
func (s *DetectionService) AnalyzeEmail(ctx context.Context, content, sender string) *EmailResult {
	res := s.emails.Analyze(ctx, content, sender)
	s.logger.Info("Analyzed email",
		zap.String("sender", sender),
		zap.Bool("spam", res.Verdict),
		zap.Int("risk_score", res.RiskScore))
	return res
}

// AnalyzeMessage screens a parsed message. Up to maxLinks links found in the
// body are checked for phishing; link failures are logged and skipped.
func (s *DetectionService) AnalyzeMessage(ctx context.Context, email *Email, maxLinks int) *MessageVerdict {
	verdict := &MessageVerdict{
		Email: s.emails.Analyze(ctx, email.Content(), email.From),
	}

	for _, link := range ExtractLinks(email.Body, maxLinks) {
		res, err := s.urls.Analyze(ctx, link)
		if err != nil {
			s.logger.Warn("Skipping link check", zap.String("url", link), zap.Error(err))
			continue
		}
		verdict.Links = append(verdict.Links, res)
		if res.Verdict {
			verdict.PhishingLinks = append(verdict.PhishingLinks, link)
		}
	}

	s.logger.Info("Analyzed message",
		zap.String("sender", email.From),
		zap.Bool("spam", verdict.Email.Verdict),
		zap.Int("links_checked", len(verdict.Links)),
		zap.Int("phishing_links", len(verdict.PhishingLinks)),
		zap.Int("risk_score", verdict.RiskScore()))
	return verdict
}

// AnalyzePhone screens a phone number
func (s *DetectionService) AnalyzePhone(ctx context.Context, number string) *PhoneResult {
	res := s.phones.Analyze(ctx, number)
	s.logger.Info("Analyzed phone number",
		zap.String("number", number),
		zap.Bool("suspicious", res.Verdict),
		zap.Int("risk_score", res.RiskScore))
	return res
}

// ReportPhone records a number as a confirmed scam
func (s *DetectionService) ReportPhone(ctx context.Context, number string) error {
	if err := s.phones.Report(ctx, number); err != nil {
		return fmt.Errorf("failed to report phone number: %w", err)
	}
	s.logger.Info("Reported phone number", zap.String("number", number), zap.String("action", "report"))
	return nil
}

// AnalyzeAPK screens an APK held in memory or on disk
func (s *DetectionService) AnalyzeAPK(ctx context.Context, r io.ReaderAt, size int64) *APKResult {
	res := s.apks.Analyze(ctx, r, size)
	s.logAPK(res)
	return res
}

// AnalyzeAPKFile screens the APK at path
func (s *DetectionService) AnalyzeAPKFile(ctx context.Context, path string) *APKResult {
	res := s.apks.AnalyzeFile(ctx, path)
	s.logAPK(res)
	return res
}

func (s *DetectionService) logAPK(res *APKResult) {
	s.logger.Info("Analyzed APK",
		zap.String("package", res.Manifest.PackageName),
		zap.Bool("malicious", res.Verdict),
		zap.Int("risk_score", res.RiskScore))
}

// ExtractLinks returns the distinct http(s) links in text, in order of
// appearance, at most max of them. A non-positive max returns none.
func ExtractLinks(text string, max int) []string {
	if max <= 0 {
		return nil
	}
	seen := make(map[string]struct{})
	var links []string
	for _, m := range linkPattern.FindAllString(text, -1) {
		m = strings.TrimRight(m, ".,;:!?")
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		links = append(links, m)
		if len(links) == max {
			break
		}
	}
	return links
}
