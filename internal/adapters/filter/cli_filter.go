package filter

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mikey/fraud-detector/internal/core"
	"github.com/mikey/fraud-detector/internal/ports"
	"go.uber.org/zap"
)

// CliFilter screens a single message and prints a report
type CliFilter struct {
	service  *core.DetectionService
	out      io.Writer
	maxLinks int
	verbose  bool
	logger   *zap.Logger
}

var (
	_ ports.EmailFilter = (*CliFilter)(nil)
	_ ports.EmailFilter = (*SMTPFilter)(nil)
)

// NewCliFilter creates a new CLI filter writing to out
func NewCliFilter(service *core.DetectionService, out io.Writer, maxLinks int, verbose bool, logger *zap.Logger) *CliFilter {
	return &CliFilter{
		service:  service,
		out:      out,
		maxLinks: maxLinks,
		verbose:  verbose,
		logger:   logger,
	}
}

// ProcessEmail screens the message and prints the findings
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.MessageVerdict, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.From))

	fmt.Fprintf(f.out, "\n=== Email Summary ===\n")
	fmt.Fprintf(f.out, "From: %s\n", email.From)
	fmt.Fprintf(f.out, "To: %s\n", strings.Join(email.To, ", "))
	fmt.Fprintf(f.out, "Subject: %s\n", email.Subject)
	fmt.Fprintf(f.out, "Body length: %d bytes\n", len(email.Body))

	if f.verbose {
		preview := email.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Fprintf(f.out, "\nBody preview:\n%s\n", preview)
	}

	start := time.Now()
	v := f.service.AnalyzeMessage(ctx, email, f.maxLinks)
	duration := time.Since(start)

	fmt.Fprintf(f.out, "\n=== Results ===\n")
	fmt.Fprintf(f.out, "Status: %s\n", status(v))
	fmt.Fprintf(f.out, "Risk score: %d (%s)\n", v.RiskScore(), core.RiskLevel(v.RiskScore()))
	for _, issue := range v.Email.Issues {
		fmt.Fprintf(f.out, "  - %s\n", issue)
	}
	for _, l := range v.Links {
		mark := "ok"
		if l.Verdict {
			mark = "PHISHING"
		}
		fmt.Fprintf(f.out, "Link %s: %s (risk %d)\n", l.URL, mark, l.RiskScore)
	}
	if len(v.Email.Recommendations) > 0 {
		fmt.Fprintf(f.out, "\nRecommendations:\n")
		for _, r := range v.Email.Recommendations {
			fmt.Fprintf(f.out, "  * %s\n", r)
		}
	}
	fmt.Fprintf(f.out, "Processing time: %v\n", duration)

	return v, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
