package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mikey/fraud-detector/internal/core"
)

// messageReport is the JSON shape of a whole-message verdict
type messageReport struct {
	Suspicious    bool              `json:"suspicious"`
	RiskScore     int               `json:"risk_score"`
	RiskLevel     string            `json:"risk_level"`
	Reason        string            `json:"reason"`
	Email         *core.EmailResult `json:"email"`
	Links         []*core.URLResult `json:"links"`
	PhishingLinks []string          `json:"phishing_links"`
}

func newMessageReport(v *core.MessageVerdict) *messageReport {
	score := v.RiskScore()
	return &messageReport{
		Suspicious:    v.Suspicious(),
		RiskScore:     score,
		RiskLevel:     core.RiskLevel(score),
		Reason:        v.Reason(),
		Email:         v.Email,
		Links:         v.Links,
		PhishingLinks: v.PhishingLinks,
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func verdictLabel(flagged bool, yes string) string {
	if flagged {
		return yes
	}
	return "no"
}

// printSummary writes the fields every analyzer shares
func printSummary(w io.Writer, r core.AnalysisResult) {
	fmt.Fprintf(w, "Risk score: %d (%s)\n", r.RiskScore, r.Level)
	if len(r.Issues) > 0 {
		fmt.Fprintf(w, "\nIssues:\n")
		for _, issue := range r.Issues {
			fmt.Fprintf(w, "  - %s\n", issue)
		}
	}
	if len(r.Recommendations) > 0 {
		fmt.Fprintf(w, "\nRecommendations:\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "  * %s\n", rec)
		}
	}
}

func printURL(w io.Writer, r *core.URLResult) {
	fmt.Fprintf(w, "\n=== URL Analysis ===\n")
	fmt.Fprintf(w, "URL: %s\n", r.URL)
	fmt.Fprintf(w, "Phishing: %s\n", verdictLabel(r.Verdict, "YES"))
	fmt.Fprintf(w, "Confidence: %.2f (%s)\n", r.Confidence, r.ConfidenceLevel)
	fmt.Fprintf(w, "Decision: %s\n", r.Decision)
	printSummary(w, r.AnalysisResult)
}

func printEmail(w io.Writer, r *core.EmailResult) {
	fmt.Fprintf(w, "\n=== Email Analysis ===\n")
	if r.Sender != "" {
		fmt.Fprintf(w, "Sender: %s\n", r.Sender)
	}
	fmt.Fprintf(w, "Spam: %s\n", verdictLabel(r.Verdict, "YES"))
	printSummary(w, r.AnalysisResult)
}

func printPhone(w io.Writer, r *core.PhoneResult) {
	fmt.Fprintf(w, "\n=== Phone Analysis ===\n")
	fmt.Fprintf(w, "Number: %s\n", r.FormattedNumber)
	if r.Valid {
		fmt.Fprintf(w, "Country code: %s\n", r.CountryCode)
		fmt.Fprintf(w, "Type: %s\n", r.NumberType)
	}
	fmt.Fprintf(w, "Suspicious: %s\n", verdictLabel(r.Verdict, "YES"))
	printSummary(w, r.AnalysisResult)
}

func printAPK(w io.Writer, r *core.APKResult) {
	fmt.Fprintf(w, "\n=== APK Analysis ===\n")
	if r.Manifest.PackageName != "" {
		fmt.Fprintf(w, "Package: %s\n", r.Manifest.PackageName)
		fmt.Fprintf(w, "Version: %s (%d)\n", r.Manifest.VersionName, r.Manifest.VersionCode)
		fmt.Fprintf(w, "Permissions: %s\n", strings.Join(r.Manifest.Permissions, ", "))
	}
	fmt.Fprintf(w, "Malicious: %s\n", verdictLabel(r.Verdict, "YES"))
	printSummary(w, r.AnalysisResult)
}
