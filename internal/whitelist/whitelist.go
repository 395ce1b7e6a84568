package whitelist

import (
	"strings"

	"go.uber.org/zap"
)

// GlobalDomains are well-known services that are never classified as phishing
var GlobalDomains = []string{
	"youtube.com", "google.com", "facebook.com", "github.com", "stackoverflow.com",
	"reddit.com", "twitter.com", "instagram.com", "linkedin.com", "netflix.com",
	"amazon.com", "microsoft.com", "apple.com", "wikipedia.org", "mozilla.org",
	"ubuntu.com", "python.org", "nodejs.org", "docker.com", "kubernetes.io",
	"jenkins.io", "gitlab.com", "bitbucket.org", "slack.com", "discord.com",
	"zoom.us", "teams.microsoft.com", "dropbox.com", "drive.google.com", "gmail.com",
	"outlook.com", "yahoo.com", "bing.com", "duckduckgo.com", "brave.com",
	"opera.com", "firefox.com", "chrome.com", "edge.com", "safari.com",
}

// EducationDomains are Indonesian academic and government hosts
var EducationDomains = []string{
	// universities
	"ui.ac.id", "gunadarma.ac.id", "library.gunadarma.ac.id", "itb.ac.id", "ugm.ac.id",
	"unair.ac.id", "undip.ac.id", "unpad.ac.id", "ipb.ac.id", "unbraw.ac.id",
	"unhas.ac.id", "uns.ac.id", "unsoed.ac.id", "unnes.ac.id", "unm.ac.id",
	"unand.ac.id", "unsri.ac.id", "unila.ac.id", "unmul.ac.id", "untan.ac.id",
	"unud.ac.id", "unram.ac.id", "unhalu.ac.id", "untad.ac.id", "unima.ac.id",
	"unpatti.ac.id", "unipa.ac.id", "unmus.ac.id", "unp.ac.id",
	// institutes
	"its.ac.id", "isi.ac.id", "ipdn.ac.id",
	// polytechnics
	"polban.ac.id", "poltek.ac.id", "polinema.ac.id", "polman.ac.id", "polines.ac.id",
	"poltekkes.ac.id",
	// colleges
	"stis.ac.id", "stmik.ac.id", "stikom.ac.id", "stie.ac.id", "stkip.ac.id",
	// second-level education and government zones
	"ac.id", "sch.id", "go.id",
}

// DefaultDomains returns the global and education lists combined
func DefaultDomains() []string {
	out := make([]string, 0, len(GlobalDomains)+len(EducationDomains))
	out = append(out, GlobalDomains...)
	return append(out, EducationDomains...)
}

// Checker matches hostnames against an allow-list of known-legitimate domains.
// Each listed domain also admits its "www." variant. Matching is exact, so
// subdomains must be listed on their own.
type Checker struct {
	hosts  map[string]struct{}
	logger *zap.Logger
}

// NewChecker creates a new allow-list checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	hosts := make(map[string]struct{}, len(domains)*2)
	for _, domain := range domains {
		d := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
		if d == "" {
			continue
		}
		d = strings.TrimPrefix(d, "www.")
		hosts[d] = struct{}{}
		hosts["www."+d] = struct{}{}
	}

	if logger != nil && len(hosts) > 0 {
		logger.Info("Initialized allow-list checker", zap.Int("hosts", len(hosts)))
	}

	return &Checker{
		hosts:  hosts,
		logger: logger,
	}
}

// IsAllowed checks if the hostname is on the allow-list (case-insensitive)
func (c *Checker) IsAllowed(hostname string) bool {
	if c == nil || len(c.hosts) == 0 {
		return false
	}

	host := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(hostname)), ".")
	if _, ok := c.hosts[host]; ok {
		if c.logger != nil {
			c.logger.Debug("Host is allow-listed", zap.String("host", host))
		}
		return true
	}

	return false
}

// IsSenderAllowed checks the domain part of an email address
func (c *Checker) IsSenderAllowed(from string) bool {
	parts := strings.Split(from, "@")
	if len(parts) != 2 {
		return false
	}
	return c.IsAllowed(strings.Trim(parts[1], "<> "))
}
