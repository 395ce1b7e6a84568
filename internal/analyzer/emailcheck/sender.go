package emailcheck

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/mikey/fraud-detector/internal/scoring"
)

// Sender penalties
const (
	InvalidSenderPoints = 25
	UnknownDomainPoints = 15
	DigitRunPoints      = 10
	UppercaseRunPoints  = 5
)

// DefaultProviders are the sender domains treated as well-known mail providers
var DefaultProviders = []string{
	"gmail.com", "yahoo.com", "hotmail.com", "outlook.com",
	"google.com", "microsoft.com", "apple.com", "amazon.com",
	"facebook.com", "twitter.com", "linkedin.com", "instagram.com",
}

var (
	digitRun     = regexp.MustCompile(`\d{4,}`)
	uppercaseRun = regexp.MustCompile(`[A-Z]{3,}`)
)

// ParseSender validates the syntax of a bare address and splits it.
// Display names and angle brackets are rejected.
func ParseSender(sender string) (local, domain string, err error) {
	sender = strings.TrimSpace(sender)
	addr, err := mail.ParseAddress(sender)
	if err != nil {
		return "", "", err
	}
	if addr.Name != "" || addr.Address != sender {
		return "", "", fmt.Errorf("not a bare address: %q", sender)
	}

	at := strings.LastIndex(addr.Address, "@")
	local, domain = addr.Address[:at], strings.ToLower(addr.Address[at+1:])
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", "", fmt.Errorf("domain %q is not fully qualified", domain)
	}
	return local, domain, nil
}

// checkSender adds the sender penalties to tally; they stack independently
func (a *Analyzer) checkSender(sender string, tally *scoring.Tally) {
	local, domain, err := ParseSender(sender)
	if err != nil {
		tally.Add(InvalidSenderPoints, "Invalid sender address format")
		return
	}

	if !a.providers.IsAllowed(domain) {
		tally.Add(UnknownDomainPoints, fmt.Sprintf("Unknown sender domain: %s", domain))
	}
	if digitRun.MatchString(local) {
		tally.Add(DigitRunPoints, "Sender address contains many digits")
	}
	if uppercaseRun.MatchString(local) {
		tally.Add(UppercaseRunPoints, "Sender address contains excessive capital letters")
	}
}
