// Package typo detects typo-squatting domains that closely resemble popular brands.
package typo

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultThreshold is the similarity at which a domain counts as a near miss
const DefaultThreshold = 0.8

// DefaultPopularDomains are the brands most often impersonated
var DefaultPopularDomains = []string{
	"microsoft.com", "google.com", "facebook.com", "apple.com", "amazon.com",
	"paypal.com", "ebay.com", "yahoo.com", "instagram.com", "twitter.com",
	"linkedin.com", "netflix.com", "whatsapp.com", "telegram.org", "bankofamerica.com",
	"wellsfargo.com", "chase.com", "gmail.com", "outlook.com", "icloud.com",
}

// Similarity returns the Ratcliff/Obershelp ratio 2*M/T of two strings
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

// IsTypoDomain reports whether domain is similar to, but not the same as, the base
// label of one of the popular domains. An empty list falls back to the defaults and a
// non-positive threshold falls back to DefaultThreshold.
func IsTypoDomain(domain string, popular []string, threshold float64) bool {
	if len(popular) == 0 {
		popular = DefaultPopularDomains
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	domain = strings.ToLower(domain)
	if domain == "" {
		return false
	}

	for _, p := range popular {
		base := strings.ToLower(strings.Split(p, ".")[0])
		if domain == base {
			continue
		}
		if Similarity(domain, base) >= threshold {
			return true
		}
	}
	return false
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
