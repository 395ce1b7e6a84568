// Package phonecheck validates Indonesian mobile numbers and scores them for scam patterns.
package phonecheck

import "strings"

// Number types
const (
	TypeMobile   = "Mobile"
	TypeLandline = "Landline"
	TypeUnknown  = "Unknown"
)

// CountryCode is the Indonesian calling code
const CountryCode = "+62"

// KnownScamNumbers seed the known-scam store
var KnownScamNumbers = []string{
	"+6281234567890",
	"+6289876543210",
	"081234567890",
	"089876543210",
}

// Clean keeps the digits of raw and a leading '+'
func Clean(raw string) string {
	var b strings.Builder
	raw = strings.TrimSpace(raw)
	for i, r := range raw {
		if r >= '0' && r <= '9' || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// National strips the +62/62 prefix and one trunk 0 from a cleaned number
func National(cleaned string) string {
	n := cleaned
	switch {
	case strings.HasPrefix(n, "+62"):
		n = n[3:]
	case strings.HasPrefix(n, "62"):
		n = n[2:]
	}
	return strings.TrimPrefix(n, "0")
}

// Valid reports whether national is a 9 to 12 digit mobile number starting 8[1-9]
func Valid(national string) bool {
	if len(national) < 9 || len(national) > 12 {
		return false
	}
	for _, r := range national {
		if r < '0' || r > '9' {
			return false
		}
	}
	return national[0] == '8' && national[1] != '0'
}

// Canonical returns the store key for raw: "0" followed by the national number
func Canonical(raw string) (string, bool) {
	n := National(Clean(raw))
	if !Valid(n) {
		return "", false
	}
	return "0" + n, true
}

// CanonicalSeeds returns KnownScamNumbers in canonical form without duplicates
func CanonicalSeeds() []string {
	seen := make(map[string]struct{}, len(KnownScamNumbers))
	out := make([]string, 0, len(KnownScamNumbers))
	for _, raw := range KnownScamNumbers {
		key, ok := Canonical(raw)
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// Format renders a national number as +62 8xx-xxxx-xxxx
func Format(national string) string {
	if len(national) < 8 {
		return CountryCode + " " + national
	}
	return CountryCode + " " + national[:3] + "-" + national[3:7] + "-" + national[7:]
}

// DetectCountryCode returns +62 for numbers written with +62, 62 or a trunk 0
func DetectCountryCode(cleaned string) string {
	if strings.HasPrefix(cleaned, "+62") || strings.HasPrefix(cleaned, "62") || strings.HasPrefix(cleaned, "0") {
		return CountryCode
	}
	return TypeUnknown
}

// NumberType classifies a national number by its leading digit
func NumberType(national string) string {
	switch {
	case strings.HasPrefix(national, "8"):
		return TypeMobile
	case strings.HasPrefix(national, "2"):
		return TypeLandline
	default:
		return TypeUnknown
	}
}
