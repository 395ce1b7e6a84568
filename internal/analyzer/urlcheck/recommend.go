package urlcheck

import "github.com/mikey/fraud-detector/internal/core"

// Recommend returns advice for the classified URL
func Recommend(phishing bool, score int, fs core.FeatureSet) []string {
	var out []string

	switch {
	case phishing:
		out = append(out,
			"Do not open this URL",
			"Do not enter passwords or personal data on this site",
			"Report the link to the platform where you received it",
		)
	case score >= 40:
		out = append(out,
			"Be careful with this URL",
			"Check the domain name character by character before continuing",
		)
	default:
		out = append(out,
			"The URL looks safe",
			"Keep checking the address bar before logging in",
		)
	}

	if fs.Get(FeatURLLength) > 0 && fs.Get(FeatHTTPSUsed) == 0 {
		out = append(out, "Never submit credentials over a connection without HTTPS")
	}
	if fs.Get(FeatIsTypoDomain) == 1 {
		out = append(out, "Type the official address yourself or use a bookmark")
	}
	if fs.Get(FeatIPInDomain) == 1 {
		out = append(out, "Legitimate services rarely link to raw IP addresses")
	}
	if fs.Get(FeatIsJudol) == 1 {
		out = append(out, "Online gambling sites are illegal in Indonesia and often used for fraud")
	}

	return out
}
