package emailcheck

import "github.com/mikey/fraud-detector/internal/core"

// Recommend returns advice for the scored message
func Recommend(spam bool, fs core.FeatureSet) []string {
	var out []string
	if spam {
		out = append(out,
			"This email is most likely spam",
			"Do not click links or open attachments in this email",
			"Do not share personal information",
			"Delete the email and block the sender",
		)
	} else {
		out = append(out,
			"This email looks safe",
			"Stay alert for suspicious links",
			"Verify the sender if in doubt",
		)
	}

	if fs.Get(FeatURLCount) > 0 {
		out = append(out, "Check every link before clicking it")
	}
	if fs.Get(FeatSpamKeywords) > 0 {
		out = append(out, "The email uses words common in spam")
	}
	return out
}
