package phonecheck

import "github.com/mikey/fraud-detector/internal/core"

// Recommend returns advice for an analyzed number
func Recommend(r *core.PhoneResult) []string {
	if !r.Valid {
		return []string{
			"Check the number format, Indonesian mobile numbers look like 0812xxxxxxxx",
			"Be wary of numbers that do not follow the usual format",
		}
	}

	switch {
	case r.Verdict:
		return []string{
			"Do not answer or call this number back",
			"Never share OTP codes or PINs",
			"Block the number and report it to your operator",
		}
	case r.RiskScore >= 40:
		return []string{
			"Be careful with calls or messages from this number",
			"Verify the caller through an official channel",
		}
	default:
		return []string{
			"The number looks normal",
			"Stay alert to requests for money or codes",
		}
	}
}
