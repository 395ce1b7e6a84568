package apkcheck

import (
	"fmt"

	"github.com/mikey/fraud-detector/internal/core"
)

// Recommend returns advice for an analyzed package
func Recommend(malicious bool, fs core.FeatureSet) []string {
	out := verdictAdvice(malicious)

	if n := fs.Get(FeatDangerousCount); n > 0 {
		out = append(out, fmt.Sprintf("The app requests %.0f dangerous permissions", n))
	}
	if n := fs.Get(FeatSuspiciousCount); n > 0 {
		out = append(out, fmt.Sprintf("The app requests %.0f suspicious permissions", n))
	}
	if fs.Get(FeatActivityCount) == 0 {
		out = append(out, "The app declares no activities, which is highly suspicious")
	}
	return out
}

func verdictAdvice(malicious bool) []string {
	if malicious {
		return []string{
			"This APK is most likely malicious",
			"Do not install this application",
			"Delete the APK file from your device",
			"Scan your device with an antivirus",
		}
	}
	return []string{
		"This APK looks safe",
		"Stay careful when granting permissions",
		"Only install apps from trusted sources",
	}
}
