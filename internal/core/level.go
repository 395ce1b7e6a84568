package core

// Risk level names shared by every analyzer
const (
	LevelVeryHigh = "Very High"
	LevelHigh     = "High"
	LevelMedium   = "Medium"
	LevelLow      = "Low"
	LevelSafe     = "Safe"
)

// RiskLevel maps a risk score to its tier
func RiskLevel(score int) string {
	switch {
	case score >= 80:
		return LevelVeryHigh
	case score >= 60:
		return LevelHigh
	case score >= 40:
		return LevelMedium
	case score >= 20:
		return LevelLow
	default:
		return LevelSafe
	}
}
