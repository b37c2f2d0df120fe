package triage

// Additive increments, one per signal family. A family contributes once
// no matter how many hits it produced.
const (
	ScoreSignatureMatches = 50
	ScoreExecutableFlags  = 35
	ScoreIndicators       = 15
)

// RiskLevel enum per artifact
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Recommendation enum
type Recommendation string

const (
	RecommendMonitor    Recommendation = "MONITOR"
	RecommendQuarantine Recommendation = "QUARANTINE"
)

// Risk value object
type Risk struct {
	Score          int            `json:"score"`
	Level          RiskLevel      `json:"level"`
	Recommendation Recommendation `json:"recommendation"`
}

// ScoreSignals sums the fixed increments for the signals present on one
// artifact.
func ScoreSignals(hasMatches, exeFlagged, hasIndicators bool) int {
	score := 0
	if hasMatches {
		score += ScoreSignatureMatches
	}
	if exeFlagged {
		score += ScoreExecutableFlags
	}
	if hasIndicators {
		score += ScoreIndicators
	}
	return score
}

// Classify maps a score onto the fixed cut points. Comparisons are strict:
// a score of exactly 70 is MEDIUM, exactly 40 is LOW.
func Classify(score int) (RiskLevel, Recommendation) {
	switch {
	case score > 70:
		return RiskHigh, RecommendQuarantine
	case score > 40:
		return RiskMedium, RecommendMonitor
	}
	return RiskLow, RecommendMonitor
}

// Assess bundles a score with its derived level and recommendation.
func Assess(score int) Risk {
	level, rec := Classify(score)
	return Risk{Score: score, Level: level, Recommendation: rec}
}
