package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreSignals_Combinations(t *testing.T) {
	cases := []struct {
		name          string
		matches       bool
		exeFlagged    bool
		hasIndicators bool
		want          int
	}{
		{"nothing", false, false, false, 0},
		{"signatures only", true, false, false, 50},
		{"executable only", false, true, false, 35},
		{"indicators only", false, false, true, 15},
		{"signatures and executable", true, true, false, 85},
		{"signatures and indicators", true, false, true, 65},
		{"executable and indicators", false, true, true, 50},
		{"everything", true, true, true, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ScoreSignals(tc.matches, tc.exeFlagged, tc.hasIndicators))
		})
	}
}

// TestClassify_Boundaries pins the strict comparisons: 70 and 40 sit on
// the low side of their cut points.
func TestClassify_Boundaries(t *testing.T) {
	cases := []struct {
		score   int
		level   RiskLevel
		rec     Recommendation
	}{
		{0, RiskLow, RecommendMonitor},
		{40, RiskLow, RecommendMonitor},
		{41, RiskMedium, RecommendMonitor},
		{50, RiskMedium, RecommendMonitor},
		{70, RiskMedium, RecommendMonitor},
		{71, RiskHigh, RecommendQuarantine},
		{85, RiskHigh, RecommendQuarantine},
		{100, RiskHigh, RecommendQuarantine},
	}
	for _, tc := range cases {
		level, rec := Classify(tc.score)
		assert.Equal(t, tc.level, level, "score %d", tc.score)
		assert.Equal(t, tc.rec, rec, "score %d", tc.score)
	}
}

func TestAssess_BundlesScore(t *testing.T) {
	risk := Assess(85)
	assert.Equal(t, 85, risk.Score)
	assert.Equal(t, RiskHigh, risk.Level)
	assert.Equal(t, RecommendQuarantine, risk.Recommendation)
}

// A signature hit alone lands at 50: flagged but not quarantined.
func TestAssess_SignatureOnlyStaysMonitored(t *testing.T) {
	risk := Assess(ScoreSignals(true, false, false))
	assert.Equal(t, RiskMedium, risk.Level)
	assert.Equal(t, RecommendMonitor, risk.Recommendation)
}
