package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/saringan/internal/domain/jobs"
	"github.com/bryanwahyu/saringan/internal/domain/triage"
)

func TestClassifyOverall_Ladder(t *testing.T) {
	cases := []struct {
		score int
		want  Level
	}{
		{0, LevelInfo},
		{29, LevelInfo},
		{30, LevelLow},
		{59, LevelLow},
		{60, LevelMedium},
		{99, LevelMedium},
		{100, LevelHigh},
		{139, LevelHigh},
		{140, LevelCritical},
		{200, LevelCritical},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyOverall(tc.score), "score %d", tc.score)
	}
}

func TestBuild_MergesEntryAndAnalysis(t *testing.T) {
	queued := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	now := time.Date(2025, 6, 1, 10, 5, 0, 0, time.UTC)
	entry := jobs.Entry{
		JobID:        "3a7bd3e2",
		OriginalPath: "/drop/sample.exe",
		ContentHash:  "3a7bd3e2ffff",
		CreatedAt:    queued,
	}
	analysis := triage.NewResult(triage.FileInfo{
		Hash:      entry.ContentHash,
		Path:      "/shared/processed/sample.exe",
		MIMEType:  "application/x-dosexec",
		SizeBytes: 4096,
	})
	analysis.Risk = triage.Assess(85)

	rec := Build(entry, analysis, now)

	assert.Equal(t, "report-3a7bd3e2ffff", rec.ReportID)
	assert.Equal(t, now, rec.GeneratedAt)
	assert.Equal(t, "/drop/sample.exe", rec.FileInfo.OriginalPath)
	assert.Equal(t, queued, rec.FileInfo.QueuedAt)
	assert.Equal(t, "application/x-dosexec", rec.FileInfo.MIMEType)
	assert.Equal(t, int64(4096), rec.FileInfo.SizeBytes)
	assert.Equal(t, 85, rec.OverallRisk.Score)
	assert.Equal(t, LevelMedium, rec.OverallRisk.Level)
	assert.Same(t, analysis, rec.StaticAnalysis)
}

// A job whose analysis output went missing still gets a report.
func TestBuild_NilAnalysisIsInfo(t *testing.T) {
	entry := jobs.Entry{JobID: "deadbeef", ContentHash: "deadbeef00"}
	rec := Build(entry, nil, time.Now())

	require.Nil(t, rec.StaticAnalysis)
	assert.Equal(t, 0, rec.OverallRisk.Score)
	assert.Equal(t, LevelInfo, rec.OverallRisk.Level)
	assert.Empty(t, rec.FileInfo.MIMEType)
}

func TestRow_FlattensCounts(t *testing.T) {
	entry := jobs.Entry{
		JobID:        "3a7bd3e2",
		OriginalPath: "/drop/sample.exe",
		ContentHash:  "3a7bd3e2ffff",
		ReportPath:   "/shared/reports/report-3a7bd3e2ffff.json",
	}
	analysis := triage.NewResult(triage.FileInfo{Hash: entry.ContentHash})
	analysis.SignatureMatches = []triage.SignatureMatch{
		{RuleName: "Mimikatz"},
		{RuleName: "Malware_EICAR_Test"},
	}
	analysis.ExtractedIndicators = map[string][]string{
		triage.IndicatorURLs: {"http://a.example", "http://b.example"},
		triage.IndicatorIPs:  {"8.8.8.8"},
	}
	analysis.Risk = triage.Assess(100)

	rec := Build(entry, analysis, time.Now())
	row := rec.Row(entry)

	assert.Equal(t, "3a7bd3e2", row.JobID)
	assert.Equal(t, 2, row.SignatureCount)
	assert.Equal(t, 3, row.IndicatorCount)
	assert.Equal(t, 100, row.RiskScore)
	assert.Equal(t, string(LevelHigh), row.RiskLevel)
	assert.Equal(t, string(jobs.StatusReported), row.Status)
	assert.Equal(t, entry.ReportPath, row.ReportPath)
}

func TestRow_NilAnalysisZeroCounts(t *testing.T) {
	entry := jobs.Entry{JobID: "deadbeef", ContentHash: "deadbeef00"}
	row := Build(entry, nil, time.Now()).Row(entry)

	assert.Zero(t, row.SignatureCount)
	assert.Zero(t, row.IndicatorCount)
}
