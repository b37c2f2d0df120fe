package reports

import (
	"time"

	"github.com/bryanwahyu/saringan/internal/domain/jobs"
	"github.com/bryanwahyu/saringan/internal/domain/triage"
)

// Level enum laporan keseluruhan. Deliberately coarser than the
// per-artifact ladder: it characterizes a whole job.
type Level string

const (
	LevelCritical Level = "CRITICAL"
	LevelHigh     Level = "HIGH"
	LevelMedium   Level = "MEDIUM"
	LevelLow      Level = "LOW"
	LevelInfo     Level = "INFO"
)

// ClassifyOverall maps a merged score onto the report ladder.
func ClassifyOverall(score int) Level {
	switch {
	case score >= 140:
		return LevelCritical
	case score >= 100:
		return LevelHigh
	case score >= 60:
		return LevelMedium
	case score >= 30:
		return LevelLow
	}
	return LevelInfo
}

// FileInfo ringkasan file untuk laporan
type FileInfo struct {
	OriginalPath string    `json:"original_path"`
	ContentHash  string    `json:"content_hash"`
	QueuedAt     time.Time `json:"queued_at"`
	MIMEType     string    `json:"mime_type,omitempty"`
	SizeBytes    int64     `json:"size_bytes,omitempty"`
}

// OverallRisk value object
type OverallRisk struct {
	Score int   `json:"score"`
	Level Level `json:"level"`
}

// Aggregate Root: Record, merge final JobEntry + AnalysisResult.
// Created exactly once per job, never mutated afterwards.
type Record struct {
	ReportID       string         `json:"report_id"`
	GeneratedAt    time.Time      `json:"generated_at"`
	FileInfo       FileInfo       `json:"file_info"`
	StaticAnalysis *triage.Result `json:"static_analysis"`
	OverallRisk    OverallRisk    `json:"overall_risk"`
}

// Build merges one entry with its analysis output. A missing analysis
// yields a record with zero score, classified INFO.
func Build(entry jobs.Entry, analysis *triage.Result, now time.Time) *Record {
	rec := &Record{
		ReportID:    "report-" + entry.ContentHash,
		GeneratedAt: now.UTC(),
		FileInfo: FileInfo{
			OriginalPath: entry.OriginalPath,
			ContentHash:  entry.ContentHash,
			QueuedAt:     entry.CreatedAt,
		},
		StaticAnalysis: analysis,
	}
	if analysis != nil {
		rec.FileInfo.MIMEType = analysis.FileInfo.MIMEType
		rec.FileInfo.SizeBytes = analysis.FileInfo.SizeBytes
		rec.OverallRisk.Score += analysis.Risk.Score
	}
	rec.OverallRisk.Level = ClassifyOverall(rec.OverallRisk.Score)
	return rec
}

// IndexRow bentuk flat untuk index SQL (opsional)
type IndexRow struct {
	JobID          string    `json:"job_id"`
	ContentHash    string    `json:"content_hash"`
	OriginalPath   string    `json:"original_path"`
	MIMEType       string    `json:"mime_type,omitempty"`
	SizeBytes      int64     `json:"size_bytes"`
	RiskScore      int       `json:"risk_score"`
	RiskLevel      string    `json:"risk_level"`
	SignatureCount int       `json:"signature_count"`
	IndicatorCount int       `json:"indicator_count"`
	Status         string    `json:"status"`
	ReportPath     string    `json:"report_path,omitempty"`
	ArtifactURL    string    `json:"artifact_url,omitempty"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// Row flattens a record for the index.
func (r *Record) Row(entry jobs.Entry) *IndexRow {
	row := &IndexRow{
		JobID:        string(entry.JobID),
		ContentHash:  entry.ContentHash,
		OriginalPath: entry.OriginalPath,
		MIMEType:     r.FileInfo.MIMEType,
		SizeBytes:    r.FileInfo.SizeBytes,
		RiskScore:    r.OverallRisk.Score,
		RiskLevel:    string(r.OverallRisk.Level),
		Status:       string(jobs.StatusReported),
		ReportPath:   entry.ReportPath,
		GeneratedAt:  r.GeneratedAt,
	}
	if r.StaticAnalysis != nil {
		row.SignatureCount = len(r.StaticAnalysis.SignatureMatches)
		for _, values := range r.StaticAnalysis.ExtractedIndicators {
			row.IndicatorCount += len(values)
		}
	}
	return row
}
