package analyst

import "time"

// AnalysisID identifier type
type AnalysisID string

// Analysis represents an AI report summary stored for auditing and retrieval
type Analysis struct {
	ID         AnalysisID `json:"id"`
	JobID      string     `json:"job_id,omitempty"`
	ReportPath string     `json:"report_path"`
	Result     string     `json:"result"` // JSON string from AI
	CreatedAt  time.Time  `json:"created_at"`
}
