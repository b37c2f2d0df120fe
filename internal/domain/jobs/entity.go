package jobs

import (
	"time"
)

// ID tipe untuk Job
type ID string

// Status enum
type Status string

const (
	StatusPending   Status = "pending"
	StatusAnalyzing Status = "analyzing"
	StatusAnalyzed  Status = "analyzed"
	StatusFailed    Status = "failed"
	StatusReported  Status = "reported"
)

// Terminal reports whether a job can never leave this status.
func (s Status) Terminal() bool {
	return s == StatusFailed || s == StatusReported
}

// CanTransition encodes the lifecycle:
// pending → analyzing → {analyzed|failed} → reported.
// No skips, no going back.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusAnalyzing
	case StatusAnalyzing:
		return to == StatusAnalyzed || to == StatusFailed
	case StatusAnalyzed:
		return to == StatusReported
	}
	return false
}

// Aggregate Root: Entry (satu elemen array di queue.json)
type Entry struct {
	JobID            ID        `json:"job_id"`
	OriginalPath     string    `json:"original_path"`
	SharedPath       string    `json:"shared_path"`
	ContentHash      string    `json:"content_hash"`
	Status           Status    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	StaticOutputPath string    `json:"static_output_path,omitempty"`
	ReportPath       string    `json:"report_path,omitempty"`
	ReportMDPath     string    `json:"report_md_path,omitempty"`
	Error            string    `json:"error,omitempty"`
}

// NewEntry builds a pending entry; the job id is the hash prefix so the
// same content always maps to the same id.
func NewEntry(originalPath, sharedPath, contentHash string, now time.Time) Entry {
	return Entry{
		JobID:        DeriveID(contentHash),
		OriginalPath: originalPath,
		SharedPath:   sharedPath,
		ContentHash:  contentHash,
		Status:       StatusPending,
		CreatedAt:    now.UTC(),
	}
}

// DeriveID returns the stable short identifier for a content hash.
func DeriveID(contentHash string) ID {
	if len(contentHash) > 8 {
		return ID(contentHash[:8])
	}
	return ID(contentHash)
}
