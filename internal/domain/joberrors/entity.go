package joberrors

import "time"

// JobError represents a persisted pipeline failure entry
type JobError struct {
	ID          int64     `json:"id"`
	JobID       string    `json:"job_id"`
	ContentHash string    `json:"content_hash,omitempty"`
	Stage       string    `json:"stage,omitempty"` // relocate | analyze | report | other
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}
