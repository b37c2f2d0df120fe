package joberrors

import (
	"context"
)

// Repository defines persistence for pipeline failures
type Repository interface {
	Save(ctx context.Context, e *JobError) error
	ListByJob(ctx context.Context, jobID string, limit int) ([]*JobError, error)
}
