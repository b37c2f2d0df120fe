package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/saringan/internal/domain/joberrors"
)

type JobErrorRepository struct{ db *sql.DB }

func NewJobErrorRepository(db *sql.DB) *JobErrorRepository { return &JobErrorRepository{db: db} }

// Save upserts a failure entry, idempotent per job_id
func (r *JobErrorRepository) Save(ctx context.Context, e *domain.JobError) error {
	const q = `
INSERT INTO triage_errors
  (job_id, content_hash, stage, message, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (job_id) DO UPDATE SET
  stage=EXCLUDED.stage,
  message=EXCLUDED.message;
`
	jobID := stringOrDash(e.JobID)
	stage := e.Stage
	if strings.TrimSpace(stage) == "" {
		stage = "other"
	}
	msg := stringOrDash(e.Message)
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, jobID, e.ContentHash, stage, msg, created)
	return err
}

func (r *JobErrorRepository) ListByJob(ctx context.Context, jobID string, limit int) ([]*domain.JobError, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, job_id, content_hash, stage, message, created_at
FROM triage_errors
WHERE job_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, jobID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.JobError
	for rows.Next() {
		var e domain.JobError
		var created time.Time
		if err := rows.Scan(&e.ID, &e.JobID, &e.ContentHash, &e.Stage, &e.Message, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = created
		out = append(out, &e)
	}
	return out, rows.Err()
}
