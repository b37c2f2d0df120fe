package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/saringan/internal/domain/joberrors"
)

type JobErrorRepository struct {
	db *sql.DB
}

func NewJobErrorRepository(db *sql.DB) *JobErrorRepository { return &JobErrorRepository{db: db} }

// Save upserts a failure entry. job_id carries a unique key, so the
// reporter can record the same failed job every cycle without
// multiplying rows.
func (r *JobErrorRepository) Save(ctx context.Context, e *domain.JobError) error {
	const q = `
INSERT INTO triage_errors
  (job_id, content_hash, stage, message, created_at)
VALUES (?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  stage=VALUES(stage), message=VALUES(message);
`
	jobID := stringOrDash(e.JobID)
	stage := e.Stage
	if strings.TrimSpace(stage) == "" {
		stage = "other"
	}
	msg := e.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
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
WHERE job_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?;`
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
