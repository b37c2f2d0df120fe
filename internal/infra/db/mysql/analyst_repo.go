package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/saringan/internal/domain/analyst"
)

type AnalystRepository struct {
	db *sql.DB
}

func NewAnalystRepository(db *sql.DB) *AnalystRepository {
	return &AnalystRepository{db: db}
}

// Save inserts an analysis record
func (r *AnalystRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO triage_analyses
  (id, job_id, report_path, result_json, created_at)
VALUES (?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  job_id=VALUES(job_id), report_path=VALUES(report_path), result_json=VALUES(result_json);
`
	// Ensure non-nullable fields have safe defaults
	reportPath := stringOrDash(a.ReportPath)
	result := a.Result
	if strings.TrimSpace(result) == "" {
		// result_json column requires valid JSON; use empty object
		result = "{}"
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q, a.ID, a.JobID, reportPath, result, createdAt)
	return err
}

// Paginate returns a page of analysis records ordered by created_at desc
func (r *AnalystRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Analysis, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, job_id, report_path, result_json, created_at
FROM triage_analyses
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Analysis
	for rows.Next() {
		var a domain.Analysis
		var created time.Time
		if err := rows.Scan(&a.ID, &a.JobID, &a.ReportPath, &a.Result, &created); err != nil {
			return nil, err
		}
		a.CreatedAt = created
		out = append(out, &a)
	}
	return out, rows.Err()
}

// LatestByJob returns the most recent analysis for a job, nil when none
func (r *AnalystRepository) LatestByJob(ctx context.Context, jobID string) (*domain.Analysis, error) {
	const q = `
SELECT id, job_id, report_path, result_json, created_at
FROM triage_analyses
WHERE job_id=?
ORDER BY created_at DESC, id DESC
LIMIT 1;`
	row := r.db.QueryRowContext(ctx, q, jobID)
	var a domain.Analysis
	var created time.Time
	if err := row.Scan(&a.ID, &a.JobID, &a.ReportPath, &a.Result, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	a.CreatedAt = created
	return &a, nil
}
