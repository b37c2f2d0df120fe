package postgres

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

// Save inserts or updates an analysis record
func (r *AnalystRepository) Save(ctx context.Context, a *domain.Analysis) error {
	const q = `
INSERT INTO triage_analyses
  (id, job_id, report_path, result_json, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET
  job_id=EXCLUDED.job_id,
  report_path=EXCLUDED.report_path,
  result_json=EXCLUDED.result_json;
`
	reportPath := stringOrDash(a.ReportPath)
	result := a.Result
	if strings.TrimSpace(result) == "" {
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
LIMIT $1 OFFSET $2;
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

// LatestByJob returns the latest analysis for a given job
func (r *AnalystRepository) LatestByJob(ctx context.Context, jobID string) (*domain.Analysis, error) {
	const q = `
SELECT id, job_id, report_path, result_json, created_at
FROM triage_analyses
WHERE job_id=$1
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
