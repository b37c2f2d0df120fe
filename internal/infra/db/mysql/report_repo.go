package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	domain "github.com/bryanwahyu/saringan/internal/domain/reports"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save insert/update report index row, keyed by job_id
func (r *ReportRepository) Save(ctx context.Context, row *domain.IndexRow) error {
	const q = `
INSERT INTO triage_reports
(job_id, content_hash, original_path, mime_type, size_bytes,
 risk_score, risk_level, signature_count, indicator_count,
 status, report_path, artifact_url, generated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 risk_score=VALUES(risk_score), risk_level=VALUES(risk_level),
 signature_count=VALUES(signature_count), indicator_count=VALUES(indicator_count),
 status=VALUES(status), report_path=VALUES(report_path),
 artifact_url=VALUES(artifact_url), generated_at=VALUES(generated_at);
`
	// Ensure non-nullable string fields have safe defaults
	level := stringOrDash(row.RiskLevel)
	status := stringOrDash(row.Status)
	generated := row.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		row.JobID, row.ContentHash, row.OriginalPath, row.MIMEType, row.SizeBytes,
		row.RiskScore, level, row.SignatureCount, row.IndicatorCount,
		status, row.ReportPath, row.ArtifactURL, generated,
	)
	return err
}

// Get by job id
func (r *ReportRepository) Get(ctx context.Context, jobID string) (*domain.IndexRow, error) {
	const q = `
SELECT job_id, content_hash, original_path, mime_type, size_bytes,
       risk_score, risk_level, signature_count, indicator_count,
       status, report_path, artifact_url, generated_at
FROM triage_reports
WHERE job_id=? LIMIT 1;
`
	row := r.db.QueryRowContext(ctx, q, jobID)
	var out domain.IndexRow
	if err := scanRow(row, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Latest reports, most recent first
func (r *ReportRepository) Latest(ctx context.Context, limit int) ([]*domain.IndexRow, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT job_id, content_hash, original_path, mime_type, size_bytes,
       risk_score, risk_level, signature_count, indicator_count,
       status, report_path, artifact_url, generated_at
FROM triage_reports
ORDER BY generated_at DESC, job_id DESC LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRows(rows)
}

// Summary counts reports by level since N days
func (r *ReportRepository) Summary(ctx context.Context, sinceDays int) (int, int, int, int, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays)

	const q = `
SELECT COUNT(*) AS total_reports,
       COALESCE(SUM(CASE WHEN risk_level='CRITICAL' THEN 1 ELSE 0 END),0) AS critical,
       COALESCE(SUM(CASE WHEN risk_level='HIGH'     THEN 1 ELSE 0 END),0) AS high,
       COALESCE(SUM(CASE WHEN risk_level='MEDIUM'   THEN 1 ELSE 0 END),0) AS medium
FROM triage_reports
WHERE generated_at >= ?;
`
	var t, c, h, m int
	if err := r.db.QueryRowContext(ctx, q, cut).Scan(&t, &c, &h, &m); err != nil {
		return 0, 0, 0, 0, err
	}
	return t, c, h, m, nil
}

// Paginate with offset + limit (classic pagination)
func (r *ReportRepository) Paginate(ctx context.Context, page, pageSize int, filters map[string]interface{}) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := `
SELECT job_id, content_hash, original_path, mime_type, size_bytes,
       risk_score, risk_level, signature_count, indicator_count,
       status, report_path, artifact_url, generated_at
FROM triage_reports
WHERE 1=1`

	args := []interface{}{}
	query, args = applyFilters(query, args, filters)

	query += "\n ORDER BY generated_at DESC, job_id DESC LIMIT ? OFFSET ?"
	args = append(args, pageSize, offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	out, err := collectRows(rows)
	if err != nil {
		return domain.PaginatedResult{}, err
	}

	total, err := r.Count(ctx, filters)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("getting total count: %w", err)
	}

	return domain.PaginatedResult{
		Data:       out,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// Count returns the total number of records matching the given filters
func (r *ReportRepository) Count(ctx context.Context, filters map[string]interface{}) (int64, error) {
	query := "SELECT COUNT(*) FROM triage_reports WHERE 1=1"
	args := []interface{}{}
	query, args = applyFilters(query, args, filters)

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func applyFilters(query string, args []interface{}, filters map[string]interface{}) (string, []interface{}) {
	if filters == nil {
		return query, args
	}
	for key, value := range filters {
		switch key {
		case "level":
			query += " AND risk_level = ?"
			args = append(args, value)
		case "status":
			query += " AND status = ?"
			args = append(args, value)
		case "path":
			// LIKE search over the original path; escape to keep user
			// wildcards literal
			query += " AND original_path LIKE ?"
			term, _ := value.(string)
			args = append(args, "%"+escapeLikePattern(term)+"%")
		case "hash":
			query += " AND content_hash = ?"
			args = append(args, value)
		}
	}
	return query, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner, out *domain.IndexRow) error {
	return row.Scan(
		&out.JobID, &out.ContentHash, &out.OriginalPath, &out.MIMEType, &out.SizeBytes,
		&out.RiskScore, &out.RiskLevel, &out.SignatureCount, &out.IndicatorCount,
		&out.Status, &out.ReportPath, &out.ArtifactURL, &out.GeneratedAt,
	)
}

func collectRows(rows *sql.Rows) ([]*domain.IndexRow, error) {
	var out []*domain.IndexRow
	for rows.Next() {
		var row domain.IndexRow
		if err := scanRow(rows, &row); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, &row)
	}
	return out, rows.Err()
}

// escapeLikePattern escapes special characters in LIKE patterns to prevent SQL injection
func escapeLikePattern(s string) string {
	// Escape backslash first, then other LIKE special characters
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
