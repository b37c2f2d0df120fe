package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"regexp"
	"time"

	domain "github.com/bryanwahyu/saringan/internal/domain/reports"
)

type ReportRepository struct{ db *sql.DB }

func NewReportRepository(db *sql.DB) *ReportRepository { return &ReportRepository{db: db} }

// Save insert/update report index row, keyed by job_id
func (r *ReportRepository) Save(ctx context.Context, row *domain.IndexRow) error {
	const q = `
INSERT INTO triage_reports
(job_id, content_hash, original_path, mime_type, size_bytes,
 risk_score, risk_level, signature_count, indicator_count,
 status, report_path, artifact_url, generated_at)
VALUES ($1,$2,$3,$4,$5,
        $6,$7,$8,$9,
        $10,$11,$12,$13)
ON CONFLICT (job_id) DO UPDATE SET
 risk_score = EXCLUDED.risk_score,
 risk_level = EXCLUDED.risk_level,
 signature_count = EXCLUDED.signature_count,
 indicator_count = EXCLUDED.indicator_count,
 status = EXCLUDED.status,
 report_path = EXCLUDED.report_path,
 artifact_url = EXCLUDED.artifact_url,
 generated_at = EXCLUDED.generated_at;`

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
WHERE job_id=$1
LIMIT 1;`
	row := r.db.QueryRowContext(ctx, q, jobID)
	var out domain.IndexRow
	if err := row.Scan(
		&out.JobID, &out.ContentHash, &out.OriginalPath, &out.MIMEType, &out.SizeBytes,
		&out.RiskScore, &out.RiskLevel, &out.SignatureCount, &out.IndicatorCount,
		&out.Status, &out.ReportPath, &out.ArtifactURL, &out.GeneratedAt,
	); err != nil {
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
ORDER BY generated_at DESC, job_id DESC
LIMIT $1;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.IndexRow
	for rows.Next() {
		var row domain.IndexRow
		if err := rows.Scan(
			&row.JobID, &row.ContentHash, &row.OriginalPath, &row.MIMEType, &row.SizeBytes,
			&row.RiskScore, &row.RiskLevel, &row.SignatureCount, &row.IndicatorCount,
			&row.Status, &row.ReportPath, &row.ArtifactURL, &row.GeneratedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &row)
	}
	return out, rows.Err()
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
WHERE generated_at >= $1;`
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
	query, args, next := applyFilters(query, args, 1, filters)

	query += fmt.Sprintf("\n ORDER BY generated_at DESC, job_id DESC LIMIT $%d OFFSET $%d", next, next+1)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var out []*domain.IndexRow
	for rows.Next() {
		var row domain.IndexRow
		if err := rows.Scan(
			&row.JobID, &row.ContentHash, &row.OriginalPath, &row.MIMEType, &row.SizeBytes,
			&row.RiskScore, &row.RiskLevel, &row.SignatureCount, &row.IndicatorCount,
			&row.Status, &row.ReportPath, &row.ArtifactURL, &row.GeneratedAt,
		); err != nil {
			return domain.PaginatedResult{}, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, &row)
	}
	if err = rows.Err(); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("iterating rows: %w", err)
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
	query, args, _ = applyFilters(query, args, 1, filters)

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func applyFilters(query string, args []interface{}, next int, filters map[string]interface{}) (string, []interface{}, int) {
	if filters == nil {
		return query, args, next
	}
	for key, value := range filters {
		switch key {
		case "level":
			query += fmt.Sprintf(" AND risk_level = $%d", next)
			args = append(args, value)
			next++
		case "status":
			query += fmt.Sprintf(" AND status = $%d", next)
			args = append(args, value)
			next++
		case "path":
			// regex keeps path separators meaningful for the search
			term, _ := value.(string)
			regex := fmt.Sprintf("(^|/)%s($|/)", regexp.QuoteMeta(term))
			query += fmt.Sprintf(" AND (original_path LIKE $%d OR original_path ~ $%d)", next, next+1)
			args = append(args, "%"+term+"%", regex)
			next += 2
		case "hash":
			query += fmt.Sprintf(" AND content_hash = $%d", next)
			args = append(args, value)
			next++
		}
	}
	return query, args, next
}
