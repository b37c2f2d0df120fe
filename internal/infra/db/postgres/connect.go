package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS triage_reports (
  job_id          VARCHAR(16)  NOT NULL PRIMARY KEY,
  content_hash    CHAR(64)     NOT NULL,
  original_path   TEXT         NOT NULL,
  mime_type       VARCHAR(255) NOT NULL DEFAULT '',
  size_bytes      BIGINT       NOT NULL DEFAULT 0,
  risk_score      INT          NOT NULL DEFAULT 0,
  risk_level      VARCHAR(16)  NOT NULL,
  signature_count INT          NOT NULL DEFAULT 0,
  indicator_count INT          NOT NULL DEFAULT 0,
  status          VARCHAR(16)  NOT NULL,
  report_path     TEXT         NOT NULL,
  artifact_url    TEXT         NOT NULL,
  generated_at    TIMESTAMPTZ  NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_triage_reports_generated ON triage_reports (generated_at);`,
		`CREATE TABLE IF NOT EXISTS triage_errors (
  id           BIGSERIAL   NOT NULL PRIMARY KEY,
  job_id       VARCHAR(16) NOT NULL UNIQUE,
  content_hash CHAR(64)    NOT NULL DEFAULT '',
  stage        VARCHAR(16) NOT NULL DEFAULT 'other',
  message      TEXT        NOT NULL,
  created_at   TIMESTAMPTZ NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS triage_analyses (
  id          VARCHAR(36) NOT NULL PRIMARY KEY,
  job_id      VARCHAR(16) NOT NULL DEFAULT '',
  report_path TEXT        NOT NULL,
  result_json JSONB       NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_triage_analyses_job ON triage_analyses (job_id);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
