package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

// ensureSchema provisions the index tables. The pipeline bootstraps its
// directories on start; the tables get the same treatment.
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
  generated_at    DATETIME     NOT NULL,
  KEY idx_generated (generated_at)
);`,
		`CREATE TABLE IF NOT EXISTS triage_errors (
  id           BIGINT      NOT NULL AUTO_INCREMENT PRIMARY KEY,
  job_id       VARCHAR(16) NOT NULL,
  content_hash CHAR(64)    NOT NULL DEFAULT '',
  stage        VARCHAR(16) NOT NULL DEFAULT 'other',
  message      TEXT        NOT NULL,
  created_at   DATETIME    NOT NULL,
  UNIQUE KEY uq_job (job_id)
);`,
		`CREATE TABLE IF NOT EXISTS triage_analyses (
  id          VARCHAR(36) NOT NULL PRIMARY KEY,
  job_id      VARCHAR(16) NOT NULL DEFAULT '',
  report_path TEXT        NOT NULL,
  result_json JSON        NOT NULL,
  created_at  DATETIME    NOT NULL,
  KEY idx_job (job_id)
);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
