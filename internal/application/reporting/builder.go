package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/saringan/internal/application"
	"github.com/bryanwahyu/saringan/internal/domain/ai"
	"github.com/bryanwahyu/saringan/internal/domain/analyst"
	"github.com/bryanwahyu/saringan/internal/domain/joberrors"
	"github.com/bryanwahyu/saringan/internal/domain/jobs"
	"github.com/bryanwahyu/saringan/internal/domain/reports"
	domain "github.com/bryanwahyu/saringan/internal/domain/triage"
)

// Builder turns analyzed queue entries into report records, exactly once
// per job. Index, artifact mirror and AI analyst are optional fan-outs:
// nil means disabled, and a fan-out failure never blocks reporting.
type Builder struct {
	Queue        jobs.Queue
	Clock        application.Clock
	ReportsDir   string
	Index        reports.IndexRepository
	Failures     joberrors.Repository
	Artifacts    domain.ArtifactStore
	Analyst      ai.Client
	AnalystStore analyst.Repository
	PollInterval time.Duration
	Log          *logrus.Entry
}

// Run polls until ctx is done.
func (b *Builder) Run(ctx context.Context) error {
	interval := b.PollInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := b.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.Log.WithError(err).Error("reporting cycle failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce reports every entry that is analyzed and not yet reported, and
// records failed entries into the error index.
func (b *Builder) RunOnce(ctx context.Context) error {
	entries, err := b.Queue.Load(ctx)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		switch {
		case entry.Status == jobs.StatusAnalyzed && entry.ReportPath == "":
			b.report(ctx, entry)
		case entry.Status == jobs.StatusFailed:
			b.recordFailure(ctx, entry)
		}
	}
	return nil
}

// report builds and persists one record. The queue update re-checks the
// entry under the lock, so a racing builder cannot double-report: the
// file paths are deterministic and the status flip is last-wins-once.
func (b *Builder) report(ctx context.Context, entry jobs.Entry) {
	analysis := b.loadAnalysis(entry.StaticOutputPath)
	record := reports.Build(entry, analysis, b.Clock.Now())

	jsonPath := filepath.Join(b.ReportsDir, record.ReportID+".json")
	mdPath := filepath.Join(b.ReportsDir, record.ReportID+".md")

	if err := writeJSON(jsonPath, record); err != nil {
		b.Log.WithError(err).WithField("job_id", entry.JobID).Error("failed to write report")
		return
	}
	if err := os.WriteFile(mdPath, []byte(Render(record)), 0o644); err != nil {
		b.Log.WithError(err).WithField("job_id", entry.JobID).Error("failed to write markdown report")
		return
	}

	claimed := false
	err := b.Queue.Mutate(ctx, func(entries []jobs.Entry) ([]jobs.Entry, bool, error) {
		for i := range entries {
			if entries[i].JobID != entry.JobID {
				continue
			}
			// Idempotency re-check: someone else may have reported it
			// while we were rendering.
			if entries[i].Status != jobs.StatusAnalyzed || entries[i].ReportPath != "" {
				return entries, false, nil
			}
			entries[i].ReportPath = jsonPath
			entries[i].ReportMDPath = mdPath
			entries[i].Status = jobs.StatusReported
			claimed = true
			return entries, true, nil
		}
		return entries, false, nil
	})
	if err != nil {
		b.Log.WithError(err).WithField("job_id", entry.JobID).Error("failed to update queue")
		return
	}
	if !claimed {
		return
	}
	b.Log.Infof("reports generated: %s, %s", filepath.Base(jsonPath), filepath.Base(mdPath))

	entry.ReportPath = jsonPath
	entry.ReportMDPath = mdPath
	b.fanOut(ctx, entry, record, jsonPath, mdPath)
}

// loadAnalysis reads the analysis document; nil when missing or broken.
func (b *Builder) loadAnalysis(path string) *domain.Result {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		b.Log.WithError(err).Warnf("failed to load %s", path)
		return nil
	}
	var res domain.Result
	if err := json.Unmarshal(data, &res); err != nil {
		b.Log.WithError(err).Warnf("failed to load %s", path)
		return nil
	}
	return &res
}

// fanOut pushes the finished report to the optional sinks.
func (b *Builder) fanOut(ctx context.Context, entry jobs.Entry, record *reports.Record, jsonPath, mdPath string) {
	row := record.Row(entry)

	if b.Artifacts != nil {
		if url, err := b.Artifacts.Upload(ctx, jsonPath, "reports/"+filepath.Base(jsonPath)); err != nil {
			b.Log.WithError(err).Warn("report mirror upload failed")
		} else {
			row.ArtifactURL = url
		}
		if _, err := b.Artifacts.Upload(ctx, mdPath, "reports/"+filepath.Base(mdPath)); err != nil {
			b.Log.WithError(err).Warn("markdown mirror upload failed")
		}
	}

	if b.Index != nil {
		if err := b.Index.Save(ctx, row); err != nil {
			b.Log.WithError(err).Warn("report index save failed")
		}
	}

	if b.Analyst != nil && b.AnalystStore != nil {
		b.summarize(ctx, entry, record)
	}
}

// summarize asks the AI analyst for a second opinion on the report and
// stores whatever comes back.
func (b *Builder) summarize(ctx context.Context, entry jobs.Entry, record *reports.Record) {
	payload, err := json.Marshal(record)
	if err != nil {
		return
	}
	result, err := b.Analyst.AnalyzeReport(ctx, string(payload))
	if err != nil {
		if errors.Is(err, ai.ErrQuotaExceeded) {
			b.Log.Warn("ai analyst quota exceeded, skipping summary")
		} else {
			b.Log.WithError(err).Warn("ai analyst failed")
		}
		return
	}
	rec := &analyst.Analysis{
		ID:         analyst.AnalysisID(uuid.New().String()),
		JobID:      string(entry.JobID),
		ReportPath: entry.ReportPath,
		Result:     result,
		CreatedAt:  b.Clock.Now(),
	}
	if err := b.AnalystStore.Save(ctx, rec); err != nil {
		b.Log.WithError(err).Warn("ai analysis save failed")
	}
}

// recordFailure upserts a failed entry into the error index, keyed by
// job id so repeated cycles stay idempotent.
func (b *Builder) recordFailure(ctx context.Context, entry jobs.Entry) {
	if b.Failures == nil {
		return
	}
	stage := "analyze"
	if entry.StaticOutputPath == "" {
		stage = "relocate"
	}
	jerr := &joberrors.JobError{
		JobID:       string(entry.JobID),
		ContentHash: entry.ContentHash,
		Stage:       stage,
		Message:     entry.Error,
		CreatedAt:   b.Clock.Now(),
	}
	if err := b.Failures.Save(ctx, jerr); err != nil {
		b.Log.WithError(err).Warn("failure index save failed")
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
