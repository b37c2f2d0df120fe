package triage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/saringan/internal/domain/jobs"
	domain "github.com/bryanwahyu/saringan/internal/domain/triage"
)

// Quarantiner jails samples whose verdict says so. Optional.
type Quarantiner interface {
	Lockup(sourcePath string) (string, error)
}

// Orchestrator polls the queue, claims pending jobs and drives the
// engine. Claiming and persisting are separate lock acquisitions; no
// analysis work ever runs while the lock is held.
type Orchestrator struct {
	Queue         jobs.Queue
	Engine        *Engine
	Quarantine    Quarantiner
	IntakeDir     string
	ProcessingDir string
	OutputDir     string
	PollInterval  time.Duration
	Log           *logrus.Entry
}

// Run polls until ctx is done. Every cycle completes and persists its
// state even when an artifact is unrecoverable.
func (o *Orchestrator) Run(ctx context.Context) error {
	interval := o.PollInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := o.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.Log.WithError(err).Error("polling cycle failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce drains the queue: claim one pending entry at a time and work it
// until none are left.
func (o *Orchestrator) RunOnce(ctx context.Context) error {
	for {
		claimed, err := o.claim(ctx)
		if err != nil {
			return err
		}
		if claimed == nil {
			return nil
		}
		o.process(ctx, *claimed)
	}
}

// claim flips the first still-pending entry to analyzing under the lock
// and persists before any work starts. A crash mid-analysis leaves the
// entry visibly stuck in analyzing instead of silently re-queued.
func (o *Orchestrator) claim(ctx context.Context) (*jobs.Entry, error) {
	var claimed *jobs.Entry
	err := o.Queue.Mutate(ctx, func(entries []jobs.Entry) ([]jobs.Entry, bool, error) {
		for i := range entries {
			// Re-check inside the lock: another poller may have taken it
			// since our last look.
			if entries[i].Status != jobs.StatusPending {
				continue
			}
			entries[i].Status = jobs.StatusAnalyzing
			e := entries[i]
			claimed = &e
			return entries, true, nil
		}
		return entries, false, nil
	})
	return claimed, err
}

// process relocates the claimed file, analyzes it, writes the output
// document and persists the outcome.
func (o *Orchestrator) process(ctx context.Context, entry jobs.Entry) {
	base := filepath.Base(entry.SharedPath)
	intakePath := filepath.Join(o.IntakeDir, base)
	processingPath := filepath.Join(o.ProcessingDir, base)

	// A rename, not a copy: a second poller losing the race finds
	// nothing left to move.
	if err := os.Rename(intakePath, processingPath); err != nil {
		relErr := &domain.RelocationError{From: intakePath, To: processingPath, Err: err}
		o.Log.WithError(relErr).Error("failed to move file to processing")
		o.finish(ctx, entry.JobID, func(en *jobs.Entry) {
			en.Status = jobs.StatusFailed
			en.Error = relErr.Error()
		})
		return
	}
	o.Log.Infof("moved file to processing: %s", processingPath)

	result := o.Engine.AnalyzeFile(ctx, processingPath, entry.ContentHash)

	outputPath := filepath.Join(o.OutputDir, entry.ContentHash+".json")
	if err := writeJSON(outputPath, result); err != nil {
		o.Log.WithError(err).Error("failed to write analysis output")
		o.finish(ctx, entry.JobID, func(en *jobs.Entry) {
			en.Status = jobs.StatusFailed
			en.Error = "write analysis output: " + err.Error()
		})
		return
	}

	if o.Quarantine != nil && result.Risk.Recommendation == domain.RecommendQuarantine {
		if jailed, err := o.Quarantine.Lockup(processingPath); err != nil {
			o.Log.WithError(err).WithField("path", processingPath).Warn("quarantine failed")
		} else {
			o.Log.Infof("sample quarantined: %s", jailed)
		}
	}

	status := jobs.StatusAnalyzed
	if result.Status == domain.StatusFailed {
		status = jobs.StatusFailed
	}
	o.finish(ctx, entry.JobID, func(en *jobs.Entry) {
		en.Status = status
		en.StaticOutputPath = outputPath
		if result.Error != "" {
			en.Error = result.Error
		}
	})
	o.Log.Infof("analyzed file: %s (output: %s)", entry.OriginalPath, outputPath)
}

// finish persists the outcome for an entry still claimed by us.
func (o *Orchestrator) finish(ctx context.Context, id jobs.ID, apply func(*jobs.Entry)) {
	err := o.Queue.Mutate(ctx, func(entries []jobs.Entry) ([]jobs.Entry, bool, error) {
		for i := range entries {
			if entries[i].JobID == id && entries[i].Status == jobs.StatusAnalyzing {
				apply(&entries[i])
				return entries, true, nil
			}
		}
		return entries, false, nil
	})
	if err != nil {
		o.Log.WithError(err).WithField("job_id", id).Error("failed to update queue")
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
