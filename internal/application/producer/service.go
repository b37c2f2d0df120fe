package producer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/saringan/internal/application"
	"github.com/bryanwahyu/saringan/internal/domain/jobs"
	domain "github.com/bryanwahyu/saringan/internal/domain/triage"
)

// Service admits files into the queue. Identity is the sha256 of the
// content: the same bytes are never queued twice, whatever their path.
type Service struct {
	Queue     jobs.Queue
	IntakeDir string
	Clock     application.Clock
	Log       *logrus.Entry
}

// Add hashes the file, copies it into the intake directory and appends
// a pending entry. When the content is already queued the existing
// entry comes back with queued=false.
func (s *Service) Add(ctx context.Context, path string) (jobs.Entry, bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return jobs.Entry{}, false, err
	}
	st, err := os.Stat(abs)
	if err != nil || st.IsDir() {
		s.Log.Debugf("skipping %s: not a regular file", abs)
		return jobs.Entry{}, false, nil
	}

	hash, err := domain.HashFile(abs)
	if err != nil {
		return jobs.Entry{}, false, fmt.Errorf("hash %s: %w", abs, err)
	}

	// Copy before taking the queue lock. The intake name carries the
	// hash prefix so two distinct files that share a basename cannot
	// clobber each other.
	dest := filepath.Join(s.IntakeDir, intakeName(hash, abs))
	if err := copyFile(abs, dest); err != nil {
		return jobs.Entry{}, false, fmt.Errorf("copy into intake: %w", err)
	}

	var entry jobs.Entry
	queued := false
	err = s.Queue.Mutate(ctx, func(entries []jobs.Entry) ([]jobs.Entry, bool, error) {
		if idx, ok := jobs.FindByHash(entries, hash); ok {
			s.Log.Debugf("duplicate content, already queued as %s", entries[idx].JobID)
			entry = entries[idx]
			if entries[idx].SharedPath != dest {
				os.Remove(dest)
			}
			return entries, false, nil
		}
		entry = jobs.NewEntry(abs, dest, hash, s.Clock.Now())
		entries = append(entries, entry)
		queued = true
		return entries, true, nil
	})
	if err != nil {
		return jobs.Entry{}, false, err
	}
	if queued {
		s.Log.Infof("queued %s (sha256 %s)", abs, hash)
	}
	return entry, queued, nil
}

// Update handles a file changing in place or moving. Same content keeps
// its entry (only the recorded origin moves with it); new content is a
// new job. Status never goes backwards here.
func (s *Service) Update(ctx context.Context, oldPath, newPath string) (bool, error) {
	abs, err := filepath.Abs(newPath)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(abs); err != nil {
		return false, nil
	}
	hash, err := domain.HashFile(abs)
	if err != nil {
		return false, fmt.Errorf("hash %s: %w", abs, err)
	}

	known := false
	err = s.Queue.Mutate(ctx, func(entries []jobs.Entry) ([]jobs.Entry, bool, error) {
		idx, ok := jobs.FindByHash(entries, hash)
		if !ok {
			return entries, false, nil
		}
		known = true
		if entries[idx].OriginalPath == abs {
			return entries, false, nil
		}
		entries[idx].OriginalPath = abs
		return entries, true, nil
	})
	if err != nil {
		return false, err
	}
	if known {
		return true, nil
	}
	_, queued, err := s.Add(ctx, abs)
	return queued, err
}

// Remove drops entries for the given origin path, but only while they
// are still pending. Anything already claimed keeps running.
func (s *Service) Remove(ctx context.Context, path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}

	removed := false
	err = s.Queue.Mutate(ctx, func(entries []jobs.Entry) ([]jobs.Entry, bool, error) {
		kept := entries[:0]
		for _, e := range entries {
			if e.OriginalPath == abs && e.Status == jobs.StatusPending {
				os.Remove(e.SharedPath)
				removed = true
				continue
			}
			kept = append(kept, e)
		}
		return kept, removed, nil
	})
	if err != nil {
		return false, err
	}
	if removed {
		s.Log.Infof("removed pending entry for %s", abs)
	}
	return removed, nil
}

func intakeName(hash, path string) string {
	return hash[:8] + "_" + filepath.Base(path)
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
