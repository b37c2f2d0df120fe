package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/saringan/internal/domain/jobs"
)

// Store persists the queue document (ordered JSON array of entries) under
// an advisory file lock shared by every pipeline process.
type Store struct {
	path     string
	lockPath string
	log      *logrus.Entry
}

// NewStore siapkan store untuk queue.json di path tersebut
func NewStore(path string, log *logrus.Entry) *Store {
	return &Store{
		path:     path,
		lockPath: path + ".lock",
		log:      log,
	}
}

// Load reads the whole document under the lock. A missing or corrupt
// document reads as an empty queue (self-healing: the next save rewrites
// it wholesale).
func (s *Store) Load(ctx context.Context) ([]jobs.Entry, error) {
	lock, err := acquireLock(ctx, s.lockPath)
	if err != nil {
		return nil, fmt.Errorf("acquire queue lock: %w", err)
	}
	defer lock.release()
	return s.read(), nil
}

// Mutate runs fn inside one lock-guarded load→mutate→save cycle. The
// critical section must stay cheap: no extraction, no scanning in fn.
func (s *Store) Mutate(ctx context.Context, fn jobs.MutateFunc) error {
	lock, err := acquireLock(ctx, s.lockPath)
	if err != nil {
		return fmt.Errorf("acquire queue lock: %w", err)
	}
	defer lock.release()

	next, changed, err := fn(s.read())
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.write(next)
}

func (s *Store) read() []jobs.Entry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WithError(err).Warn("queue document unreadable, treating as empty")
		}
		return []jobs.Entry{}
	}
	var entries []jobs.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.log.WithError(err).Warn("invalid queue document, resetting")
		return []jobs.Entry{}
	}
	return entries
}

// write replaces the document atomically: unique temp file in the same
// directory, then rename. Readers never observe a half-written array.
func (s *Store) write(entries []jobs.Entry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := fmt.Sprintf("%s.tmp-%s", s.path, uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
