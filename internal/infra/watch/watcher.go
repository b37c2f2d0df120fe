package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/saringan/internal/domain/jobs"
)

const (
	stableChecks   = 3
	stableInterval = time.Second
	stableMaxWait  = 60 * time.Second
)

// tempExtensions marks in-progress downloads. These settle into their
// final name later and must not be admitted early.
var tempExtensions = []string{
	".crdownload", ".part", ".partial", ".download", ".tmp", ".temp",
}

// Producer is the queue intake the watcher feeds.
type Producer interface {
	Add(ctx context.Context, path string) (jobs.Entry, bool, error)
	Update(ctx context.Context, oldPath, newPath string) (bool, error)
	Remove(ctx context.Context, path string) (bool, error)
}

type Config struct {
	Directory string
	Recursive bool
	Patterns  []string // basename globs, empty or "*" admits everything
}

// Watcher mirrors a directory tree into the triage queue.
type Watcher struct {
	cfg      Config
	producer Producer
	log      *logrus.Entry

	mu      sync.Mutex
	pending map[string]struct{}
	wg      sync.WaitGroup
}

func New(cfg Config, producer Producer, log *logrus.Entry) *Watcher {
	return &Watcher{
		cfg:      cfg,
		producer: producer,
		log:      log,
		pending:  make(map[string]struct{}),
	}
}

// Run scans what is already on disk, then follows filesystem events
// until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addWatches(fw, w.cfg.Directory); err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.Directory, err)
	}
	w.log.Infof("watching %s (recursive=%t)", w.cfg.Directory, w.cfg.Recursive)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.scanExisting(ctx, w.cfg.Directory) })
	g.Go(func() error { return w.loop(ctx, fw) })
	err = g.Wait()

	// Let in-flight stability waits drain before returning.
	w.wg.Wait()
	return err
}

// addWatches registers the directory, and its subtree when recursive.
func (w *Watcher) addWatches(fw *fsnotify.Watcher, root string) error {
	if !w.cfg.Recursive {
		return fw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return fw.Add(path)
	})
}

// scanExisting admits files that were already present before we
// started listening.
func (w *Watcher) scanExisting(ctx context.Context, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil || d.IsDir() {
			if d != nil && d.IsDir() && !w.cfg.Recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if w.wanted(path) {
			w.dispatch(ctx, path)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fw, event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("fs watcher error")
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fw *fsnotify.Watcher, event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Create):
		st, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if st.IsDir() {
			if w.cfg.Recursive {
				if err := w.addWatches(fw, event.Name); err != nil {
					w.log.WithError(err).Warnf("failed to watch new directory %s", event.Name)
				}
				go w.scanExisting(ctx, event.Name)
			}
			return
		}
		if w.wanted(event.Name) {
			w.dispatch(ctx, event.Name)
		}
	case event.Has(fsnotify.Write):
		if w.wanted(event.Name) {
			w.dispatch(ctx, event.Name)
		}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// A move lands as Rename on the old name plus Create on the
		// new one, so dropping pending state here is enough.
		if _, err := w.producer.Remove(ctx, event.Name); err != nil {
			w.log.WithError(err).Warnf("failed to drop %s", event.Name)
		}
	}
}

// dispatch starts a stability wait for the path unless one is already
// running.
func (w *Watcher) dispatch(ctx context.Context, path string) {
	w.mu.Lock()
	if _, busy := w.pending[path]; busy {
		w.mu.Unlock()
		return
	}
	w.pending[path] = struct{}{}
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.forget(path)
		if !waitForStable(ctx, path) {
			w.log.Debugf("gave up waiting for %s to settle", path)
			return
		}
		if _, _, err := w.producer.Add(ctx, path); err != nil {
			w.log.WithError(err).Errorf("failed to queue %s", path)
		}
	}()
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	w.mu.Unlock()
}

// wanted filters by temp extension and the configured globs.
func (w *Watcher) wanted(path string) bool {
	base := filepath.Base(path)
	lower := strings.ToLower(base)
	for _, ext := range tempExtensions {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}
	if len(w.cfg.Patterns) == 0 {
		return true
	}
	for _, pattern := range w.cfg.Patterns {
		if pattern == "*" {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// waitForStable blocks until the file size holds still for three
// checks in a row, a second apart. Downloads and slow copies grow
// between checks and keep resetting the counter.
func waitForStable(ctx context.Context, path string) bool {
	deadline := time.Now().Add(stableMaxWait)
	last := int64(-1)
	stable := 0
	for stable < stableChecks {
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(stableInterval):
		}
		st, err := os.Stat(path)
		if err != nil {
			return false
		}
		if st.Size() == last {
			stable++
		} else {
			last = st.Size()
			stable = 0
		}
	}
	return true
}
