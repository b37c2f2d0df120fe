package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu      sync.Mutex
	loggers = map[string]*logrus.Entry{}
)

// Setup returns the logger for a pipeline component, writing to stderr and
// to <dir>/<component>.log. Calling it twice for the same component
// returns the same entry.
func Setup(component, level, dir string) *logrus.Entry {
	mu.Lock()
	defer mu.Unlock()

	if entry, ok := loggers[component]; ok {
		return entry
	}

	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	out := io.Writer(os.Stderr)
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			path := filepath.Join(dir, component+".log")
			f, ferr := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
			if ferr == nil {
				out = io.MultiWriter(os.Stderr, f)
			}
		}
	}
	l.SetOutput(out)

	entry := l.WithField("component", component)
	loggers[component] = entry
	return entry
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard(component string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l.WithField("component", component)
}
