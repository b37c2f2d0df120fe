package queue

import (
	"context"
	"os"
	"syscall"
	"time"
)

// fileLock guards the queue document via flock(2) on a sibling lock file.
// Advisory locks are process scoped and released on close or exit, so a
// crashed holder never wedges the queue.
type fileLock struct {
	f *os.File
}

// acquireLock blocks until the exclusive lock is held or ctx is done.
// Polling with LOCK_NB keeps cancellation responsive.
func acquireLock(ctx context.Context, path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	for {
		err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			return &fileLock{f: f}, nil
		}
		if err != syscall.EWOULDBLOCK {
			f.Close()
			return nil, err
		}
		select {
		case <-ctx.Done():
			f.Close()
			return nil, ctx.Err()
		case <-time.After(25 * time.Millisecond):
		}
	}
}

func (l *fileLock) release() error {
	defer l.f.Close()
	return syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
}
