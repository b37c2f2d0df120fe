package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/saringan/internal/domain/jobs"
	"github.com/bryanwahyu/saringan/internal/logging"
)

type recordingProducer struct {
	mu    sync.Mutex
	added []string
}

func (p *recordingProducer) Add(ctx context.Context, path string) (jobs.Entry, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.added = append(p.added, path)
	return jobs.Entry{}, true, nil
}

func (p *recordingProducer) Update(ctx context.Context, oldPath, newPath string) (bool, error) {
	return false, nil
}

func (p *recordingProducer) Remove(ctx context.Context, path string) (bool, error) {
	return false, nil
}

func (p *recordingProducer) snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.added))
	copy(out, p.added)
	return out
}

func TestWanted_TempExtensionsRejected(t *testing.T) {
	w := New(Config{Directory: "/watch"}, &recordingProducer{}, logging.Discard("watch-test"))

	cases := []struct {
		path string
		want bool
	}{
		{"/watch/setup.exe", true},
		{"/watch/setup.exe.crdownload", false},
		{"/watch/video.mp4.PART", false},
		{"/watch/dump.partial", false},
		{"/watch/notes.download", false},
		{"/watch/archive.tmp", false},
		{"/watch/archive.TEMP", false},
		{"/watch/report.pdf", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, w.wanted(tc.path), "path %s", tc.path)
	}
}

func TestWanted_Globs(t *testing.T) {
	w := New(Config{
		Directory: "/watch",
		Patterns:  []string{"*.exe", "*.dll"},
	}, &recordingProducer{}, logging.Discard("watch-test"))

	assert.True(t, w.wanted("/watch/payload.exe"))
	assert.True(t, w.wanted("/watch/deep/lib.dll"))
	assert.False(t, w.wanted("/watch/readme.txt"))

	wildcard := New(Config{Patterns: []string{"*"}}, &recordingProducer{}, logging.Discard("watch-test"))
	assert.True(t, wildcard.wanted("/watch/anything.xyz"))

	unfiltered := New(Config{}, &recordingProducer{}, logging.Discard("watch-test"))
	assert.True(t, unfiltered.wanted("/watch/anything.xyz"))
}

func TestWaitForStable_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	ok := waitForStable(ctx, "/nonexistent")
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "a dead context must not block the full wait")
}

func TestWaitForStable_MissingFile(t *testing.T) {
	assert.False(t, waitForStable(context.Background(), filepath.Join(t.TempDir(), "ghost.bin")))
}

func TestWaitForStable_SettledFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settled.bin")
	require.NoError(t, os.WriteFile(path, []byte("done writing"), 0o644))

	assert.True(t, waitForStable(context.Background(), path))
}

// Two events for the same path during one stability window admit the
// file once.
func TestDispatch_DeduplicatesInFlight(t *testing.T) {
	producer := &recordingProducer{}
	w := New(Config{Directory: t.TempDir()}, producer, logging.Discard("watch-test"))

	path := filepath.Join(w.cfg.Directory, "burst.bin")
	require.NoError(t, os.WriteFile(path, []byte("written in one go"), 0o644))

	ctx := context.Background()
	w.dispatch(ctx, path)
	w.dispatch(ctx, path)
	w.wg.Wait()

	assert.Len(t, producer.snapshot(), 1, "the second event piggybacks on the running wait")
}

func TestScanExisting_RespectsFiltersAndRecursion(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.exe"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "skip.tmp"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "nested.exe"), []byte("x"), 0o644))

	producer := &recordingProducer{}
	w := New(Config{
		Directory: root,
		Recursive: false,
		Patterns:  []string{"*.exe"},
	}, producer, logging.Discard("watch-test"))

	require.NoError(t, w.scanExisting(context.Background(), root))
	w.wg.Wait()

	got := producer.snapshot()
	require.Len(t, got, 1, "non-recursive scan stays out of subdirectories")
	assert.Equal(t, filepath.Join(root, "keep.exe"), got[0])
}
