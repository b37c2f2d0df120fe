package pescan

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/saringan/internal/domain/triage"
)

// Non-PE input reports ErrNotExecutable so the caller records no facts
// and moves on.
func TestInspect_NotExecutable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(path, []byte("just text"), 0o644))

	_, err := New().Inspect(path)
	assert.ErrorIs(t, err, triage.ErrNotExecutable)
}

func TestInspect_ELFIsNotExecutableHere(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.out")
	elf := append([]byte{0x7f, 'E', 'L', 'F'}, bytes.Repeat([]byte{0}, 60)...)
	require.NoError(t, os.WriteFile(path, elf, 0o644))

	_, err := New().Inspect(path)
	assert.ErrorIs(t, err, triage.ErrNotExecutable)
}

func TestInspect_MissingFile(t *testing.T) {
	_, err := New().Inspect(filepath.Join(t.TempDir(), "gone.exe"))
	assert.ErrorIs(t, err, triage.ErrNotExecutable)
}

func TestShannonEntropy(t *testing.T) {
	assert.Zero(t, shannonEntropy(nil))
	assert.Zero(t, shannonEntropy(bytes.Repeat([]byte{0x41}, 1024)),
		"a single repeated byte carries no information")

	uniform := make([]byte, 256*16)
	for i := range uniform {
		uniform[i] = byte(i % 256)
	}
	assert.InDelta(t, 8.0, shannonEntropy(uniform), 0.001,
		"uniform byte distribution maxes out at 8 bits per byte")

	text := []byte("the quick brown fox jumps over the lazy dog, again and again and again")
	e := shannonEntropy(text)
	assert.Greater(t, e, 3.0)
	assert.Less(t, e, entropyThreshold, "english text sits well under the packing threshold")
}
