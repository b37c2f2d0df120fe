package quarantine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockup(t *testing.T) {
	dir := t.TempDir()
	j := New(filepath.Join(dir, "jail"))

	source := filepath.Join(dir, "malware.exe")
	payload := []byte("MZ this would be a binary")
	require.NoError(t, os.WriteFile(source, payload, 0o644))

	jailed, err := j.Lockup(source)
	require.NoError(t, err)

	_, statErr := os.Stat(source)
	assert.True(t, os.IsNotExist(statErr), "the original sample must be gone")

	assert.True(t, strings.HasSuffix(jailed, ".quarantine"))
	assert.Contains(t, filepath.Base(jailed), "malware.exe")

	stored, err := os.ReadFile(jailed)
	require.NoError(t, err)
	assert.NotEqual(t, payload, stored, "jailed bytes must be neutralized")
	require.Len(t, stored, len(payload))
	for i := range stored {
		assert.Equal(t, payload[i]^0xAA, stored[i])
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	j := New(filepath.Join(dir, "jail"))

	source := filepath.Join(dir, "sample.bin")
	payload := []byte("original bytes")
	require.NoError(t, os.WriteFile(source, payload, 0o644))

	jailed, err := j.Lockup(source)
	require.NoError(t, err)

	restoreDir := filepath.Join(dir, "restored")
	require.NoError(t, os.MkdirAll(restoreDir, 0o755))

	restored, err := j.Restore(filepath.Base(jailed), restoreDir)
	require.NoError(t, err)
	assert.Equal(t, "Restored_sample.bin", filepath.Base(restored))

	back, err := os.ReadFile(restored)
	require.NoError(t, err)
	assert.Equal(t, payload, back, "XOR is its own inverse")

	// The jailed copy stays in place.
	_, err = os.Stat(jailed)
	assert.NoError(t, err)
}

func TestRestore_RejectsNonQuarantineName(t *testing.T) {
	j := New(t.TempDir())
	_, err := j.Restore("random.txt", t.TempDir())
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	j := New(filepath.Join(dir, "jail"))

	// Empty (and even nonexistent) jail lists cleanly.
	files, err := j.List()
	require.NoError(t, err)
	assert.Empty(t, files)

	source := filepath.Join(dir, "x.bin")
	require.NoError(t, os.WriteFile(source, []byte("x"), 0o644))
	_, err = j.Lockup(source)
	require.NoError(t, err)

	files, err = j.List()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0], ".quarantine"))
}
