package iocs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/saringan/internal/domain/triage"
)

func TestExtract_URLs(t *testing.T) {
	data := []byte("connect to http://evil.example/payload.bin then https://c2.example:8443/beacon done")

	got := Extract(data)
	assert.Equal(t, []string{
		"http://evil.example/payload.bin",
		"https://c2.example:8443/beacon",
	}, got[triage.IndicatorURLs])
}

// Private, loopback and unspecified addresses are noise and get dropped;
// routable ones survive in order of appearance.
func TestExtract_PublicIPsOnly(t *testing.T) {
	data := []byte("10.0.0.5 192.168.1.1 127.0.0.1 0.0.0.0 8.8.8.8 172.16.9.9 203.0.113.77")

	got := Extract(data)
	assert.Equal(t, []string{"8.8.8.8", "203.0.113.77"}, got[triage.IndicatorIPs])
}

func TestExtract_MalformedIPIgnored(t *testing.T) {
	got := Extract([]byte("version 999.999.999.999 build 1.2.3.4"))
	assert.Equal(t, []string{"1.2.3.4"}, got[triage.IndicatorIPs])
}

// Nothing is deduplicated here; aggregation upstream flattens.
func TestExtract_NoDedup(t *testing.T) {
	got := Extract([]byte("http://x.example/a http://x.example/a"))
	assert.Len(t, got[triage.IndicatorURLs], 2)
}

func TestExtract_EmptyKeysPresent(t *testing.T) {
	got := Extract([]byte("nothing to see"))
	require.Contains(t, got, triage.IndicatorURLs)
	require.Contains(t, got, triage.IndicatorIPs)
	assert.Empty(t, got[triage.IndicatorURLs])
	assert.Empty(t, got[triage.IndicatorIPs])
}

func TestScan_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strings.txt")
	require.NoError(t, os.WriteFile(path, []byte("beacon at http://c2.example/x from 198.51.100.3"), 0o644))

	s := New(0)
	got, err := s.Scan(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://c2.example/x"}, got[triage.IndicatorURLs])
	assert.Equal(t, []string{"198.51.100.3"}, got[triage.IndicatorIPs])
}

func TestScan_RespectsByteCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "padded.txt")
	content := strings.Repeat("x", 100) + " http://late.example/only"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s := New(50)
	got, err := s.Scan(path)
	require.NoError(t, err)
	assert.Empty(t, got[triage.IndicatorURLs])
}

func TestScan_MissingFile(t *testing.T) {
	s := New(0)
	_, err := s.Scan(filepath.Join(t.TempDir(), "gone"))
	assert.Error(t, err)
}
