package triage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/saringan/internal/domain/triage"
	"github.com/bryanwahyu/saringan/internal/logging"
)

// Port fakes keyed by basename, so scratch dir prefixes do not matter.

type fakeSniffer struct {
	types map[string]string
}

func (f fakeSniffer) Detect(path string) string {
	if mime, ok := f.types[filepath.Base(path)]; ok {
		return mime
	}
	return "text/plain"
}

type fakeMatcher struct {
	hits  map[string][]domain.SignatureMatch
	err   error
	panic bool
}

func (f fakeMatcher) Match(path string) ([]domain.SignatureMatch, error) {
	if f.panic {
		panic("matcher exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.hits[filepath.Base(path)], nil
}

type fakeInspector struct {
	facts map[string]*domain.ExecutableFacts
}

func (f fakeInspector) Inspect(path string) (*domain.ExecutableFacts, error) {
	if facts, ok := f.facts[filepath.Base(path)]; ok {
		return facts, nil
	}
	return nil, domain.ErrNotExecutable
}

type fakeIndicators struct {
	out map[string]map[string][]string
	err error
}

func (f fakeIndicators) Scan(path string) (map[string][]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if found, ok := f.out[filepath.Base(path)]; ok {
		return found, nil
	}
	return map[string][]string{}, nil
}

// fakeExtractor materializes canned members into a fresh scratch dir.
type fakeExtractor struct {
	members map[string]string
	err     error
}

func (f fakeExtractor) Extract(ctx context.Context, containerPath, mimeType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	dir, err := os.MkdirTemp("", "engine-test-")
	if err != nil {
		return "", err
	}
	for name, content := range f.members {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func benignEngine() *Engine {
	return &Engine{
		Sniffer:    fakeSniffer{},
		Matcher:    fakeMatcher{},
		Inspector:  fakeInspector{},
		Indicators: fakeIndicators{},
		Extractor:  fakeExtractor{},
		MaxDepth:   3,
		Log:        logging.Discard("engine-test"),
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAnalyzeFile_BenignLeaf(t *testing.T) {
	e := benignEngine()
	path := writeFile(t, t.TempDir(), "doc.txt", "harmless")

	res := e.AnalyzeFile(context.Background(), path, "aabbccdd001122")

	assert.Equal(t, domain.StatusAnalyzed, res.Status)
	assert.Equal(t, "static_aabbccdd", res.AnalysisID)
	assert.Equal(t, 0, res.Risk.Score)
	assert.Equal(t, domain.RiskLow, res.Risk.Level)
	assert.Equal(t, domain.RecommendMonitor, res.Risk.Recommendation)
	assert.False(t, res.IsContainer())
	assert.Equal(t, "text/plain", res.FileInfo.MIMEType)
	assert.Equal(t, int64(len("harmless")), res.FileInfo.SizeBytes)
}

func TestAnalyzeFile_AllSignals(t *testing.T) {
	e := benignEngine()
	e.Matcher = fakeMatcher{hits: map[string][]domain.SignatureMatch{
		"hot.bin": {{RuleName: "Mimikatz", Severity: domain.SeverityMedium}},
	}}
	e.Inspector = fakeInspector{facts: map[string]*domain.ExecutableFacts{
		"hot.bin": {IsPacked: true},
	}}
	e.Indicators = fakeIndicators{out: map[string]map[string][]string{
		"hot.bin": {domain.IndicatorURLs: {"http://c2.example/x"}},
	}}
	path := writeFile(t, t.TempDir(), "hot.bin", "MZ...")

	res := e.AnalyzeFile(context.Background(), path, "ff00ff00ff00")

	assert.Equal(t, 100, res.Risk.Score)
	assert.Equal(t, domain.RiskHigh, res.Risk.Level)
	assert.Equal(t, domain.RecommendQuarantine, res.Risk.Recommendation)
	require.Len(t, res.SignatureMatches, 1)
	assert.True(t, res.ExecutableAnalysis.Flagged())
}

// One facet failing must not silence the other two.
func TestAnalyzeFile_FacetIsolation(t *testing.T) {
	e := benignEngine()
	e.Matcher = fakeMatcher{err: errors.New("scanner broke")}
	e.Inspector = fakeInspector{facts: map[string]*domain.ExecutableFacts{
		"semi.bin": {IsPacked: true},
	}}
	e.Indicators = fakeIndicators{out: map[string]map[string][]string{
		"semi.bin": {domain.IndicatorIPs: {"8.8.8.8"}},
	}}
	path := writeFile(t, t.TempDir(), "semi.bin", "MZ...")

	res := e.AnalyzeFile(context.Background(), path, "0011223344")

	assert.Equal(t, domain.StatusAnalyzed, res.Status, "a facet failure is not an analysis failure")
	assert.Equal(t, 50, res.Risk.Score, "35 for the packer flag plus 15 for indicators")
	assert.Empty(t, res.SignatureMatches)
}

func TestAnalyzeFile_Container(t *testing.T) {
	e := benignEngine()
	e.Sniffer = fakeSniffer{types: map[string]string{"bundle.zip": "application/zip"}}
	e.Extractor = fakeExtractor{members: map[string]string{
		"clean.txt": "nothing here",
		"hot.bin":   "payload",
	}}
	e.Matcher = fakeMatcher{hits: map[string][]domain.SignatureMatch{
		"hot.bin": {{RuleName: "Malware_EICAR_Test", Severity: domain.SeverityHigh}},
	}}
	path := writeFile(t, t.TempDir(), "bundle.zip", "PK...")

	res := e.AnalyzeFile(context.Background(), path, "c0ffee00")

	assert.True(t, res.IsContainer())
	require.Len(t, res.Children, 2)
	assert.Equal(t, 50, res.Risk.Score, "container takes the max child score")
	assert.Equal(t, domain.RiskMedium, res.Risk.Level)
	require.Len(t, res.SignatureMatches, 1, "child findings fold into the container")

	for _, child := range res.Children {
		assert.False(t, child.IsContainer())
		assert.NotEmpty(t, child.FileInfo.Hash, "members are hashed for identity")
	}
}

// Past the depth cap a node fails with the recursion message; the parent
// keeps the children analyzed so far.
func TestAnalyzeFile_DepthCap(t *testing.T) {
	e := benignEngine()
	e.MaxDepth = 0
	e.Sniffer = fakeSniffer{types: map[string]string{"bundle.zip": "application/zip"}}
	e.Extractor = fakeExtractor{members: map[string]string{"inner.txt": "deep"}}
	path := writeFile(t, t.TempDir(), "bundle.zip", "PK...")

	res := e.AnalyzeFile(context.Background(), path, "c0ffee00")

	assert.Equal(t, domain.StatusAnalyzed, res.Status)
	require.Len(t, res.Children, 1)
	child := res.Children[0]
	assert.Equal(t, domain.StatusFailed, child.Status)
	assert.Equal(t, "max recursion depth exceeded", child.Error)
}

func TestAnalyzeFile_ExtractionFailure(t *testing.T) {
	e := benignEngine()
	e.Sniffer = fakeSniffer{types: map[string]string{"bundle.zip": "application/zip"}}
	e.Extractor = fakeExtractor{err: domain.NewExtractionError(domain.ReasonCountExceeded, "bundle.zip", nil)}
	path := writeFile(t, t.TempDir(), "bundle.zip", "PK...")

	res := e.AnalyzeFile(context.Background(), path, "c0ffee00")

	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.True(t, res.IsContainer(), "a failed container still reads as a container")
	assert.Contains(t, res.Error, "archive processing failed")
}

// A panicking port becomes a minimal failed result, never a crash.
func TestAnalyzeFile_RecoversPanic(t *testing.T) {
	e := benignEngine()
	e.Matcher = fakeMatcher{panic: true}
	path := writeFile(t, t.TempDir(), "boom.bin", "x")

	res := e.AnalyzeFile(context.Background(), path, "deadbeef99")

	require.NotNil(t, res)
	assert.Equal(t, domain.StatusFailed, res.Status)
	assert.Contains(t, res.Error, "matcher exploded")
	assert.Equal(t, "deadbeef99", res.FileInfo.Hash)
}
