package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/saringan/internal/domain/triage"
	"github.com/bryanwahyu/saringan/internal/logging"
)

const eicar = `X5O!P%@AP[4\PZX54(P^)7CC)7}$EICAR-STANDARD-ANTIVIRUS-TEST-FILE!$H+H*`

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.bin")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_EmptyDirFallsBackToBuiltin(t *testing.T) {
	e := Load(t.TempDir(), 0, logging.Discard("rules-test"))
	assert.NotEmpty(t, e.Rules())

	names := []string{}
	for _, r := range e.Rules() {
		names = append(names, r.Name)
	}
	assert.Contains(t, names, "Malware_EICAR_Test")
}

func TestLoad_YAMLRules(t *testing.T) {
	dir := t.TempDir()
	ruleYAML := `rules:
  - name: Test_Beacon
    description: test rule
    strings:
      - "beacon-probe"
  - name: Test_Regex
    regexes:
      - "uid=[0-9]+"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.yml"), []byte(ruleYAML), 0o644))

	e := Load(dir, 0, logging.Discard("rules-test"))
	require.Len(t, e.Rules(), 2, "builtin set must not be mixed in when files load")
	assert.Equal(t, "Test_Beacon", e.Rules()[0].Name)
}

// A rule file that fails to compile is skipped, never fatal. With every
// file broken the builtin set takes over.
func TestLoad_BrokenFileSkipped(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"),
		[]byte("rules:\n  - name: NoPatterns\n"), 0o644))
	goodYAML := `rules:
  - name: Good_Rule
    strings: ["marker-xyz"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.yaml"), []byte(goodYAML), 0o644))

	e := Load(dir, 0, logging.Discard("rules-test"))
	require.Len(t, e.Rules(), 1)
	assert.Equal(t, "Good_Rule", e.Rules()[0].Name)
}

func TestLoad_AllBrokenFallsBackToBuiltin(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yml"),
		[]byte("rules:\n  - name: Bad_Regex\n    regexes: [\"([\"]\n"), 0o644))

	e := Load(dir, 0, logging.Discard("rules-test"))
	names := []string{}
	for _, r := range e.Rules() {
		names = append(names, r.Name)
	}
	assert.Contains(t, names, "Malware_EICAR_Test")
}

func TestMatch_EICAR(t *testing.T) {
	e := Load("", 0, logging.Discard("rules-test"))
	path := writeSample(t, "prefix "+eicar+" suffix")

	matches, err := e.Match(path)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Malware_EICAR_Test", matches[0].RuleName)
	assert.Equal(t, triage.SeverityHigh, matches[0].Severity)
	assert.Equal(t, "builtin", matches[0].SourceRule)
	require.Len(t, matches[0].MatchedStrings, 1)
	assert.Equal(t, eicar, matches[0].MatchedStrings[0])
}

func TestMatch_Clean(t *testing.T) {
	e := Load("", 0, logging.Discard("rules-test"))
	path := writeSample(t, "a perfectly ordinary document")

	matches, err := e.Match(path)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

// One rule reports every pattern that hit, but only once per rule.
func TestMatch_MultipleHitsOneRule(t *testing.T) {
	e := Load("", 0, logging.Discard("rules-test"))
	path := writeSample(t, "mimikatz # sekurlsa::logonpasswords")

	matches, err := e.Match(path)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Mimikatz", matches[0].RuleName)
	assert.Len(t, matches[0].MatchedStrings, 2)
}

func TestMatch_RegexRule(t *testing.T) {
	dir := t.TempDir()
	ruleYAML := `rules:
  - name: Shell_UID
    regexes: ["uid=[0-9]+"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "re.yml"), []byte(ruleYAML), 0o644))
	e := Load(dir, 0, logging.Discard("rules-test"))

	matches, err := e.Match(writeSample(t, "output: uid=1337 gid=0"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, []string{"uid=1337"}, matches[0].MatchedStrings)
}

// Bytes past the read cap are invisible to the matcher.
func TestMatch_RespectsByteCap(t *testing.T) {
	e := Load("", 64, logging.Discard("rules-test"))
	padding := strings.Repeat("A", 128)
	path := writeSample(t, padding+eicar)

	matches, err := e.Match(path)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMatch_MissingFile(t *testing.T) {
	e := Load("", 0, logging.Discard("rules-test"))
	_, err := e.Match(filepath.Join(t.TempDir(), "gone"))
	assert.Error(t, err)
}
