package triage

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResult_Seed(t *testing.T) {
	res := NewResult(FileInfo{Hash: "aabbccddeeff00112233", Path: "/tmp/x"})

	assert.Equal(t, "static_aabbccdd", res.AnalysisID)
	assert.Equal(t, StatusAnalyzed, res.Status)
	assert.Equal(t, RiskLow, res.Risk.Level)
	assert.NotNil(t, res.SignatureMatches)
	assert.NotNil(t, res.ExtractedIndicators)
	assert.Nil(t, res.Children, "a fresh node is a leaf until marked")
}

func TestAnalysisIDSuffix_ShortHash(t *testing.T) {
	assert.Equal(t, "abc", AnalysisIDSuffix("abc"))
	assert.Equal(t, "12345678", AnalysisIDSuffix("123456789"))
}

func TestFail_RecordsCause(t *testing.T) {
	res := NewResult(FileInfo{Hash: "ff"})
	res.Fail(errors.New("boom"))

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "boom", res.Error)
}

// MarkContainer must survive serialization even when no child was ever
// folded, so a failed container still reads as a container.
func TestMarkContainer_EmptySurvivesJSON(t *testing.T) {
	res := NewResult(FileInfo{Hash: "ff"})
	res.MarkContainer()
	require.True(t, res.IsContainer())

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var back Result
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.IsContainer())
	assert.Len(t, back.Children, 0)
}

func TestFoldChild_MaxAndUnion(t *testing.T) {
	parent := NewResult(FileInfo{Hash: "aa"})
	parent.Risk.Score = 15

	benign := NewResult(FileInfo{Hash: "bb"})
	benign.Risk.Score = 0

	hot := NewResult(FileInfo{Hash: "cc"})
	hot.Risk.Score = 85
	hot.SignatureMatches = append(hot.SignatureMatches, SignatureMatch{RuleName: "Mimikatz"})
	hot.ExtractedIndicators[IndicatorURLs] = []string{"http://evil.example/a"}

	parent.FoldChild(benign)
	parent.FoldChild(hot)

	assert.Equal(t, 85, parent.Risk.Score, "parent takes the max child score")
	assert.Len(t, parent.Children, 2)
	assert.Len(t, parent.SignatureMatches, 1)
	assert.Equal(t, []string{"http://evil.example/a"}, parent.ExtractedIndicators[IndicatorURLs])
	assert.Equal(t, 85, parent.MaxChildScore())
}

// Children scores never lower the parent.
func TestFoldChild_LowerChildKeepsParentScore(t *testing.T) {
	parent := NewResult(FileInfo{Hash: "aa"})
	parent.Risk.Score = 50

	child := NewResult(FileInfo{Hash: "bb"})
	child.Risk.Score = 15

	parent.FoldChild(child)
	assert.Equal(t, 50, parent.Risk.Score)
}

func TestDeriveSeverity(t *testing.T) {
	assert.Equal(t, SeverityHigh, DeriveSeverity("Malware_EICAR_Test"))
	assert.Equal(t, SeverityHigh, DeriveSeverity("some_malware_rule"))
	assert.Equal(t, SeverityMedium, DeriveSeverity("Mimikatz"))
	assert.Equal(t, SeverityMedium, DeriveSeverity("WebShell_Generic"))
}

func TestIsContainerMIME(t *testing.T) {
	for _, mime := range []string{
		"application/zip",
		"application/x-tar",
		"application/gzip",
		"application/x-7z-compressed",
		"application/x-rar",
	} {
		assert.True(t, IsContainerMIME(mime), mime)
	}
	assert.False(t, IsContainerMIME("text/plain"))
	assert.False(t, IsContainerMIME("application/pdf"))
	assert.False(t, IsContainerMIME("unknown"))
}

func TestExecutableFacts_Flagged(t *testing.T) {
	var nilFacts *ExecutableFacts
	assert.False(t, nilFacts.Flagged())

	assert.False(t, (&ExecutableFacts{OverlayDetected: true}).Flagged(),
		"overlay alone is recorded, not scored")
	assert.True(t, (&ExecutableFacts{IsPacked: true}).Flagged())
	assert.True(t, (&ExecutableFacts{SuspiciousImports: []string{"VirtualAlloc"}}).Flagged())
	assert.True(t, (&ExecutableFacts{HighEntropySections: []string{".text"}}).Flagged())
}
