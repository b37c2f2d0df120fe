package triage

import (
	"strings"
)

// Status hasil analisis satu artifact
type Status string

const (
	StatusAnalyzed Status = "analyzed"
	StatusFailed   Status = "failed"
)

// Severity enum untuk signature match
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
)

// DeriveSeverity maps a rule name onto a severity. Rules whose name
// mentions malware escalate, everything else stays MEDIUM.
func DeriveSeverity(ruleName string) Severity {
	if strings.Contains(strings.ToLower(ruleName), "malware") {
		return SeverityHigh
	}
	return SeverityMedium
}

// Indicator kinds used as keys in ExtractedIndicators.
const (
	IndicatorURLs = "urls"
	IndicatorIPs  = "ips"
)

// FileInfo value object
type FileInfo struct {
	Hash      string `json:"hash"`
	Path      string `json:"path"`
	MIMEType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// SignatureMatch value object
type SignatureMatch struct {
	RuleName       string   `json:"rule_name"`
	Severity       Severity `json:"severity"`
	MatchedStrings []string `json:"matched_strings"`
	SourceRule     string   `json:"source_rule"`
}

// ExecutableFacts hasil inspeksi format executable (nil kalau bukan executable)
type ExecutableFacts struct {
	SuspiciousImports   []string `json:"suspicious_imports"`
	HighEntropySections []string `json:"high_entropy_sections"`
	OverlayDetected     bool     `json:"overlay_detected"`
	IsPacked            bool     `json:"is_packed"`
}

// Flagged reports whether the facts carry any scoring signal. Overlay
// presence is recorded but does not count as a flag.
func (f *ExecutableFacts) Flagged() bool {
	if f == nil {
		return false
	}
	return len(f.SuspiciousImports) > 0 || len(f.HighEntropySections) > 0 || f.IsPacked
}

// Aggregate Root: Result, a tagged tree. Children is non-nil only for
// container nodes; a leaf never has it.
type Result struct {
	AnalysisID          string              `json:"analysis_id"`
	FileInfo            FileInfo            `json:"file_info"`
	SignatureMatches    []SignatureMatch    `json:"signature_matches"`
	ExecutableAnalysis  *ExecutableFacts    `json:"executable_analysis,omitempty"`
	ExtractedIndicators map[string][]string `json:"extracted_indicators"`
	Children            []*Result           `json:"children,omitempty"`
	Risk                Risk                `json:"risk"`
	Status              Status              `json:"status"`
	Error               string              `json:"error,omitempty"`
	DurationMS          int64               `json:"duration_ms"`
}

// NewResult seeds an analyzed node for one artifact.
func NewResult(info FileInfo) *Result {
	return &Result{
		AnalysisID:          "static_" + AnalysisIDSuffix(info.Hash),
		FileInfo:            info,
		SignatureMatches:    []SignatureMatch{},
		ExtractedIndicators: map[string][]string{},
		Risk:                Risk{Level: RiskLow, Recommendation: RecommendMonitor},
		Status:              StatusAnalyzed,
	}
}

// AnalysisIDSuffix returns the short hash prefix used in analysis ids.
func AnalysisIDSuffix(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

// IsContainer reports whether the node was treated as an archive.
func (r *Result) IsContainer() bool {
	return r.Children != nil
}

// MarkContainer tags the node as a container with an empty child list, so
// the distinction survives serialization even when extraction fails early.
func (r *Result) MarkContainer() {
	if r.Children == nil {
		r.Children = []*Result{}
	}
}

// Fail flips the node to failed and records the cause.
func (r *Result) Fail(err error) {
	r.Status = StatusFailed
	if err != nil {
		r.Error = err.Error()
	}
}

// FoldChild melipat hasil anak ke node ini: skor = max, temuan di-union
// (flatten, tanpa dedup). Pure aggregation, no side effects elsewhere.
func (r *Result) FoldChild(child *Result) {
	r.MarkContainer()
	r.Children = append(r.Children, child)
	if child.Risk.Score > r.Risk.Score {
		r.Risk.Score = child.Risk.Score
	}
	r.SignatureMatches = append(r.SignatureMatches, child.SignatureMatches...)
	for kind, values := range child.ExtractedIndicators {
		r.ExtractedIndicators[kind] = append(r.ExtractedIndicators[kind], values...)
	}
}

// MaxChildScore returns the highest risk score among direct children.
func (r *Result) MaxChildScore() int {
	max := 0
	for _, c := range r.Children {
		if c.Risk.Score > max {
			max = c.Risk.Score
		}
	}
	return max
}

// Container MIME set: dispatch is by sniffed content type, never by name.
var containerMIMEs = map[string]struct{}{
	"application/zip":              {},
	"application/x-zip-compressed": {},
	"application/x-tar":            {},
	"application/gzip":             {},
	"application/x-bzip2":          {},
	"application/x-rar-compressed": {},
	"application/x-rar":            {},
	"application/x-7z-compressed":  {},
}

// IsContainerMIME reports whether a sniffed type is handled as an archive.
func IsContainerMIME(mime string) bool {
	_, ok := containerMIMEs[mime]
	return ok
}
