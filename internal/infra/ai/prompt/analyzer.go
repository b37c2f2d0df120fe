package prompt

import (
	"encoding/json"
	"fmt"

	"github.com/bryanwahyu/saringan/internal/domain/reports"
	domain "github.com/bryanwahyu/saringan/internal/domain/triage"
)

const maxIndicators = 20

// Summary mirrors the JSON schema enforced by the system prompt.
type Summary struct {
	ReportID           string   `json:"report_id"`
	Verdict            string   `json:"verdict"`
	Confidence         string   `json:"confidence"`
	Summary            string   `json:"summary"`
	KeyIndicators      []string `json:"key_indicators"`
	RecommendedActions []string `json:"recommended_actions"`
}

// AnalyzeReportContent derives a schema-conform summary from the report
// content alone, without calling a model. It never prints; it only
// returns the JSON string.
func AnalyzeReportContent(reportJSON string) string {
	var rec reports.Record
	if err := json.Unmarshal([]byte(reportJSON), &rec); err != nil {
		fb := Summary{
			Verdict:    "suspicious",
			Confidence: "low",
			Summary:    "Report could not be parsed; treat the sample with caution.",
		}
		data, _ := json.Marshal(fb)
		return string(data)
	}

	out := Summary{
		ReportID:      rec.ReportID,
		KeyIndicators: []string{},
	}

	switch rec.OverallRisk.Level {
	case reports.LevelCritical:
		out.Verdict, out.Confidence = "malicious", "high"
	case reports.LevelHigh:
		out.Verdict, out.Confidence = "malicious", "medium"
	case reports.LevelMedium:
		out.Verdict, out.Confidence = "suspicious", "medium"
	case reports.LevelLow:
		out.Verdict, out.Confidence = "suspicious", "low"
	default:
		out.Verdict, out.Confidence = "benign", "medium"
	}

	signatures := 0
	indicators := 0
	quarantine := false
	if sa := rec.StaticAnalysis; sa != nil {
		signatures = len(sa.SignatureMatches)
		quarantine = sa.Risk.Recommendation == domain.RecommendQuarantine

		for _, m := range sa.SignatureMatches {
			out.KeyIndicators = append(out.KeyIndicators, fmt.Sprintf("signature %s (%s)", m.RuleName, m.Severity))
		}
		if exe := sa.ExecutableAnalysis; exe != nil {
			for _, imp := range exe.SuspiciousImports {
				out.KeyIndicators = append(out.KeyIndicators, "import "+imp)
			}
			if exe.IsPacked {
				out.KeyIndicators = append(out.KeyIndicators, "binary appears packed")
			}
			for _, sec := range exe.HighEntropySections {
				out.KeyIndicators = append(out.KeyIndicators, "high entropy section "+sec)
			}
		}
		for _, kind := range []string{domain.IndicatorURLs, domain.IndicatorIPs} {
			values := sa.ExtractedIndicators[kind]
			indicators += len(values)
			for i, v := range values {
				if i >= 3 {
					out.KeyIndicators = append(out.KeyIndicators, fmt.Sprintf("and %d more %s", len(values)-i, kind))
					break
				}
				out.KeyIndicators = append(out.KeyIndicators, kind+" "+v)
			}
		}
	}
	if len(out.KeyIndicators) > maxIndicators {
		out.KeyIndicators = out.KeyIndicators[:maxIndicators]
	}

	out.Summary = fmt.Sprintf(
		"Static triage of %s scored %d (%s): %d signature match(es), %d extracted indicator(s).",
		rec.FileInfo.OriginalPath, rec.OverallRisk.Score, rec.OverallRisk.Level, signatures, indicators,
	)

	if quarantine {
		out.RecommendedActions = []string{
			"Keep the sample quarantined and do not execute it.",
			"Check the origin host for the extracted indicators.",
			"Submit the hash to threat intelligence feeds for corroboration.",
		}
	} else if out.Verdict == "benign" {
		out.RecommendedActions = []string{
			"No immediate action required; archive the report.",
		}
	} else {
		out.RecommendedActions = []string{
			"Monitor the source of this file for further drops.",
			"Re-scan with updated signature rules when available.",
		}
	}

	b, err := json.Marshal(out)
	if err != nil {
		fb := Summary{ReportID: rec.ReportID, Verdict: "suspicious", Confidence: "low",
			Summary: "Summary serialization failed."}
		data, _ := json.Marshal(fb)
		return string(data)
	}
	return string(b)
}
