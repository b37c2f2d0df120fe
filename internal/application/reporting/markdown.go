package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/saringan/internal/domain/reports"
	domain "github.com/bryanwahyu/saringan/internal/domain/triage"
)

const indicatorDisplayLimit = 10

// Render produces the human-readable companion document for a report.
func Render(rec *reports.Record) string {
	var b strings.Builder

	b.WriteString("# Malware Analysis Report\n\n")
	fmt.Fprintf(&b, "**Report ID**: `%s`  \n", rec.ReportID)
	fmt.Fprintf(&b, "**Generated**: %s\n\n", rec.GeneratedAt.UTC().Format(time.RFC3339))
	b.WriteString("---\n\n")

	info := rec.FileInfo
	b.WriteString("## File Information\n\n")
	fmt.Fprintf(&b, "- **Original Path**: `%s`\n", info.OriginalPath)
	fmt.Fprintf(&b, "- **SHA256**: `%s`\n", info.ContentHash)
	fmt.Fprintf(&b, "- **Queued At**: `%s`\n", info.QueuedAt.UTC().Format(time.RFC3339))
	if info.MIMEType != "" {
		fmt.Fprintf(&b, "- **File Type**: `%s`\n", info.MIMEType)
	}
	if info.SizeBytes > 0 {
		fmt.Fprintf(&b, "- **Size**: `%d bytes`\n", info.SizeBytes)
	}
	b.WriteString("\n")

	risk := rec.OverallRisk
	fmt.Fprintf(&b, "## Overall Risk: %s\n\n", risk.Level)
	fmt.Fprintf(&b, "![Risk](https://img.shields.io/badge/Risk-%s-%s?style=for-the-badge)\n\n", risk.Level, badgeColor(risk.Level))
	fmt.Fprintf(&b, "**Combined Score**: `%d`\n\n", risk.Score)

	if rec.StaticAnalysis == nil {
		b.WriteString("## Static Analysis\n\n*No static analysis results available.*\n")
		return b.String()
	}
	renderStatic(&b, rec.StaticAnalysis)
	return b.String()
}

func renderStatic(b *strings.Builder, res *domain.Result) {
	b.WriteString("## Static Analysis\n\n")
	fmt.Fprintf(b, "- **Verdict**: `%s`\n", res.Risk.Level)
	fmt.Fprintf(b, "- **Score**: `%d`\n", res.Risk.Score)
	fmt.Fprintf(b, "- **Recommendation**: `%s`\n", res.Risk.Recommendation)
	fmt.Fprintf(b, "- **Duration**: `%d ms`\n\n", res.DurationMS)

	if res.Status == domain.StatusFailed && res.Error != "" {
		fmt.Fprintf(b, "> Analysis failed: %s\n\n", res.Error)
	}

	if len(res.SignatureMatches) > 0 {
		b.WriteString("### Signature Matches\n\n")
		b.WriteString("| Rule | Severity | Source |\n")
		b.WriteString("|------|----------|--------|\n")
		for _, m := range res.SignatureMatches {
			fmt.Fprintf(b, "| `%s` | %s | %s |\n", m.RuleName, m.Severity, m.SourceRule)
		}
		b.WriteString("\n")
	}

	if exe := res.ExecutableAnalysis; exe != nil {
		b.WriteString("### Executable Analysis\n\n")
		if len(exe.SuspiciousImports) > 0 {
			fmt.Fprintf(b, "- **Suspicious Imports**: %s\n", codeList(exe.SuspiciousImports))
		}
		if len(exe.HighEntropySections) > 0 {
			fmt.Fprintf(b, "- **High Entropy Sections**: %s\n", codeList(exe.HighEntropySections))
		}
		fmt.Fprintf(b, "- **Packed**: `%t`\n", exe.IsPacked)
		fmt.Fprintf(b, "- **Overlay Detected**: `%t`\n", exe.OverlayDetected)
		b.WriteString("\n")
	}

	renderIndicators(b, "Extracted URLs", res.ExtractedIndicators[domain.IndicatorURLs])
	renderIndicators(b, "Extracted IPs", res.ExtractedIndicators[domain.IndicatorIPs])

	if len(res.Children) > 0 {
		b.WriteString("### Archive Contents\n\n")
		b.WriteString("| Member | Score | Level | Status |\n")
		b.WriteString("|--------|-------|-------|--------|\n")
		for _, child := range res.Children {
			fmt.Fprintf(b, "| `%s` | %d | %s | %s |\n",
				child.FileInfo.Path, child.Risk.Score, child.Risk.Level, child.Status)
		}
		b.WriteString("\n")
	}
}

// renderIndicators prints up to indicatorDisplayLimit values and a
// remainder note, matching the report convention for long lists.
func renderIndicators(b *strings.Builder, title string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", title)
	shown := values
	if len(shown) > indicatorDisplayLimit {
		shown = shown[:indicatorDisplayLimit]
	}
	for _, v := range shown {
		fmt.Fprintf(b, "- `%s`\n", v)
	}
	if rest := len(values) - len(shown); rest > 0 {
		fmt.Fprintf(b, "- *... and %d more*\n", rest)
	}
	b.WriteString("\n")
}

func codeList(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, it := range items {
		quoted = append(quoted, "`"+it+"`")
	}
	return strings.Join(quoted, ", ")
}

func badgeColor(level reports.Level) string {
	switch level {
	case reports.LevelCritical:
		return "8B0000"
	case reports.LevelHigh:
		return "red"
	case reports.LevelMedium:
		return "orange"
	case reports.LevelLow:
		return "yellow"
	default:
		return "green"
	}
}
