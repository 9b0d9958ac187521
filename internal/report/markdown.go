package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/specwarden/specwarden/internal/review"
)

var severityOrder = []string{
	review.SeverityCritical,
	review.SeverityHigh,
	review.SeverityMedium,
	review.SeverityGripes,
}

// RenderMarkdown builds the human-readable report.
func RenderMarkdown(in Input) string {
	var b strings.Builder

	b.WriteString("# Specification Review Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().Format("2006-01-02 15:04"))

	b.WriteString("## Files Reviewed\n\n")
	for _, f := range in.Files {
		fmt.Fprintf(&b, "- %s (%d tokens, %d boilerplate removals, %d alerts)\n",
			f.FileName, f.TokenCount, len(f.RemovedSpans), len(f.Alerts))
	}
	b.WriteString("\n")

	b.WriteString("## Token Usage\n\n")
	fmt.Fprintf(&b, "Aggregate: %d tokens (soft limit %d, hard limit %d)\n\n",
		in.Decision.AggregateTokens, in.Limits.Soft, in.Limits.Hard)
	switch {
	case in.Decision.HardExceeded:
		fmt.Fprintf(&b, "**OVER HARD LIMIT** by %d tokens — batch was not sendable as selected.\n\n",
			-in.Decision.CapacityRemaining)
	case in.Decision.SoftExceeded:
		b.WriteString("Over the soft limit — response may be truncated.\n\n")
	default:
		fmt.Fprintf(&b, "Within limits; %d tokens of capacity remaining.\n\n", in.Decision.CapacityRemaining)
	}

	if in.DryRun {
		b.WriteString("## Findings\n\nDry run — no analysis call was made.\n\n")
	} else if in.Result != nil {
		if in.Result.Summary != "" {
			b.WriteString("## Analysis Summary\n\n")
			b.WriteString(in.Result.Summary)
			b.WriteString("\n\n")
		}
		renderFindings(&b, in.Result)
	}

	renderAlerts(&b, in)
	renderRemoved(&b, in)

	return b.String()
}

func renderFindings(b *strings.Builder, result *review.Result) {
	fmt.Fprintf(b, "## Findings (%d)\n\n", len(result.Findings))
	if len(result.Findings) == 0 {
		b.WriteString("No findings.\n\n")
		return
	}

	for _, sev := range severityOrder {
		var matched []review.Finding
		for _, f := range result.Findings {
			if f.Severity == sev {
				matched = append(matched, f)
			}
		}
		if len(matched) == 0 {
			continue
		}

		fmt.Fprintf(b, "### %s (%d)\n\n", sev, len(matched))
		for i, f := range matched {
			fmt.Fprintf(b, "%d. **%s** — %s\n", i+1, f.FileName, f.Section)
			fmt.Fprintf(b, "   - Issue: %s\n", f.Issue)
			if f.ExistingText != "" {
				fmt.Fprintf(b, "   - Existing: %s\n", f.ExistingText)
			}
			if f.ReplacementText != "" {
				fmt.Fprintf(b, "   - Replace with: %s\n", f.ReplacementText)
			}
			if f.CodeReference != "" {
				fmt.Fprintf(b, "   - Reference: %s\n", f.CodeReference)
			}
			b.WriteString("\n")
		}
	}
}

func renderAlerts(b *strings.Builder, in Input) {
	total := 0
	for _, f := range in.Files {
		total += len(f.Alerts)
	}
	fmt.Fprintf(b, "## Alerts (%d)\n\n", total)
	if total == 0 {
		b.WriteString("No LEED references or unresolved placeholders detected.\n\n")
		return
	}

	b.WriteString("| File | Category | Rule | Match | Context |\n")
	b.WriteString("|------|----------|------|-------|--------|\n")
	for _, f := range in.Files {
		for _, a := range f.Alerts {
			fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n",
				f.FileName, a.Category, a.RuleID, cell(a.MatchedText), cell(a.Context))
		}
	}
	b.WriteString("\n")
}

func renderRemoved(b *strings.Builder, in Input) {
	total := 0
	for _, f := range in.Files {
		total += len(f.RemovedSpans)
	}
	fmt.Fprintf(b, "## Removed Boilerplate (%d)\n\n", total)
	if total == 0 {
		b.WriteString("Nothing removed.\n\n")
		return
	}

	for _, f := range in.Files {
		if len(f.RemovedSpans) == 0 {
			continue
		}
		fmt.Fprintf(b, "### %s\n\n", f.FileName)
		for _, sp := range f.RemovedSpans {
			fmt.Fprintf(b, "- [%s] %s @ %d-%d: %s\n",
				sp.Category, sp.RuleID, sp.Start, sp.End, cell(truncate(sp.MatchedText, 120)))
		}
		b.WriteString("\n")
	}
}

// cell flattens text for a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
