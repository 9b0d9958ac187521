// Package report renders a review run into its on-disk artifacts: a
// human-readable markdown report, machine-readable JSON findings, the
// token summary, and the combined-input snapshot used for the call.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/specwarden/specwarden/internal/batch"
	"github.com/specwarden/specwarden/internal/pipeline"
	"github.com/specwarden/specwarden/internal/review"
)

// Artifacts lists the files one run writes.
type Artifacts struct {
	RunDir           string
	RunID            string
	ReportMD         string
	FindingsJSON     string
	TokenSummaryJSON string
	InputsCombined   string
	RawResponse      string
}

// Input bundles everything a run produced.
type Input struct {
	Files    []pipeline.FileText
	Decision batch.Decision
	Result   *review.Result // nil on dry runs
	Limits   batch.Limits
	Model    string
	DryRun   bool
}

// NewRunDir creates a timestamped run directory under outputDir and
// returns its path plus the run id. The short uuid suffix keeps two
// runs within the same second from colliding.
func NewRunDir(outputDir string) (string, string, error) {
	runID := uuid.NewString()
	name := fmt.Sprintf("review_%s_%s", time.Now().Format("2006-01-02_150405"), runID[:8])
	dir := filepath.Join(outputDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating run dir: %w", err)
	}
	return dir, runID, nil
}

// Write renders every artifact into dir.
func Write(dir string, in Input) (Artifacts, error) {
	a := Artifacts{
		RunDir:           dir,
		ReportMD:         filepath.Join(dir, "report.md"),
		FindingsJSON:     filepath.Join(dir, "findings.json"),
		TokenSummaryJSON: filepath.Join(dir, "token_summary.json"),
		InputsCombined:   filepath.Join(dir, "inputs_combined.txt"),
		RawResponse:      filepath.Join(dir, "raw_response.txt"),
	}

	if err := os.WriteFile(a.InputsCombined, []byte(in.Decision.CombinedText), 0o644); err != nil {
		return a, fmt.Errorf("writing combined inputs: %w", err)
	}

	raw := ""
	if in.Result != nil {
		raw = in.Result.RawResponse
	}
	if err := os.WriteFile(a.RawResponse, []byte(raw), 0o644); err != nil {
		return a, fmt.Errorf("writing raw response: %w", err)
	}

	if err := writeJSON(a.TokenSummaryJSON, tokenSummary(in)); err != nil {
		return a, err
	}
	if err := writeJSON(a.FindingsJSON, findingsDoc(in)); err != nil {
		return a, err
	}
	if err := os.WriteFile(a.ReportMD, []byte(RenderMarkdown(in)), 0o644); err != nil {
		return a, fmt.Errorf("writing report: %w", err)
	}

	return a, nil
}

type tokenItem struct {
	Name   string `json:"name"`
	Tokens int    `json:"tokens"`
	Chars  int    `json:"chars"`
}

func tokenSummary(in Input) map[string]any {
	items := make([]tokenItem, 0, len(in.Files))
	for _, f := range in.Files {
		items = append(items, tokenItem{Name: f.FileName, Tokens: f.TokenCount, Chars: len(f.CleanedText)})
	}
	return map[string]any{
		"model":              in.Model,
		"soft_limit":         in.Limits.Soft,
		"hard_limit":         in.Limits.Hard,
		"aggregate_tokens":   in.Decision.AggregateTokens,
		"soft_exceeded":      in.Decision.SoftExceeded,
		"hard_exceeded":      in.Decision.HardExceeded,
		"capacity_remaining": in.Decision.CapacityRemaining,
		"items":              items,
	}
}

func findingsDoc(in Input) map[string]any {
	meta := map[string]any{
		"model":   in.Model,
		"dry_run": in.DryRun,
	}
	findings := []review.Finding{}
	summary := ""
	if in.Result != nil {
		meta["input_tokens"] = in.Result.InputTokens
		meta["output_tokens"] = in.Result.OutputTokens
		meta["elapsed_seconds"] = in.Result.Elapsed.Seconds()
		findings = in.Result.Findings
		summary = in.Result.Summary
	}

	type alertEntry struct {
		FileName string `json:"file_name"`
		RuleID   string `json:"rule_id"`
		Category string `json:"category"`
		Match    string `json:"match"`
		Context  string `json:"context"`
		Position int    `json:"position"`
	}
	type removedEntry struct {
		FileName string `json:"file_name"`
		RuleID   string `json:"rule_id"`
		Category string `json:"category"`
		Start    int    `json:"start"`
		End      int    `json:"end"`
		Match    string `json:"match"`
	}

	var alerts []alertEntry
	var removed []removedEntry
	for _, f := range in.Files {
		for _, a := range f.Alerts {
			alerts = append(alerts, alertEntry{
				FileName: f.FileName, RuleID: a.RuleID, Category: string(a.Category),
				Match: a.MatchedText, Context: a.Context, Position: a.Start,
			})
		}
		for _, sp := range f.RemovedSpans {
			removed = append(removed, removedEntry{
				FileName: f.FileName, RuleID: sp.RuleID, Category: string(sp.Category),
				Start: sp.Start, End: sp.End, Match: sp.MatchedText,
			})
		}
	}

	return map[string]any{
		"meta":          meta,
		"summary":       summary,
		"findings":      findings,
		"alerts":        alerts,
		"removed_spans": removed,
	}
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
