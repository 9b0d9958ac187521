package review

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Severity levels a finding can carry, highest first.
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityMedium   = "MEDIUM"
	SeverityGripes   = "GRIPES"
)

// Finding is a single reviewer finding from the model.
type Finding struct {
	Severity        string `json:"severity"`
	FileName        string `json:"fileName"`
	Section         string `json:"section"`
	Issue           string `json:"issue"`
	ActionType      string `json:"actionType"`
	ExistingText    string `json:"existingText,omitempty"`
	ReplacementText string `json:"replacementText,omitempty"`
	CodeReference   string `json:"codeReference,omitempty"`
}

// Result is the outcome of one review call.
type Result struct {
	Findings     []Finding     `json:"findings"`
	Summary      string        `json:"summary"`
	RawResponse  string        `json:"-"`
	Model        string        `json:"model"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	Elapsed      time.Duration `json:"-"`
}

// CountBySeverity returns how many findings carry the given severity.
func (r *Result) CountBySeverity(severity string) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == severity {
			n++
		}
	}
	return n
}

// ParseFindings extracts the narrative summary and the findings array
// from a raw model response. The prompt demands a prose summary
// followed by a bare JSON array; this parser tolerates markdown fences
// and stray text after the array.
//
// Malformed entries are skipped rather than failing the batch — a
// finding without a severity or an issue carries no reviewable signal.
func ParseFindings(raw string) (summary string, findings []Finding, err error) {
	cleaned := stripFences(raw)

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end == -1 || end <= start {
		return strings.TrimSpace(cleaned), nil, fmt.Errorf("no JSON findings array in model response")
	}

	summary = strings.TrimSpace(cleaned[:start])

	var decoded []Finding
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &decoded); err != nil {
		return summary, nil, fmt.Errorf("invalid findings JSON: %w", err)
	}

	for _, f := range decoded {
		f.Severity = strings.ToUpper(strings.TrimSpace(f.Severity))
		f.Issue = strings.TrimSpace(f.Issue)
		if f.Severity == "" || f.Issue == "" {
			continue
		}
		findings = append(findings, f)
	}
	return summary, findings, nil
}

// stripFences removes surrounding markdown code fences if the model
// wrapped its output despite the prompt.
func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if !strings.Contains(cleaned, "```") {
		return cleaned
	}

	var out []string
	for _, line := range strings.Split(cleaned, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
