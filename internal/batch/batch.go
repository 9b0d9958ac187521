// Package batch merges preprocessed files into one bounded analysis
// unit and classifies it against the configured token capacity.
package batch

import (
	"fmt"
	"strings"

	"github.com/specwarden/specwarden/internal/pipeline"
	"github.com/specwarden/specwarden/internal/tokens"
)

// Limits holds the capacity thresholds in estimated tokens. Soft warns,
// hard is the ceiling beyond which the batch must not be sent. Values
// come from caller configuration; the defaults mirror a 200k context
// with a 50k reserve for the system prompt and response.
type Limits struct {
	Soft int
	Hard int
}

// DefaultLimits returns the stock soft/hard thresholds.
func DefaultLimits() Limits {
	return Limits{Soft: 150_000, Hard: 200_000}
}

// Decision is the aggregate verdict for a selected file set. It only
// classifies; whether to proceed, warn, or force deselection is the
// caller's call.
type Decision struct {
	Files             []string `json:"files"`
	CombinedText      string   `json:"-"`
	AggregateTokens   int      `json:"aggregate_tokens"`
	SoftExceeded      bool     `json:"soft_exceeded"`
	HardExceeded      bool     `json:"hard_exceeded"`
	CapacityRemaining int      `json:"capacity_remaining"`
}

// Marker returns the boundary line inserted before each file's text in
// the combined blob. The analysis collaborator parses this exact format
// to attribute findings back to a file, so it must not change shape:
//
//	===== FILE: <name> =====
func Marker(fileName string) string {
	return "===== FILE: " + fileName + " ====="
}

// Assemble concatenates the cleaned text of the selected files, in the
// given order, with a boundary marker per file, and measures the result
// against the limits.
//
// The selection order is preserved exactly — reordering would change
// which findings map to which boundary marker. The aggregate count is
// computed over the full concatenation, never by summing per-file
// counts, so estimator rounding does not compound.
//
// An empty selection or a duplicate file name is a caller contract
// violation and is rejected; silently dropping a file would change what
// gets reviewed.
func Assemble(files []pipeline.FileText, limits Limits, est tokens.Estimator) (Decision, error) {
	if len(files) == 0 {
		return Decision{}, fmt.Errorf("no files selected")
	}

	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if seen[f.FileName] {
			return Decision{}, fmt.Errorf("duplicate file name %q in selection", f.FileName)
		}
		seen[f.FileName] = true
	}

	blocks := make([]string, 0, len(files))
	names := make([]string, 0, len(files))
	for _, f := range files {
		blocks = append(blocks, Marker(f.FileName)+"\n"+f.CleanedText)
		names = append(names, f.FileName)
	}
	combined := strings.Join(blocks, "\n\n")

	aggregate := est.Estimate(combined)

	return Decision{
		Files:             names,
		CombinedText:      combined,
		AggregateTokens:   aggregate,
		SoftExceeded:      limits.Soft > 0 && aggregate > limits.Soft,
		HardExceeded:      limits.Hard > 0 && aggregate > limits.Hard,
		CapacityRemaining: limits.Hard - aggregate,
	}, nil
}
