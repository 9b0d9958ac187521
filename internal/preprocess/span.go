// Package preprocess implements the text transforms that run between
// document extraction and batch assembly: normalization, boilerplate
// stripping, and alert scanning.
//
// All three transforms are pure functions of their input text plus the
// rule catalogue. They never fail: any input, including empty text or
// text with no matches, yields a well-defined (possibly empty) result.
package preprocess

import (
	"strings"

	"github.com/specwarden/specwarden/internal/patterns"
)

// Span is one located, rule-attributed match. Start and End are byte
// offsets into the text the producing transform received: for removed
// spans that is the normalized text (pre-removal), for alerts the
// cleaned text.
type Span struct {
	Start       int               `json:"start"`
	End         int               `json:"end"`
	RuleID      string            `json:"rule_id"`
	Category    patterns.Category `json:"category"`
	MatchedText string            `json:"matched_text"`
	Context     string            `json:"context,omitempty"`
}

// contextRadius is how many bytes of surrounding text an alert carries
// for human review, clamped to the text boundaries.
const contextRadius = 40

// contextExcerpt returns the flattened text around [start, end).
func contextExcerpt(text string, start, end int) string {
	lo := start - contextRadius
	if lo < 0 {
		lo = 0
	}
	hi := end + contextRadius
	if hi > len(text) {
		hi = len(text)
	}
	// Don't split multi-byte runes at the window edges.
	for lo > 0 && !isRuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !isRuneStart(text[hi]) {
		hi++
	}
	excerpt := strings.ReplaceAll(text[lo:hi], "\n", " ")
	return strings.TrimSpace(excerpt)
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}
