package preprocess

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// blankRunRe matches runs of newlines that leave three or more blank
// lines between content; they collapse to exactly two.
var blankRunRe = regexp.MustCompile(`\n{4,}`)

// invisibleReplacer strips zero-width and invisible formatting marks
// that word-processor extraction tends to leak into plain text.
var invisibleReplacer = strings.NewReplacer(
	"\u200b", "", // zero width space
	"\u200c", "", // zero width non-joiner
	"\u200d", "", // zero width joiner
	"\u2060", "", // word joiner
	"\ufeff", "", // BOM / zero width no-break space
	"\u00ad", "", // soft hyphen
)

// Normalize canonicalizes raw extracted text so the rule catalogue never
// has to special-case formatting noise. It is total and idempotent:
// Normalize(Normalize(x)) == Normalize(x) for all x.
//
// Steps, in order: line-ending unification to \n, invisible marker
// removal, Unicode NFC, per-line trailing whitespace strip, and
// blank-line collapse (3+ consecutive blank lines become exactly 2).
// NFC runs after mark removal: deleting a mark between a base letter
// and a combining accent exposes a sequence NFC still has to compose.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = invisibleReplacer.Replace(s)
	s = norm.NFC.String(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	s = strings.Join(lines, "\n")

	return blankRunRe.ReplaceAllString(s, "\n\n\n")
}

// collapseRemovalGaps re-applies the Normalizer's blank-line rule after
// span removal and drops the fully blank edges removal leaves behind.
// Shared by Strip so cleaned output stays in normalized form.
func collapseRemovalGaps(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	s = strings.Join(lines, "\n")
	s = blankRunRe.ReplaceAllString(s, "\n\n\n")
	return strings.Trim(s, "\n")
}
