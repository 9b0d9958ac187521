package preprocess

import (
	"sort"

	"github.com/specwarden/specwarden/internal/patterns"
)

// Strip applies every remove-kind rule to normalized text and returns
// the cleaned text plus the removed spans in detection order.
//
// Rules run in ascending priority; equal priorities keep catalogue
// order. Matching is first-match-wins within a pass: once a rule claims
// an offset range, later rules cannot claim anything overlapping it, so
// a low-priority separator rule cannot fragment a copyright block that
// a higher-priority block rule already owns.
//
// Span offsets point into the input normalized text (pre-removal), and
// MatchedText is exactly the substring at those offsets. After all
// claims, spans are cut highest-offset-first and the blank lines the
// cuts leave behind are collapsed with the Normalizer's blank-line rule.
//
// Strip is pure and total: no matches means cleaned == collapsed input
// and an empty span list.
func Strip(normalized string, cat patterns.Catalogue) (string, []Span) {
	var claimed []Span

	for _, rule := range cat.RemoveRules() {
		for _, loc := range rule.Regexp().FindAllStringIndex(normalized, -1) {
			start, end := loc[0], loc[1]
			if start == end {
				continue
			}
			if claimedOverlap(claimed, start, end) {
				continue
			}
			claimed = append(claimed, Span{
				Start:       start,
				End:         end,
				RuleID:      rule.ID,
				Category:    rule.Category,
				MatchedText: normalized[start:end],
			})
		}
	}

	if len(claimed) == 0 {
		return collapseRemovalGaps(normalized), nil
	}

	// Cut from the highest offset down so earlier offsets stay valid.
	byOffset := make([]Span, len(claimed))
	copy(byOffset, claimed)
	sort.Slice(byOffset, func(i, j int) bool {
		return byOffset[i].Start > byOffset[j].Start
	})

	cleaned := normalized
	for _, sp := range byOffset {
		cleaned = cleaned[:sp.Start] + cleaned[sp.End:]
	}

	return collapseRemovalGaps(cleaned), claimed
}

func claimedOverlap(spans []Span, start, end int) bool {
	for _, sp := range spans {
		if overlaps(sp.Start, sp.End, start, end) {
			return true
		}
	}
	return false
}
