package preprocess

import (
	"github.com/specwarden/specwarden/internal/patterns"
)

// Scan applies every alert-kind rule to cleaned (already-stripped) text
// and returns the alert spans. Alerts run against cleaned text so they
// reflect what actually reaches the analysis collaborator, not
// boilerplate that was already discarded.
//
// Unlike Strip, overlapping matches from different rules are all kept:
// one line can legitimately trigger both a LEED alert and a placeholder
// alert. Only exact (RuleID, Start, End) duplicates are dropped. The
// scanned text is never modified.
func Scan(cleaned string, cat patterns.Catalogue) []Span {
	var alerts []Span
	seen := make(map[alertKey]bool)

	for _, rule := range cat.AlertRules() {
		for _, loc := range rule.Regexp().FindAllStringIndex(cleaned, -1) {
			start, end := loc[0], loc[1]
			if start == end {
				continue
			}
			key := alertKey{rule.ID, start, end}
			if seen[key] {
				continue
			}
			seen[key] = true
			alerts = append(alerts, Span{
				Start:       start,
				End:         end,
				RuleID:      rule.ID,
				Category:    rule.Category,
				MatchedText: cleaned[start:end],
				Context:     contextExcerpt(cleaned, start, end),
			})
		}
	}

	return alerts
}

type alertKey struct {
	ruleID     string
	start, end int
}
