// Package patterns holds the rule catalogue that drives boilerplate
// stripping and alert detection for specification review.
//
// Two rule kinds exist:
//   - remove: boilerplate that is cut from the text before review
//     (specifier notes, copyright blocks, separators, page numbers)
//   - alert: content that stays in the text but is flagged for a human
//     (LEED references, unresolved placeholders)
//
// The catalogue is an explicit immutable value passed into every pipeline
// call, never a package-level singleton, so jurisdictions can swap their
// own rule set in via a YAML file.
package patterns

import (
	"fmt"
	"regexp"
	"sort"
)

// Kind says what happens to matched text.
type Kind string

const (
	KindRemove Kind = "remove"
	KindAlert  Kind = "alert"
)

// Category classifies what a rule detects.
type Category string

const (
	CategorySpecifierNote Category = "specifier_note"
	CategoryCopyright     Category = "copyright"
	CategorySeparator     Category = "separator"
	CategoryPageNumber    Category = "page_number"
	CategoryRevisionMark  Category = "revision_mark"
	CategoryEndOfSection  Category = "end_of_section"
	CategoryLeed          Category = "leed"
	CategoryPlaceholder   Category = "placeholder"
)

// MatchKind selects how a rule's pattern is compiled.
type MatchKind string

const (
	// MatchLiteral matches the pattern as a verbatim substring.
	MatchLiteral MatchKind = "literal"
	// MatchLine matches a regular expression within single lines
	// (multi-line mode, `.` never crosses a newline).
	MatchLine MatchKind = "line"
	// MatchBlock matches a regular expression across line boundaries
	// (`.` matches newlines), for bracketed blocks that span lines.
	MatchBlock MatchKind = "block"
)

// Rule is one immutable matcher descriptor. Lower Priority runs first;
// rules with equal priority keep catalogue order.
type Rule struct {
	ID       string    `yaml:"id"`
	Kind     Kind      `yaml:"kind"`
	Category Category  `yaml:"category"`
	Match    MatchKind `yaml:"match"`
	Pattern  string    `yaml:"pattern"`
	Priority int       `yaml:"priority"`

	re *regexp.Regexp
}

// Regexp returns the compiled matcher. Validate must have succeeded first.
func (r *Rule) Regexp() *regexp.Regexp {
	return r.re
}

func (r *Rule) compile() error {
	if r.ID == "" {
		return fmt.Errorf("rule with empty id")
	}
	switch r.Kind {
	case KindRemove, KindAlert:
	default:
		return fmt.Errorf("rule %s: unknown kind %q", r.ID, r.Kind)
	}

	var expr string
	switch r.Match {
	case MatchLiteral:
		expr = regexp.QuoteMeta(r.Pattern)
	case MatchLine:
		expr = "(?m)" + r.Pattern
	case MatchBlock:
		expr = "(?ms)" + r.Pattern
	default:
		return fmt.Errorf("rule %s: unknown match kind %q", r.ID, r.Match)
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("rule %s: compiling pattern: %w", r.ID, err)
	}
	r.re = re
	return nil
}

// Catalogue is an ordered, validated set of rules.
type Catalogue struct {
	rules []Rule
}

// NewCatalogue builds a catalogue from the given rules, compiling every
// matcher. A malformed pattern or a duplicate (kind, id) pair is a
// configuration defect and must stop the caller before any file is
// processed.
func NewCatalogue(rules []Rule) (Catalogue, error) {
	seen := make(map[string]bool, len(rules))
	out := make([]Rule, len(rules))
	copy(out, rules)

	for i := range out {
		if err := out[i].compile(); err != nil {
			return Catalogue{}, err
		}
		key := string(out[i].Kind) + "/" + out[i].ID
		if seen[key] {
			return Catalogue{}, fmt.Errorf("duplicate %s rule id %q", out[i].Kind, out[i].ID)
		}
		seen[key] = true
	}

	return Catalogue{rules: out}, nil
}

// Len returns the total rule count.
func (c Catalogue) Len() int { return len(c.rules) }

// Rules returns a copy of all rules in catalogue order.
func (c Catalogue) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// RemoveRules returns the remove-kind rules sorted by ascending priority.
// Equal priorities keep catalogue order (stable sort).
func (c Catalogue) RemoveRules() []Rule {
	return c.byKind(KindRemove)
}

// AlertRules returns the alert-kind rules sorted by ascending priority.
func (c Catalogue) AlertRules() []Rule {
	return c.byKind(KindAlert)
}

func (c Catalogue) byKind(k Kind) []Rule {
	var out []Rule
	for _, r := range c.rules {
		if r.Kind == k {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}
