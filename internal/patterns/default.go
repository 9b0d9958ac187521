package patterns

// Default returns the built-in rule catalogue for mechanical/plumbing
// specification sections. Jurisdictions that need different rules load
// their own catalogue from YAML instead (see LoadFile).
//
// Remove rules run lowest priority first; block rules sit below the
// separator rule so a separator line inside a copyright or specifier-note
// block cannot fragment it.
func Default() Catalogue {
	cat, err := NewCatalogue(defaultRules())
	if err != nil {
		// The built-in rules are static; a compile failure here is a
		// programming defect, not a runtime condition.
		panic("patterns: built-in catalogue invalid: " + err.Error())
	}
	return cat
}

func defaultRules() []Rule {
	return []Rule{
		// --- remove: editorial boilerplate ---
		{
			ID:       "specifier-note-block",
			Kind:     KindRemove,
			Category: CategorySpecifierNote,
			Match:    MatchBlock,
			Pattern:  `\[\s*(?i:note to specifier|specifier note|spec writer note)s?\b[^\]]*\]`,
			Priority: 10,
		},
		{
			ID:       "editor-note-block",
			Kind:     KindRemove,
			Category: CategorySpecifierNote,
			Match:    MatchBlock,
			Pattern:  `<\s*(?i:note to specifier|editor'?s note)\b[^>]*>`,
			Priority: 10,
		},
		{
			ID:       "copyright-block",
			Kind:     KindRemove,
			Category: CategoryCopyright,
			Match:    MatchBlock,
			// Interior is capped at 10 lines so a year line and a far-off
			// "all rights reserved" cannot claim the body between them.
			Pattern:  `(?i:copyright|\(c\)|©)\s*(?:©\s*)?\d{4}[^\n]*(?:\n[^\n]*){0,10}?(?i:all rights reserved)\.?`,
			Priority: 20,
		},
		{
			ID:       "copyright-line",
			Kind:     KindRemove,
			Category: CategoryCopyright,
			Match:    MatchLine,
			Pattern:  `^[^\n]*(?i:copyright)\s*(?:©|\(c\))?\s*\d{4}[^\n]*$`,
			Priority: 25,
		},
		{
			ID:       "separator-line",
			Kind:     KindRemove,
			Category: CategorySeparator,
			Match:    MatchLine,
			Pattern:  `^[ \t]*[*=~#_-]{10,}[ \t]*$`,
			Priority: 30,
		},
		{
			ID:       "page-number-line",
			Kind:     KindRemove,
			Category: CategoryPageNumber,
			Match:    MatchLine,
			Pattern:  `^[ \t]*(?:(?i:page)\s+\d+(?:\s+(?i:of)\s+\d+)?|\d+\s*/\s*\d+|-\s*\d+\s*-)[ \t]*$`,
			Priority: 40,
		},
		{
			ID:       "revision-mark-line",
			Kind:     KindRemove,
			Category: CategoryRevisionMark,
			Match:    MatchLine,
			Pattern:  `^[ \t]*(?i:rev(?:ision)?\.?\s*(?:no\.?\s*)?[A-Z0-9]+\s*[-–:]\s*\d{1,2}/\d{1,2}/\d{2,4})[ \t]*$`,
			Priority: 40,
		},
		{
			ID:       "end-of-section-line",
			Kind:     KindRemove,
			Category: CategoryEndOfSection,
			Match:    MatchLine,
			Pattern:  `^[ \t]*\**\s*(?i:end of section)(?:\s+[\d .-]+)?\s*\**[ \t]*$`,
			Priority: 50,
		},

		// --- alert: LEED references (kept in text, flagged) ---
		// The generic rule swallows an optional "credit XX-N" tail so a
		// credit citation reads as one alert, not a bare-LEED overlap.
		{ID: "leed-ref", Kind: KindAlert, Category: CategoryLeed, Match: MatchLine, Pattern: `(?i)\bLEED\b(?:\s+credit\s+[A-Z]{1,4}[-\s]?\d+(?:\.\d+)?\b)?`, Priority: 10},
		{ID: "leed-nc-ref", Kind: KindAlert, Category: CategoryLeed, Match: MatchLine, Pattern: `(?i)\bLEED[-\s]?NC\b`, Priority: 10},
		{ID: "leed-ci-ref", Kind: KindAlert, Category: CategoryLeed, Match: MatchLine, Pattern: `(?i)\bLEED[-\s]?CI\b`, Priority: 10},
		{ID: "leed-eb-ref", Kind: KindAlert, Category: CategoryLeed, Match: MatchLine, Pattern: `(?i)\bLEED[-\s]?EB\b`, Priority: 10},
		{ID: "usgbc-ref", Kind: KindAlert, Category: CategoryLeed, Match: MatchLine, Pattern: `(?i)\bUSGBC\b`, Priority: 10},
		{ID: "green-building-ref", Kind: KindAlert, Category: CategoryLeed, Match: MatchLine, Pattern: `(?i)\bGreen\s+Building\b`, Priority: 10},

		// --- alert: unresolved placeholders / editorial markers ---
		{ID: "insert-placeholder", Kind: KindAlert, Category: CategoryPlaceholder, Match: MatchLine, Pattern: `\[\s*(?i:INSERT)[^\]]*\]`, Priority: 20},
		{ID: "verify-placeholder", Kind: KindAlert, Category: CategoryPlaceholder, Match: MatchLine, Pattern: `\[\s*(?i:VERIFY)[^\]]*\]`, Priority: 20},
		{ID: "edit-placeholder", Kind: KindAlert, Category: CategoryPlaceholder, Match: MatchLine, Pattern: `\[\s*(?i:EDIT)[^\]]*\]`, Priority: 20},
		{ID: "select-placeholder", Kind: KindAlert, Category: CategoryPlaceholder, Match: MatchLine, Pattern: `\[\s*(?i:SELECT)[^\]]*\]`, Priority: 20},
		{ID: "coordinate-placeholder", Kind: KindAlert, Category: CategoryPlaceholder, Match: MatchLine, Pattern: `\[\s*(?i:COORDINATE)[^\]]*\]`, Priority: 20},
		{ID: "tbd-placeholder", Kind: KindAlert, Category: CategoryPlaceholder, Match: MatchLine, Pattern: `\[\s*(?i:TBD|TO\s+BE\s+DETERMINED)[^\]]*\]`, Priority: 20},
		{ID: "na-placeholder", Kind: KindAlert, Category: CategoryPlaceholder, Match: MatchLine, Pattern: `\[\s*(?i:N/A)[^\]]*\]`, Priority: 20},
		{ID: "option-placeholder", Kind: KindAlert, Category: CategoryPlaceholder, Match: MatchLine, Pattern: `\[\s*(?i:OPTION)[^\]]*\]`, Priority: 20},
		{ID: "verify-tag", Kind: KindAlert, Category: CategoryPlaceholder, Match: MatchLine, Pattern: `<\s*(?i:VERIFY)[^>]*>`, Priority: 30},
		{ID: "edit-tag", Kind: KindAlert, Category: CategoryPlaceholder, Match: MatchLine, Pattern: `<\s*(?i:EDIT)[^>]*>`, Priority: 30},
		{ID: "insert-tag", Kind: KindAlert, Category: CategoryPlaceholder, Match: MatchLine, Pattern: `<\s*(?i:INSERT)[^>]*>`, Priority: 30},
		{ID: "underscore-placeholder", Kind: KindAlert, Category: CategoryPlaceholder, Match: MatchLine, Pattern: `_{3,}`, Priority: 40},
		{ID: "ellipsis-placeholder", Kind: KindAlert, Category: CategoryPlaceholder, Match: MatchLine, Pattern: `\[\s*\.\.\.\s*\]`, Priority: 40},
	}
}
