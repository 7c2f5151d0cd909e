// Package parsing extracts structured edits from free-text AI suggestions.
//
// Parsing never fails: text without actionable content yields a NoOp edit.
package parsing

import (
	"strings"

	"github.com/jonathan/cv-builder/internal/types"
)

// BeforeAfter holds the values found on "Before:" and "After:" lines.
// HasAfter is true even when the After value strips to an empty string.
type BeforeAfter struct {
	Before    string
	After     string
	HasBefore bool
	HasAfter  bool
}

// Parse turns raw suggestion text targeting section into a ParsedEdit.
//
// Scalar sections take the After value when present, otherwise the raw text verbatim.
// The skills section takes every item found by categorical or comma-separated extraction,
// reading from the After value when one exists.
func Parse(rawText string, section types.Section) types.ParsedEdit {
	pair := ExtractBeforeAfter(rawText)

	if section == types.SectionSkills {
		if pair.HasBefore && !pair.HasAfter {
			return types.NoOpEdit()
		}
		payload := rawText
		if pair.HasAfter {
			payload = pair.After
		}
		items := ExtractSkills(payload)
		if len(items) == 0 {
			return types.NoOpEdit()
		}
		return types.AddSkillsEdit(items)
	}

	if !section.IsScalar() {
		return types.NoOpEdit()
	}

	if pair.HasAfter {
		return types.ReplaceTextEdit(section, pair.After, pair.Before)
	}

	// A Before line without its After counterpart carries nothing to apply
	if pair.HasBefore || strings.TrimSpace(rawText) == "" {
		return types.NoOpEdit()
	}

	return types.ReplaceTextEdit(section, rawText, "")
}

// ParseSuggestion parses a suggestion record, normalizing its target section tag first.
func ParseSuggestion(s types.Suggestion) types.ParsedEdit {
	section, ok := types.ParseSection(string(s.TargetSection))
	if !ok {
		return types.NoOpEdit()
	}
	return Parse(s.RawText, section)
}

// ExtractBeforeAfter scans rawText line by line for "Before:" and "After:" prefixes
// (case-insensitive, after trimming). The first occurrence of each wins.
func ExtractBeforeAfter(rawText string) BeforeAfter {
	var result BeforeAfter

	for _, line := range strings.Split(rawText, "\n") {
		trimmed := strings.TrimSpace(line)

		if !result.HasBefore {
			if rest, ok := cutPrefixFold(trimmed, "before:"); ok {
				result.Before = stripQuotes(strings.TrimSpace(rest))
				result.HasBefore = true
				continue
			}
		}

		if !result.HasAfter {
			if rest, ok := cutPrefixFold(trimmed, "after:"); ok {
				result.After = stripQuotes(strings.TrimSpace(rest))
				result.HasAfter = true
			}
		}

		if result.HasBefore && result.HasAfter {
			break
		}
	}

	return result
}

// cutPrefixFold is strings.CutPrefix with ASCII case folding on the prefix
func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// stripQuotes removes one matching pair of leading/trailing ' or " characters
func stripQuotes(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first == last && (first == '\'' || first == '"') {
		return s[1 : len(s)-1]
	}
	return s
}
