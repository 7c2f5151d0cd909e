package parsing

import (
	"regexp"
	"strings"
)

// maxSkillWords bounds how many words an extracted item may have before it is
// treated as prose rather than a skill name.
const maxSkillWords = 4

// categoryHeader matches "Category Name:" at the start of a line or after a
// sentence break (". " or "; "). Periods inside names such as "Node.js" are not
// sentence breaks because they are not followed by whitespace.
var categoryHeader = regexp.MustCompile(`(?m)(?:^|[.;]\s+)\s*(?:[-*•]\s*)?([^:,.;\n]{1,60}):`)

// itemSeparator splits an item list
var itemSeparator = regexp.MustCompile(`[,;\n]`)

// sentenceBreak ends a category's item list; "Node.js" has no whitespace after its period
var sentenceBreak = regexp.MustCompile(`[.!?]\s+`)

// SkillCategory is one "Name: a, b, c" group found in suggestion text
type SkillCategory struct {
	Name  string
	Items []string
}

// ExtractSkillCategories finds every colon-delimited category in text and the
// items listed under it. Categories with no usable items are dropped.
func ExtractSkillCategories(text string) []SkillCategory {
	matches := categoryHeader.FindAllStringSubmatchIndex(text, -1)
	categories := make([]SkillCategory, 0, len(matches))

	for i, m := range matches {
		segmentEnd := len(text)
		if i+1 < len(matches) {
			segmentEnd = matches[i+1][0]
		}

		segment := text[m[1]:segmentEnd]
		if loc := sentenceBreak.FindStringIndex(segment); loc != nil {
			segment = segment[:loc[0]]
		}

		items, _ := splitItems(segment)
		if len(items) == 0 {
			continue
		}
		categories = append(categories, SkillCategory{
			Name:  strings.TrimSpace(text[m[2]:m[3]]),
			Items: items,
		})
	}

	return categories
}

// ExtractSkills flattens categorical listings into a deduplicated, order-stable
// list of skill names. Text without category headers is read as a plain
// comma-separated list, and only when every entry in it looks like a skill name.
func ExtractSkills(text string) []string {
	var items []string

	if categories := ExtractSkillCategories(text); len(categories) > 0 {
		for _, c := range categories {
			items = append(items, c.Items...)
		}
	} else if list, clean := splitItems(text); clean {
		items = list
	}

	return dedupe(items)
}

// splitItems splits a list segment and cleans each entry, dropping anything
// that reads like a sentence. clean is false when any entry was dropped that way.
func splitItems(segment string) (items []string, clean bool) {
	parts := itemSeparator.Split(segment, -1)
	items = make([]string, 0, len(parts))
	clean = true
	for _, p := range parts {
		item := cleanItem(p)
		if item == "" {
			continue
		}
		if len(strings.Fields(item)) > maxSkillWords || strings.ContainsAny(item, "!?") {
			clean = false
			continue
		}
		items = append(items, item)
	}
	return items, clean
}

func cleanItem(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "-*• ")
	s = strings.TrimSpace(strings.TrimRight(s, ". "))
	s = stripQuotes(s)
	for _, conj := range []string{"and ", "or "} {
		if rest, ok := cutPrefixFold(s, conj); ok {
			s = strings.TrimSpace(rest)
		}
	}
	return s
}

// dedupe keeps the first occurrence of each exact (case-sensitive) value
func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
