// Package editing merges parsed suggestion edits into a CVDocument.
//
// Every function here is pure: the input document is never mutated and a
// modified copy is returned. When nothing changes the input pointer itself is
// returned so callers can skip a re-render by comparing pointers.
package editing

import (
	"github.com/jonathan/cv-builder/internal/parsing"
	"github.com/jonathan/cv-builder/internal/types"
)

// Target identifies where an edit lands when the section holds a list of entries.
// The parser only knows the section; the caller supplies the entry.
type Target struct {
	Mode       types.Mode
	EntryIndex int // index into Experiences; negative means no entry selected
}

// NoEntry returns a Target that selects no list entry
func NoEntry(mode types.Mode) Target {
	return Target{Mode: mode, EntryIndex: -1}
}

// Entry returns a Target selecting the entry at index
func Entry(mode types.Mode, index int) Target {
	return Target{Mode: mode, EntryIndex: index}
}

// Outcome describes the result of applying one suggestion
type Outcome struct {
	Document       *types.CVDocument
	Suggestion     types.Suggestion
	Edit           types.ParsedEdit
	Applied        bool // edit was actionable and its target resolved
	Changed        bool // Document differs from the input document
	AlreadyApplied bool // suggestion carried applied=true and was skipped
	NeedsSave      bool // changed document in update mode, to be persisted by the caller
}

// Apply merges edit into doc and returns the resulting document.
//
//   - ReplaceText on summary or title overwrites that field.
//   - ReplaceText on experience overwrites only the description of the entry
//     selected by target; without a valid entry nothing changes.
//   - AddSkills appends values not already present, keeping existing order.
//   - NoOp returns doc itself.
func Apply(doc *types.CVDocument, edit types.ParsedEdit, target Target) *types.CVDocument {
	if doc == nil {
		return nil
	}

	switch edit.Kind {
	case types.EditReplaceText:
		return applyReplaceText(doc, edit, target)
	case types.EditAddSkills:
		return applyAddSkills(doc, edit.Values)
	default:
		return doc
	}
}

// ApplySuggestion parses s and applies the result to doc. A suggestion already
// marked applied is skipped. The returned suggestion is marked applied only
// when the edit was actionable and its target resolved.
func ApplySuggestion(doc *types.CVDocument, s types.Suggestion, target Target) Outcome {
	if s.Applied {
		return Outcome{
			Document:       doc,
			Suggestion:     s,
			Edit:           types.NoOpEdit(),
			AlreadyApplied: true,
		}
	}

	edit := parsing.ParseSuggestion(s)
	out := Outcome{
		Document:   doc,
		Suggestion: s,
		Edit:       edit,
	}
	if doc == nil || edit.IsNoOp() || !resolves(doc, edit, target) {
		return out
	}

	out.Document = Apply(doc, edit, target)
	out.Applied = true
	out.Changed = out.Document != doc
	out.NeedsSave = out.Changed && target.Mode == types.ModeUpdate
	out.Suggestion.Applied = true
	return out
}

// resolves reports whether edit has somewhere to land in doc
func resolves(doc *types.CVDocument, edit types.ParsedEdit, target Target) bool {
	switch edit.Kind {
	case types.EditReplaceText:
		switch edit.Section {
		case types.SectionSummary, types.SectionTitle:
			return true
		case types.SectionExperience:
			return validEntry(target.EntryIndex, len(doc.Experiences))
		default:
			return false
		}
	case types.EditAddSkills:
		return len(edit.Values) > 0
	default:
		return false
	}
}

func applyReplaceText(doc *types.CVDocument, edit types.ParsedEdit, target Target) *types.CVDocument {
	switch edit.Section {
	case types.SectionSummary:
		if doc.PersonalInfo.Summary == edit.NewValue {
			return doc
		}
		out := deepCopyDocument(doc)
		out.PersonalInfo.Summary = edit.NewValue
		return out

	case types.SectionTitle:
		if doc.Title == edit.NewValue {
			return doc
		}
		out := deepCopyDocument(doc)
		out.Title = edit.NewValue
		return out

	case types.SectionExperience:
		i := target.EntryIndex
		if !validEntry(i, len(doc.Experiences)) || doc.Experiences[i].Description == edit.NewValue {
			return doc
		}
		out := deepCopyDocument(doc)
		out.Experiences[i].Description = edit.NewValue
		return out

	default:
		return doc
	}
}

func applyAddSkills(doc *types.CVDocument, values []string) *types.CVDocument {
	seen := make(map[string]bool, len(doc.Skills)+len(values))
	for _, s := range doc.Skills {
		seen[s] = true
	}

	added := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		added = append(added, v)
	}

	if len(added) == 0 {
		return doc
	}

	out := deepCopyDocument(doc)
	out.Skills = append(out.Skills, added...)
	return out
}

func validEntry(index, length int) bool {
	return index >= 0 && index < length
}
