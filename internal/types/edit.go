//nolint:revive // types is a standard Go package name pattern
package types

// EditKind tags the ParsedEdit variant
type EditKind string

const (
	EditNoOp        EditKind = "noop"
	EditReplaceText EditKind = "replace_text"
	EditAddSkills   EditKind = "add_skills"
)

// ParsedEdit is the structured result of interpreting a suggestion's raw text.
// Only the fields belonging to Kind are meaningful:
//   - EditReplaceText: Section, NewValue (Before is informational)
//   - EditAddSkills: Values
//   - EditNoOp: none
type ParsedEdit struct {
	Kind     EditKind `json:"kind"`
	Section  Section  `json:"section,omitempty"`
	NewValue string   `json:"new_value,omitempty"`
	Before   string   `json:"before,omitempty"`
	Values   []string `json:"values,omitempty"`
}

// NoOpEdit returns the edit produced when no actionable content was found
func NoOpEdit() ParsedEdit {
	return ParsedEdit{Kind: EditNoOp}
}

// ReplaceTextEdit returns an edit replacing a scalar section wholesale
func ReplaceTextEdit(section Section, newValue, before string) ParsedEdit {
	return ParsedEdit{
		Kind:     EditReplaceText,
		Section:  section,
		NewValue: newValue,
		Before:   before,
	}
}

// AddSkillsEdit returns an edit that unions values into the skill list
func AddSkillsEdit(values []string) ParsedEdit {
	return ParsedEdit{
		Kind:    EditAddSkills,
		Section: SectionSkills,
		Values:  values,
	}
}

// IsNoOp reports whether the edit carries no actionable content
func (e ParsedEdit) IsNoOp() bool {
	return e.Kind == EditNoOp || e.Kind == ""
}

// Mode says whether the CV being edited is a new draft or a persisted record
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

// Valid reports whether m is a recognized mode
func (m Mode) Valid() bool {
	return m == ModeCreate || m == ModeUpdate
}
