package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/types"
)

// Violation types reported by ValidateDocument
const (
	ViolationMissingCompany  = "missing_company"
	ViolationMissingSchool   = "missing_school"
	ViolationDuplicateSkill  = "duplicate_skill"
	ViolationEmptySkill      = "empty_skill"
	ViolationUnknownTemplate = "unknown_template"
	ViolationUnknownTheme    = "unknown_theme"
	ViolationEndWithoutStart = "end_without_start"
	ViolationInvalidField    = "invalid_field"
)

// ValidateDocument checks doc for problems that would make it render badly
// or fail a save. Errors block rendering; warnings are informational.
func ValidateDocument(doc *types.CVDocument) *types.Violations {
	result := &types.Violations{Violations: []types.Violation{}}
	if doc == nil {
		result.Violations = append(result.Violations, types.Violation{
			Type:     ViolationInvalidField,
			Severity: types.SeverityError,
			Details:  "document is missing",
		})
		return result
	}

	add := func(v types.Violation) { result.Violations = append(result.Violations, v) }

	for i, exp := range doc.Experiences {
		if strings.TrimSpace(exp.Company) == "" {
			add(entryViolation(ViolationMissingCompany, types.SeverityError, types.SectionExperience, i, "experience entry has no company"))
		}
		if strings.TrimSpace(exp.StartDate) == "" && strings.TrimSpace(exp.EndDate) != "" {
			add(entryViolation(ViolationEndWithoutStart, types.SeverityWarning, types.SectionExperience, i, "experience entry has an end date but no start date"))
		}
	}

	for i, edu := range doc.Educations {
		if strings.TrimSpace(edu.School) == "" {
			add(entryViolation(ViolationMissingSchool, types.SeverityError, types.SectionEducation, i, "education entry has no school"))
		}
		if strings.TrimSpace(edu.StartDate) == "" && strings.TrimSpace(edu.EndDate) != "" {
			add(entryViolation(ViolationEndWithoutStart, types.SeverityWarning, types.SectionEducation, i, "education entry has an end date but no start date"))
		}
	}

	seen := make(map[string]bool, len(doc.Skills))
	for i, skill := range doc.Skills {
		switch {
		case strings.TrimSpace(skill) == "":
			add(entryViolation(ViolationEmptySkill, types.SeverityWarning, types.SectionSkills, i, "skill is blank"))
		case seen[skill]:
			add(entryViolation(ViolationDuplicateSkill, types.SeverityError, types.SectionSkills, i, fmt.Sprintf("skill %q appears more than once", skill)))
		}
		seen[skill] = true
	}

	if doc.TemplateID != "" {
		if _, err := rendering.Lookup(doc.TemplateID); err != nil {
			add(types.Violation{
				Type:     ViolationUnknownTemplate,
				Severity: types.SeverityError,
				Details:  fmt.Sprintf("template %q is not registered", doc.TemplateID),
			})
		}
	}

	if doc.ColorTheme != "" {
		if _, ok := rendering.ResolveTheme(doc.ColorTheme); !ok {
			add(types.Violation{
				Type:     ViolationUnknownTheme,
				Severity: types.SeverityWarning,
				Details:  fmt.Sprintf("color theme %q is not recognized; %q is used instead", doc.ColorTheme, rendering.DefaultThemeKey),
			})
		}
	}

	// struct tags cover the same entry rules; anything they catch beyond the
	// checks above is reported generically
	if err := doc.Validate(); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				if coveredTag(fe) {
					continue
				}
				add(types.Violation{
					Type:     ViolationInvalidField,
					Severity: types.SeverityError,
					Details:  fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()),
				})
			}
		}
	}

	return result
}

// coveredTag reports whether a struct-tag failure duplicates a dedicated check
func coveredTag(fe validator.FieldError) bool {
	switch {
	case fe.Tag() == "required" && (fe.Field() == "Company" || fe.Field() == "School"):
		return true
	case fe.Tag() == "unique" && fe.Field() == "Skills":
		return true
	default:
		return false
	}
}

func entryViolation(kind, severity string, section types.Section, index int, details string) types.Violation {
	i := index
	return types.Violation{
		Type:     kind,
		Severity: severity,
		Details:  details,
		Section:  section,
		Index:    &i,
	}
}
