package validation

import (
	"testing"

	"github.com/jonathan/cv-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDocument() *types.CVDocument {
	return &types.CVDocument{
		Title:        "CV",
		PersonalInfo: types.PersonalInfo{FullName: "Ada Lovelace"},
		Experiences:  []types.Experience{{Company: "Acme", StartDate: "2020"}},
		Educations:   []types.Education{{School: "MIT"}},
		Skills:       []string{"Go", "SQL"},
		TemplateID:   "template-2",
		ColorTheme:   "#336699",
	}
}

func violationTypes(v *types.Violations) []string {
	var out []string
	for _, violation := range v.Violations {
		out = append(out, violation.Type)
	}
	return out
}

func TestValidateDocument_Valid(t *testing.T) {
	result := ValidateDocument(validDocument())

	assert.Empty(t, result.Violations)
	assert.False(t, result.HasErrors())
}

func TestValidateDocument_Nil(t *testing.T) {
	assert.True(t, ValidateDocument(nil).HasErrors())
}

func TestValidateDocument_MissingCompanyAndSchool(t *testing.T) {
	doc := validDocument()
	doc.Experiences = append(doc.Experiences, types.Experience{Company: "  "})
	doc.Educations[0].School = ""

	result := ValidateDocument(doc)

	require.True(t, result.HasErrors())
	assert.ElementsMatch(t, []string{ViolationMissingCompany, ViolationMissingSchool}, violationTypes(result))

	for _, v := range result.Violations {
		if v.Type == ViolationMissingCompany {
			require.NotNil(t, v.Index)
			assert.Equal(t, 1, *v.Index)
			assert.Equal(t, types.SectionExperience, v.Section)
		}
	}
}

func TestValidateDocument_DuplicateSkill(t *testing.T) {
	doc := validDocument()
	doc.Skills = []string{"Go", "SQL", "Go"}

	result := ValidateDocument(doc)

	assert.Equal(t, []string{ViolationDuplicateSkill}, violationTypes(result))
	assert.Equal(t, 2, *result.Violations[0].Index)
}

func TestValidateDocument_UnknownTemplateIsError(t *testing.T) {
	doc := validDocument()
	doc.TemplateID = "template-42"

	result := ValidateDocument(doc)

	assert.True(t, result.HasErrors())
	assert.Equal(t, []string{ViolationUnknownTemplate}, violationTypes(result))
}

func TestValidateDocument_EmptyTemplateAllowed(t *testing.T) {
	doc := validDocument()
	doc.TemplateID = ""

	assert.Empty(t, ValidateDocument(doc).Violations)
}

func TestValidateDocument_UnknownThemeIsWarning(t *testing.T) {
	doc := validDocument()
	doc.ColorTheme = "sparkly"

	result := ValidateDocument(doc)

	assert.False(t, result.HasErrors())
	assert.Equal(t, []string{ViolationUnknownTheme}, violationTypes(result))
}

func TestValidateDocument_EndWithoutStartIsWarning(t *testing.T) {
	doc := validDocument()
	doc.Experiences[0] = types.Experience{Company: "Acme", EndDate: "2021"}

	result := ValidateDocument(doc)

	assert.False(t, result.HasErrors())
	assert.Equal(t, []string{ViolationEndWithoutStart}, violationTypes(result))
}
