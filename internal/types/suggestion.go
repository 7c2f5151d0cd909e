// Package types provides type definitions for structured data used throughout the cv-builder system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// SuggestionKind classifies an AI suggestion
type SuggestionKind string

const (
	KindStructuralIssue SuggestionKind = "structural_issue"
	KindQualityWarning  SuggestionKind = "quality_warning"
	KindEnhancementTip  SuggestionKind = "enhancement_tip"
)

// Section names a sub-region of a CVDocument that a suggestion targets
type Section string

const (
	SectionSummary    Section = "summary"
	SectionExperience Section = "experience"
	SectionEducation  Section = "education"
	SectionSkills     Section = "skills"
	SectionTitle      Section = "title"
)

// KnownSections lists every recognized target section in a stable order
var KnownSections = []Section{
	SectionSummary,
	SectionExperience,
	SectionEducation,
	SectionSkills,
	SectionTitle,
}

// ParseSection normalizes a free-form section tag ("Summary", " skills ") into a Section.
// The second return value is false for unrecognized tags.
func ParseSection(tag string) (Section, bool) {
	normalized := Section(strings.ToLower(strings.TrimSpace(tag)))
	for _, s := range KnownSections {
		if s == normalized {
			return s, true
		}
	}
	return normalized, false
}

// IsScalar reports whether the section maps onto a single free-text field
// that a ReplaceText edit can overwrite.
func (s Section) IsScalar() bool {
	switch s {
	case SectionSummary, SectionExperience, SectionTitle:
		return true
	default:
		return false
	}
}

// Suggestion is an advisory improvement note produced by the AI collaborator.
// It is never persisted as part of the CVDocument.
type Suggestion struct {
	ID            string         `json:"id"`
	Kind          SuggestionKind `json:"kind,omitempty" validate:"omitempty,oneof=structural_issue quality_warning enhancement_tip"`
	TargetSection Section        `json:"target_section" validate:"required"`
	RawText       string         `json:"raw_text"`
	Applied       bool           `json:"applied"`
}

// Validate validates the Suggestion using the validator.
func (s *Suggestion) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}
