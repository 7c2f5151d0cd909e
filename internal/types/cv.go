// Package types provides type definitions for structured data used throughout the cv-builder system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// CVDocument is the structured résumé record that is edited, rendered and exported.
// Timestamps are owned by the persistence layer and are never written here.
type CVDocument struct {
	ID           string       `json:"id,omitempty"`
	OwnerID      *string      `json:"owner_id,omitempty"` // nil while unsaved
	Title        string       `json:"title"`
	PersonalInfo PersonalInfo `json:"personal_info"`
	Experiences  []Experience `json:"experiences" validate:"dive"`
	Educations   []Education  `json:"educations" validate:"dive"`
	Skills       []string     `json:"skills" validate:"unique"`
	IsPublic     bool         `json:"is_public"`
	TemplateID   string       `json:"template_id"`
	ColorTheme   string       `json:"color_theme,omitempty"`
	CreatedAt    *time.Time   `json:"created_at,omitempty"`
	UpdatedAt    *time.Time   `json:"updated_at,omitempty"`
}

// PersonalInfo holds the contact block shown at the top of every template
type PersonalInfo struct {
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Summary  string `json:"summary,omitempty"`
	Avatar   string `json:"avatar,omitempty"` // URL or data:image URI
}

// Experience is one work history entry. Slice order is display order.
type Experience struct {
	Company     string `json:"company" validate:"required"`
	Position    string `json:"position,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Description string `json:"description,omitempty"`
}

// Education is one education entry. Slice order is display order.
type Education struct {
	School    string `json:"school" validate:"required"`
	Degree    string `json:"degree,omitempty"`
	Field     string `json:"field,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// HasSkill reports whether skill is already present (exact, case-sensitive match).
func (d *CVDocument) HasSkill(skill string) bool {
	for _, s := range d.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// Validate validates the CVDocument struct tags using the validator.
func (d *CVDocument) Validate() error {
	validate := validator.New()
	return validate.Struct(d)
}
