//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultExportFilename is used when an export request carries no filename
const DefaultExportFilename = "CV.pdf"

// ExportRequest is the body of an HTML-to-PDF export call
type ExportRequest struct {
	HTML     string `json:"html" validate:"required"`
	Filename string `json:"filename,omitempty" validate:"omitempty,max=255"`
}

// Validate validates the ExportRequest using the validator.
func (r *ExportRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ResolvedFilename returns the requested filename with path separators removed,
// falling back to DefaultExportFilename.
func (r *ExportRequest) ResolvedFilename() string {
	name := strings.TrimSpace(r.Filename)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return DefaultExportFilename
	}
	return name
}
