//nolint:revive // types is a standard Go package name pattern
package types

// Violation severities
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Violation represents a single document check failure
type Violation struct {
	Type     string  `json:"type"`
	Severity string  `json:"severity"`
	Details  string  `json:"details"`
	Section  Section `json:"section,omitempty"`
	Index    *int    `json:"index,omitempty"` // entry index within the section, if any
}

// Violations represents a collection of document check failures
type Violations struct {
	Violations []Violation `json:"violations"`
}

// HasErrors reports whether any violation has error severity
func (v *Violations) HasErrors() bool {
	if v == nil {
		return false
	}
	for _, violation := range v.Violations {
		if violation.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity violations
func (v *Violations) Errors() []Violation {
	if v == nil {
		return nil
	}
	var out []Violation
	for _, violation := range v.Violations {
		if violation.Severity == SeverityError {
			out = append(out, violation)
		}
	}
	return out
}
