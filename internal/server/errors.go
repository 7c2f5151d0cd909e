// Package server provides the HTTP REST API for rendering and exporting CVs.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/schemas"
	"github.com/jonathan/cv-builder/internal/types"
)

// Error codes carried in the "error" field of every JSON error body
const (
	CodeInvalidRequest   = "invalid_request"
	CodeInvalidInput     = "invalid_input"
	CodeInvalidDocument  = "invalid_document"
	CodeTemplateNotFound = "template_not_found"
	CodeBodyTooLarge     = "request_too_large"
	CodeRenderTimeout    = "render_timeout"
	CodeRenderFailure    = "render_failure"
	CodeInternal         = "internal_error"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrInvalidDocument indicates a CV that fails document checks
type ErrInvalidDocument struct {
	Violations []types.Violation
}

func (e *ErrInvalidDocument) Error() string {
	if len(e.Violations) == 0 {
		return "document is invalid"
	}
	if len(e.Violations) == 1 {
		return fmt.Sprintf("document is invalid: %s", e.Violations[0].Details)
	}
	return fmt.Sprintf("document is invalid: %s (and %d more)", e.Violations[0].Details, len(e.Violations)-1)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	status, _ := classify(err)
	return status
}

// ErrorCode returns the machine-readable code for an error
func ErrorCode(err error) string {
	_, code := classify(err)
	return code
}

func classify(err error) (int, string) {
	var (
		validationErr *ErrValidation
		documentErr   *ErrInvalidDocument
		schemaErr     *schemas.ValidationError
		loadErr       *schemas.DocumentLoadError
		inputErr      *export.InvalidInputError
		notFoundErr   *rendering.TemplateNotFoundError
		timeoutErr    *export.RenderTimeoutError
		failureErr    *export.RenderFailureError
		tooLargeErr   *http.MaxBytesError
	)

	switch {
	case err == nil:
		return http.StatusInternalServerError, CodeInternal
	case errors.As(err, &tooLargeErr):
		return http.StatusRequestEntityTooLarge, CodeBodyTooLarge
	case errors.As(err, &validationErr), errors.As(err, &schemaErr), errors.As(err, &loadErr):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.As(err, &inputErr):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.As(err, &documentErr):
		return http.StatusBadRequest, CodeInvalidDocument
	case errors.As(err, &notFoundErr):
		return http.StatusBadRequest, CodeTemplateNotFound
	case errors.As(err, &timeoutErr):
		return http.StatusInternalServerError, CodeRenderTimeout
	case errors.As(err, &failureErr):
		return http.StatusInternalServerError, CodeRenderFailure
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
