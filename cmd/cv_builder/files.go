package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/cv-builder/internal/observability"
	"github.com/jonathan/cv-builder/internal/schemas"
	"github.com/jonathan/cv-builder/internal/types"
	"github.com/jonathan/cv-builder/internal/validation"
)

// loadCV reads and schema-checks a CVDocument JSON file
func loadCV(path string) (*types.CVDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CV file: %w", err)
	}
	if err := schemas.ValidateCVDocument(content); err != nil {
		return nil, fmt.Errorf("CV file %s: %w", path, err)
	}

	var doc types.CVDocument
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse CV JSON: %w", err)
	}
	return &doc, nil
}

// loadSuggestion reads and schema-checks a Suggestion JSON file
func loadSuggestion(path string) (*types.Suggestion, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suggestion file: %w", err)
	}
	if err := schemas.ValidateSuggestion(content); err != nil {
		return nil, fmt.Errorf("suggestion file %s: %w", path, err)
	}

	var s types.Suggestion
	if err := json.Unmarshal(content, &s); err != nil {
		return nil, fmt.Errorf("failed to parse suggestion JSON: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid suggestion: %w", err)
	}
	return &s, nil
}

// checkCV rejects documents with error-severity violations
func checkCV(doc *types.CVDocument, printer *observability.Printer) error {
	violations := validation.ValidateDocument(doc)
	if printer != nil && len(violations.Violations) > 0 {
		printer.PrintViolations(violations)
	}
	if errs := violations.Errors(); len(errs) > 0 {
		return fmt.Errorf("CV has %d invalid field(s): %s", len(errs), errs[0].Details)
	}
	return nil
}

// writeJSON writes v as indented JSON to path, or to stdout when path is empty
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')
	return writeOutput(path, data)
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func verbosePrinter() *observability.Printer {
	if !verbose {
		return nil
	}
	return observability.NewPrinter(os.Stderr)
}
