// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/cv-builder/internal/editing"
	"github.com/jonathan/cv-builder/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len([]rune(line)) > boxWidth-4 {
			line = truncate(line, boxWidth-4)
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, ending in "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintDocument outputs a summary of a CV document.
func (p *Printer) PrintDocument(doc *types.CVDocument) {
	if doc == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:    %s\n", doc.Title))
	sb.WriteString(fmt.Sprintf("Name:     %s\n", doc.PersonalInfo.FullName))
	sb.WriteString(fmt.Sprintf("Template: %s\n", doc.TemplateID))
	if doc.ColorTheme != "" {
		sb.WriteString(fmt.Sprintf("Theme:    %s\n", doc.ColorTheme))
	}
	sb.WriteString("\n")

	if len(doc.Experiences) > 0 {
		sb.WriteString("Experience:\n")
		count := min(len(doc.Experiences), maxItemsToShow)
		for i := 0; i < count; i++ {
			exp := doc.Experiences[i]
			sb.WriteString(fmt.Sprintf("  • %s", exp.Company))
			if exp.Position != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", exp.Position))
			}
			sb.WriteString("\n")
		}
		if len(doc.Experiences) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(doc.Experiences)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	if len(doc.Educations) > 0 {
		sb.WriteString("Education:\n")
		count := min(len(doc.Educations), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", doc.Educations[i].School))
		}
		if len(doc.Educations) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(doc.Educations)-3))
		}
		sb.WriteString("\n")
	}

	if len(doc.Skills) > 0 {
		sb.WriteString(fmt.Sprintf("Skills:   %s\n", strings.Join(doc.Skills, ", ")))
	}

	p.printBox("CV DOCUMENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintParsedEdit outputs the edit a suggestion was parsed into.
func (p *Printer) PrintParsedEdit(edit types.ParsedEdit) {
	var sb strings.Builder

	switch edit.Kind {
	case types.EditReplaceText:
		sb.WriteString(fmt.Sprintf("Replace %s\n\n", edit.Section))
		if edit.Before != "" {
			sb.WriteString(fmt.Sprintf("Before: %s\n", edit.Before))
		}
		if edit.NewValue == "" {
			sb.WriteString("After:  (empty)")
		} else {
			sb.WriteString(fmt.Sprintf("After:  %s", edit.NewValue))
		}
	case types.EditAddSkills:
		sb.WriteString(fmt.Sprintf("Add %d skills:\n", len(edit.Values)))
		count := min(len(edit.Values), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  + %s\n", edit.Values[i]))
		}
		if len(edit.Values) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(edit.Values)-maxItemsToShow))
		}
	default:
		sb.WriteString("No actionable change")
	}

	p.printBox("PARSED EDIT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintOutcome outputs what applying a suggestion did.
func (p *Printer) PrintOutcome(out editing.Outcome) {
	var sb strings.Builder

	status := "⏭ skipped"
	switch {
	case out.AlreadyApplied:
		status = "⏭ already applied"
	case out.Changed:
		status = "✅ applied"
	case out.Applied:
		status = "✓ applied (no change)"
	}

	sb.WriteString(fmt.Sprintf("Suggestion: %s\n", out.Suggestion.ID))
	sb.WriteString(fmt.Sprintf("Section:    %s\n", out.Suggestion.TargetSection))
	sb.WriteString(fmt.Sprintf("Edit:       %s\n", out.Edit.Kind))
	sb.WriteString(fmt.Sprintf("Status:     %s", status))
	if out.NeedsSave {
		sb.WriteString("\nDocument must be saved")
	}

	p.printBox("SUGGESTION OUTCOME", sb.String())
}

// PrintViolations outputs any document check violations found.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintViolations(violations *types.Violations) {
	if violations == nil || len(violations.Violations) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ NO VIOLATIONS FOUND")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d violations:\n\n", len(violations.Violations)))

	for i, v := range violations.Violations {
		marker := "⚠"
		if v.Severity == types.SeverityError {
			marker = "✗"
		}
		where := ""
		if v.Section != "" {
			where = fmt.Sprintf(" [%s", v.Section)
			if v.Index != nil {
				where += fmt.Sprintf(" #%d", *v.Index)
			}
			where += "]"
		}
		sb.WriteString(fmt.Sprintf("%s %s%s\n", marker, v.Type, where))
		sb.WriteString(fmt.Sprintf("  %s\n", truncate(v.Details, 45)))
		if i < len(violations.Violations)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("DOCUMENT VIOLATIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintExport outputs the result of a PDF export.
func (p *Printer) PrintExport(path string, size int, pages int, elapsed time.Duration) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("File:     %s\n", path))
	sb.WriteString(fmt.Sprintf("Size:     %d bytes\n", size))
	if pages > 0 {
		sb.WriteString(fmt.Sprintf("Pages:    %d\n", pages))
	}
	sb.WriteString(fmt.Sprintf("Elapsed:  %s", elapsed.Round(time.Millisecond)))

	p.printBox("PDF EXPORT", sb.String())
}
