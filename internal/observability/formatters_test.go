package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/cv-builder/internal/editing"
	"github.com/jonathan/cv-builder/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPrintDocument(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	doc := &types.CVDocument{
		Title:        "Backend CV",
		PersonalInfo: types.PersonalInfo{FullName: "Ada Lovelace"},
		Experiences: []types.Experience{
			{Company: "Acme Corp", Position: "Engineer"},
		},
		Educations: []types.Education{{School: "University A"}},
		Skills:     []string{"Go", "SQL"},
		TemplateID: "template-2",
	}

	p.PrintDocument(doc)
	output := buf.String()

	assert.Contains(t, output, "CV DOCUMENT")
	assert.Contains(t, output, "Ada Lovelace")
	assert.Contains(t, output, "Acme Corp (Engineer)")
	assert.Contains(t, output, "University A")
	assert.Contains(t, output, "Go, SQL")
	assert.Contains(t, output, "template-2")
}

func TestPrintDocument_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintDocument(nil)

	assert.Empty(t, buf.String())
}

func TestPrintDocument_ManyExperiences(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	doc := &types.CVDocument{}
	for i := 0; i < 8; i++ {
		doc.Experiences = append(doc.Experiences, types.Experience{Company: "Co"})
	}

	p.PrintDocument(doc)

	assert.Contains(t, buf.String(), "... and 3 more")
}

func TestPrintParsedEdit(t *testing.T) {
	tests := []struct {
		name string
		edit types.ParsedEdit
		want []string
	}{
		{"replace", types.ReplaceTextEdit(types.SectionSummary, "New text", "Old text"), []string{"Replace summary", "Before: Old text", "After:  New text"}},
		{"empty replacement", types.ReplaceTextEdit(types.SectionTitle, "", ""), []string{"After:  (empty)"}},
		{"skills", types.AddSkillsEdit([]string{"Go", "Rust"}), []string{"Add 2 skills", "+ Go", "+ Rust"}},
		{"noop", types.NoOpEdit(), []string{"No actionable change"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewPrinter(&buf).PrintParsedEdit(tt.edit)

			output := buf.String()
			assert.Contains(t, output, "PARSED EDIT")
			for _, w := range tt.want {
				assert.Contains(t, output, w)
			}
		})
	}
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintOutcome(editing.Outcome{
		Suggestion: types.Suggestion{ID: "s-1", TargetSection: types.SectionSummary},
		Edit:       types.ReplaceTextEdit(types.SectionSummary, "x", ""),
		Applied:    true,
		Changed:    true,
		NeedsSave:  true,
	})
	output := buf.String()

	assert.Contains(t, output, "SUGGESTION OUTCOME")
	assert.Contains(t, output, "s-1")
	assert.Contains(t, output, "✅ applied")
	assert.Contains(t, output, "Document must be saved")
}

func TestPrintOutcome_AlreadyApplied(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintOutcome(editing.Outcome{AlreadyApplied: true, Edit: types.NoOpEdit()})

	assert.Contains(t, buf.String(), "already applied")
	assert.NotContains(t, buf.String(), "must be saved")
}

func TestPrintViolations_WithViolations(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	idx := 1
	violations := &types.Violations{
		Violations: []types.Violation{
			{
				Type:     "missing_company",
				Severity: types.SeverityError,
				Details:  "Experience entry has no company",
				Section:  types.SectionExperience,
				Index:    &idx,
			},
		},
	}

	p.PrintViolations(violations)
	output := buf.String()

	assert.Contains(t, output, "DOCUMENT VIOLATIONS")
	assert.Contains(t, output, "missing_company [experience #1]")
	assert.Contains(t, output, "Experience entry has no company")
}

func TestPrintViolations_NoViolations(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	violations := &types.Violations{
		Violations: []types.Violation{},
	}

	p.PrintViolations(violations)
	output := buf.String()

	assert.Contains(t, output, "NO VIOLATIONS FOUND")
}

func TestPrintExport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintExport("out/CV.pdf", 2048, 2, 1500*time.Millisecond)
	output := buf.String()

	assert.Contains(t, output, "PDF EXPORT")
	assert.Contains(t, output, "out/CV.pdf")
	assert.Contains(t, output, "2048 bytes")
	assert.Contains(t, output, "Pages:    2")
	assert.Contains(t, output, "1.5s")
}

func TestPrintBox_LongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	doc := &types.CVDocument{
		Title:        "A Very Long Résumé Title That Should Be Truncated To Fit The Box",
		PersonalInfo: types.PersonalInfo{FullName: "Senior Staff Principal Distinguished Engineer Level 99"},
	}

	p.PrintDocument(doc)
	output := buf.String()

	// Should contain box characters
	assert.True(t, strings.Contains(output, "┌"))
	assert.True(t, strings.Contains(output, "└"))
	assert.True(t, strings.Contains(output, "│"))
	assert.Contains(t, output, "...")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
	assert.Equal(t, "éééé...", truncate("éééééééééé", 7))
}
