package main

import (
	"fmt"
	"strings"

	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/types"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a CV to HTML",
	Long:  "Renders a CVDocument JSON file through one of the registered templates into a single self-contained HTML document.",
	RunE:  runRender,
}

var (
	renderInput    string
	renderTemplate string
	renderTheme    string
	renderOutput   string
)

func init() {
	renderCmd.Flags().StringVarP(&renderInput, "in", "i", "", "Path to CVDocument JSON file (required)")
	renderCmd.Flags().StringVarP(&renderTemplate, "template", "t", "", "Template id (default: the CV's template_id, then render.default_template)")
	renderCmd.Flags().StringVar(&renderTheme, "theme", "", "Color theme key or hex color (default: the CV's color_theme)")
	renderCmd.Flags().StringVarP(&renderOutput, "out", "o", "", "Path to output HTML file (default: stdout)")

	if err := renderCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(renderCmd)
}

func runRender(_ *cobra.Command, _ []string) error {
	cfg, log := settings()

	doc, err := loadCV(renderInput)
	if err != nil {
		return err
	}
	if p := verbosePrinter(); p != nil {
		p.PrintDocument(doc)
	}

	templateID := resolveTemplateID(renderTemplate, doc, cfg.Render.DefaultTemplate)
	html, err := renderCV(doc, templateID, resolveTheme(renderTheme, doc, cfg.Render.DefaultTheme))
	if err != nil {
		return err
	}

	if err := writeOutput(renderOutput, []byte(html)); err != nil {
		return err
	}
	log.Debug("cv rendered", "template", templateID, "bytes", len(html))
	return nil
}

// renderCV validates doc against templateID and renders it
func renderCV(doc *types.CVDocument, templateID string, theme rendering.Theme) (string, error) {
	if _, err := rendering.Lookup(templateID); err != nil {
		return "", err
	}

	check := *doc
	check.TemplateID = templateID
	if err := checkCV(&check, verbosePrinter()); err != nil {
		return "", err
	}

	return rendering.RenderWithTheme(doc, templateID, theme)
}

func resolveTemplateID(flag string, doc *types.CVDocument, fallback string) string {
	for _, id := range []string{flag, doc.TemplateID, fallback, rendering.DefaultTemplateID} {
		if id = strings.TrimSpace(id); id != "" {
			return id
		}
	}
	return ""
}

// resolveTheme picks the first recognized token among the flag, the
// document's own theme and the configured default
func resolveTheme(flag string, doc *types.CVDocument, fallback string) rendering.Theme {
	for _, token := range []string{flag, doc.ColorTheme, fallback} {
		if theme, ok := rendering.ResolveTheme(token); ok {
			return theme
		}
	}
	theme, _ := rendering.ResolveTheme(rendering.DefaultThemeKey)
	return theme
}
