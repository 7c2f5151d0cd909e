package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List templates and color themes",
	RunE:  runTemplates,
}

var templatesJSON bool

func init() {
	templatesCmd.Flags().BoolVar(&templatesJSON, "json", false, "Print as JSON")
	rootCmd.AddCommand(templatesCmd)
}

type templateListing struct {
	Templates []rendering.TemplateInfo `json:"templates"`
	Themes    []string                 `json:"themes"`
}

func runTemplates(_ *cobra.Command, _ []string) error {
	listing := templateListing{
		Templates: rendering.Templates(),
		Themes:    rendering.ThemeKeys(),
	}
	if templatesJSON {
		return writeJSON("", listing)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	for _, t := range listing.Templates {
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Name, t.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nThemes: %s (or any #rgb / #rrggbb color)\n", strings.Join(listing.Themes, ", "))
	return nil
}
