package main

import (
	"fmt"

	"github.com/jonathan/cv-builder/internal/parsing"
	"github.com/jonathan/cv-builder/internal/types"
	"github.com/spf13/cobra"
)

var parseSuggestionCmd = &cobra.Command{
	Use:   "parse-suggestion",
	Short: "Show the edit a suggestion parses to",
	Long:  "Parses a Suggestion JSON file, or raw text with a section, and prints the structured edit without applying it.",
	RunE:  runParseSuggestion,
}

var (
	parseSuggestionFile string
	parseText           string
	parseSection        string
	parseOutput         string
)

func init() {
	parseSuggestionCmd.Flags().StringVarP(&parseSuggestionFile, "suggestion", "s", "", "Path to Suggestion JSON file")
	parseSuggestionCmd.Flags().StringVar(&parseText, "text", "", "Raw suggestion text (instead of --suggestion)")
	parseSuggestionCmd.Flags().StringVar(&parseSection, "section", "", "Target section for --text (summary, experience, education, skills, title)")
	parseSuggestionCmd.Flags().StringVarP(&parseOutput, "out", "o", "", "Path to output ParsedEdit JSON file (default: stdout)")

	parseSuggestionCmd.MarkFlagsMutuallyExclusive("suggestion", "text")
	parseSuggestionCmd.MarkFlagsOneRequired("suggestion", "text")
	parseSuggestionCmd.MarkFlagsRequiredTogether("text", "section")

	rootCmd.AddCommand(parseSuggestionCmd)
}

func runParseSuggestion(_ *cobra.Command, _ []string) error {
	var edit types.ParsedEdit

	if parseSuggestionFile != "" {
		suggestion, err := loadSuggestion(parseSuggestionFile)
		if err != nil {
			return err
		}
		edit = parsing.ParseSuggestion(*suggestion)
	} else {
		section, ok := types.ParseSection(parseSection)
		if !ok {
			return fmt.Errorf("unknown section %q", parseSection)
		}
		edit = parsing.Parse(parseText, section)
	}

	if p := verbosePrinter(); p != nil {
		p.PrintParsedEdit(edit)
	}
	return writeJSON(parseOutput, edit)
}
