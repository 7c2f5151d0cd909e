package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jonathan/cv-builder/internal/editing"
	"github.com/jonathan/cv-builder/internal/types"
	"github.com/spf13/cobra"
)

var applySuggestionCmd = &cobra.Command{
	Use:   "apply-suggestion",
	Short: "Apply a suggestion to a CV",
	Long:  "Parses a Suggestion JSON file and merges the resulting edit into a CVDocument JSON file, writing the updated CV.",
	RunE:  runApplySuggestion,
}

var (
	applyCVFile         string
	applySuggestionFile string
	applyEntryIndex     int
	applyMode           string
	applyOutput         string
)

func init() {
	applySuggestionCmd.Flags().StringVarP(&applyCVFile, "cv", "c", "", "Path to CVDocument JSON file (required)")
	applySuggestionCmd.Flags().StringVarP(&applySuggestionFile, "suggestion", "s", "", "Path to Suggestion JSON file (required)")
	applySuggestionCmd.Flags().IntVarP(&applyEntryIndex, "entry", "e", -1, "Experience entry index for experience suggestions")
	applySuggestionCmd.Flags().StringVar(&applyMode, "mode", string(types.ModeCreate), "Editing mode: create or update")
	applySuggestionCmd.Flags().StringVarP(&applyOutput, "out", "o", "", "Path to output CV JSON file (default: stdout)")

	if err := applySuggestionCmd.MarkFlagRequired("cv"); err != nil {
		panic(fmt.Sprintf("failed to mark cv flag as required: %v", err))
	}
	if err := applySuggestionCmd.MarkFlagRequired("suggestion"); err != nil {
		panic(fmt.Sprintf("failed to mark suggestion flag as required: %v", err))
	}

	rootCmd.AddCommand(applySuggestionCmd)
}

func runApplySuggestion(_ *cobra.Command, _ []string) error {
	_, log := settings()

	mode := types.Mode(applyMode)
	if !mode.Valid() {
		return fmt.Errorf("invalid --mode %q: must be %q or %q", applyMode, types.ModeCreate, types.ModeUpdate)
	}

	doc, err := loadCV(applyCVFile)
	if err != nil {
		return err
	}
	suggestion, err := loadSuggestion(applySuggestionFile)
	if err != nil {
		return err
	}
	if suggestion.ID == "" {
		suggestion.ID = uuid.NewString()
	}
	if mode == types.ModeUpdate && doc.ID == "" {
		return fmt.Errorf("update mode requires the CV to have an id")
	}

	target := editing.NoEntry(mode)
	if applyEntryIndex >= 0 {
		if applyEntryIndex >= len(doc.Experiences) {
			return fmt.Errorf("--entry %d is out of range: CV has %d experience entries", applyEntryIndex, len(doc.Experiences))
		}
		target = editing.Entry(mode, applyEntryIndex)
	}

	out := editing.ApplySuggestion(doc, *suggestion, target)

	if p := verbosePrinter(); p != nil {
		p.PrintParsedEdit(out.Edit)
		p.PrintOutcome(out)
	}
	if !out.Applied && !out.AlreadyApplied {
		fmt.Fprintln(os.Stderr, "Suggestion could not be applied automatically; CV unchanged.")
	}

	log.Debug("suggestion applied", "suggestion_id", out.Suggestion.ID, "edit", out.Edit.Kind, "changed", out.Changed)
	return writeJSON(applyOutput, out.Document)
}
