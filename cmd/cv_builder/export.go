package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/observability"
	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/server"
	"github.com/jonathan/cv-builder/internal/types"
	"github.com/jonathan/cv-builder/internal/validation"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// newExporter builds the PDF exporter; tests replace it
var newExporter = func(opts export.Options, logger *slog.Logger) server.PDFExporter {
	return export.New(export.NewChromeLauncher(logger), opts, logger)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a CV or an HTML file to PDF",
	Long: `Renders a CVDocument JSON file (or takes a ready HTML file) and prints it to PDF
with headless Chrome. With --all-templates every registered template is exported
concurrently into --out-dir.`,
	RunE: runExport,
}

var (
	exportInput        string
	exportHTML         string
	exportTemplate     string
	exportTheme        string
	exportOutput       string
	exportOutDir       string
	exportAllTemplates bool
	exportChromePath   string
	exportTimeout      time.Duration
)

func init() {
	exportCmd.Flags().StringVarP(&exportInput, "in", "i", "", "Path to CVDocument JSON file")
	exportCmd.Flags().StringVar(&exportHTML, "html", "", "Path to a self-contained HTML file (instead of --in)")
	exportCmd.Flags().StringVarP(&exportTemplate, "template", "t", "", "Template id (default: the CV's template_id)")
	exportCmd.Flags().StringVar(&exportTheme, "theme", "", "Color theme override")
	exportCmd.Flags().StringVarP(&exportOutput, "out", "o", types.DefaultExportFilename, "Path to output PDF file")
	exportCmd.Flags().StringVar(&exportOutDir, "out-dir", ".", "Output directory for --all-templates")
	exportCmd.Flags().BoolVar(&exportAllTemplates, "all-templates", false, "Export the CV once per registered template")
	exportCmd.Flags().StringVar(&exportChromePath, "chrome-path", "", "Chrome binary (overrides export.chrome_path)")
	exportCmd.Flags().DurationVar(&exportTimeout, "timeout", 2*time.Minute, "Overall deadline for the command")

	exportCmd.MarkFlagsMutuallyExclusive("in", "html")
	exportCmd.MarkFlagsOneRequired("in", "html")
	exportCmd.MarkFlagsMutuallyExclusive("html", "all-templates")

	rootCmd.AddCommand(exportCmd)
}

// exportJob is one PDF to produce
type exportJob struct {
	name string
	html string
	path string
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, log := settings()

	opts := cfg.Export.ExportOptions()
	if exportChromePath != "" {
		opts.ChromePath = exportChromePath
	}

	jobs, err := exportJobs(cfg.Render.DefaultTemplate, cfg.Render.DefaultTheme)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if exportTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, exportTimeout)
		defer cancel()
	}

	exporter := newExporter(opts, log)
	return runExportJobs(ctx, exporter, jobs, int(opts.MaxConcurrent), verbosePrinter(), log)
}

func exportJobs(defaultTemplate, defaultTheme string) ([]exportJob, error) {
	if exportHTML != "" {
		content, err := os.ReadFile(exportHTML)
		if err != nil {
			return nil, fmt.Errorf("failed to read HTML file: %w", err)
		}
		return []exportJob{{name: filepath.Base(exportHTML), html: string(content), path: exportOutput}}, nil
	}

	doc, err := loadCV(exportInput)
	if err != nil {
		return nil, err
	}
	if p := verbosePrinter(); p != nil {
		p.PrintDocument(doc)
	}
	theme := resolveTheme(exportTheme, doc, defaultTheme)

	if !exportAllTemplates {
		id := resolveTemplateID(exportTemplate, doc, defaultTemplate)
		html, err := renderCV(doc, id, theme)
		if err != nil {
			return nil, err
		}
		return []exportJob{{name: id, html: html, path: exportOutput}}, nil
	}

	var jobs []exportJob
	for _, info := range rendering.Templates() {
		html, err := renderCV(doc, info.ID, theme)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", info.ID, err)
		}
		jobs = append(jobs, exportJob{
			name: info.ID,
			html: html,
			path: filepath.Join(exportOutDir, info.ID+".pdf"),
		})
	}
	return jobs, nil
}

// runExportJobs exports every job in its own browser session, at most limit
// at a time. The first failure cancels the rest.
func runExportJobs(ctx context.Context, exporter server.PDFExporter, jobs []exportJob, limit int, printer *observability.Printer, log *slog.Logger) error {
	if limit <= 0 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var outMu sync.Mutex

	for _, job := range jobs {
		g.Go(func() error {
			res, err := exporter.Export(gctx, job.html)
			if err != nil {
				return fmt.Errorf("export %s: %w", job.name, err)
			}
			if err := writeOutput(job.path, res.Data); err != nil {
				return fmt.Errorf("export %s: %w", job.name, err)
			}

			pages, err := validation.CountPDFPages(res.Data)
			if err != nil {
				log.Debug("could not count pdf pages", "file", job.path, "error", err)
			}

			outMu.Lock()
			defer outMu.Unlock()
			if printer != nil {
				printer.PrintExport(job.path, res.ContentLength, pages, res.Duration)
			} else {
				fmt.Printf("%s: %d bytes, %d page(s)\n", job.path, res.ContentLength, pages)
			}
			return nil
		})
	}

	return g.Wait()
}
