// Package main provides the cv_builder CLI and HTTP API server.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/jonathan/cv-builder/internal/config"
	"github.com/jonathan/cv-builder/internal/observability"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	logLevel   string

	appConfig *config.Config
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "cv_builder",
	Short:         "CV rendering and PDF export",
	Long:          "cv_builder applies AI suggestions to structured CVs, renders them through HTML templates and exports pixel-faithful PDFs with headless Chrome.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return setup()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default: $CONFIG_PATH or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print human-readable summaries")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and installs the logger. Flags win over config.
func setup() error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	merged := cfg.MergeWithDefaults(config.Default())
	if logLevel != "" {
		merged.Log.Level = logLevel
	}
	if verbose && logLevel == "" {
		merged.Log.Level = "debug"
	}

	appConfig = &merged
	logger = observability.NewLogger(merged.Log.Level, merged.Log.Format)
	return nil
}

// settings returns the loaded configuration, falling back to defaults when
// a command runs without the root pre-run
func settings() (*config.Config, *slog.Logger) {
	if appConfig == nil {
		cfg := config.Default()
		appConfig = &cfg
	}
	if logger == nil {
		logger = slog.Default()
	}
	return appConfig, logger
}
