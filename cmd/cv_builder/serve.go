package main

import (
	"github.com/jonathan/cv-builder/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes endpoints for parsing and applying suggestions, rendering CVs and exporting PDFs.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind (overrides server.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, log := settings()

	sc := cfg.Server
	if serveHost != "" {
		sc.Host = serveHost
	}
	if servePort != 0 {
		sc.Port = servePort
	}

	exporter := newExporter(cfg.Export.ExportOptions(), log)

	srv := server.New(server.Config{
		Addr:            sc.Addr(),
		ReadTimeout:     sc.ReadTimeout,
		WriteTimeout:    sc.WriteTimeout,
		IdleTimeout:     sc.IdleTimeout,
		ShutdownTimeout: sc.ShutdownTimeout,
		MaxBodyBytes:    sc.MaxBodyBytes,
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		DefaultTemplate: cfg.Render.DefaultTemplate,
		DefaultTheme:    cfg.Render.DefaultTheme,
		RateLimit:       cfg.RateLimit.LimiterConfig(),
		Logger:          log,
	}, exporter)

	return srv.Start()
}
