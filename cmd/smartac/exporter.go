package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/smartac/internal/exporter"
	"github.com/muurk/smartac/internal/metrics"
)

// Exporter command flags
var (
	exporterListen        string
	exporterPath          string
	exporterCert          string
	exporterKey           string
	exporterScrapeTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(exporterCmd)

	exporterCmd.Flags().StringVar(&exporterListen, "listen", exporter.DefaultListen, "Address to serve metrics on")
	exporterCmd.Flags().StringVar(&exporterPath, "path", "/metrics", "Metrics path")
	exporterCmd.Flags().StringVar(&exporterCert, "tls-cert", "", "TLS certificate file (PEM), enables HTTPS with --tls-key")
	exporterCmd.Flags().StringVar(&exporterKey, "tls-key", "", "TLS private key file (PEM)")
	exporterCmd.Flags().DurationVar(&exporterScrapeTimeout, "scrape-timeout", 0, "Timeout for listing pods on each scrape (defaults to 10s)")
}

// exporterCmd serves pod state as Prometheus metrics
var exporterCmd = &cobra.Command{
	Use:   "exporter",
	Short: "Serve pod state as Prometheus metrics",
	Long: `Run a Prometheus exporter. Every scrape lists the account's pods and
exports their connection status, power, mode, fan level and target
temperature, together with counters for the API requests made.

Stops on SIGINT or SIGTERM.`,
	Example: `  smartac exporter
  smartac exporter --listen 127.0.0.1:9864 --scrape-timeout 5s`,
	Args: cobra.NoArgs,
	RunE: runExporter,
}

func runExporter(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	requests := metrics.NewRequestMetrics()
	client, err := newClient(cfg, requests)
	if err != nil {
		return err
	}

	srv, err := exporter.New(exporter.Config{
		Listen:        exporterListen,
		MetricsPath:   exporterPath,
		CertPath:      exporterCert,
		KeyPath:       exporterKey,
		ScrapeTimeout: exporterScrapeTimeout,
	}, client, requests)
	if err != nil {
		return err
	}

	// Start blocks until shutdown signal or error
	return srv.Start(cmd.Context())
}
