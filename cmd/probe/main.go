package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/basbossink/page-metrics-probe/internal/browser"
	"github.com/basbossink/page-metrics-probe/internal/config"
	"github.com/basbossink/page-metrics-probe/internal/pipeline"
	"github.com/basbossink/page-metrics-probe/internal/publisher"
	"github.com/basbossink/page-metrics-probe/internal/report"
)

var version = "1.0.0"

var (
	targetURL      string
	collectorURL   string
	insecureTLS    bool
	timeoutSeconds int
	headless       bool
	disableImages  bool
	configFile     string
	logFormat      string
	logLevel       string
)

var rootCmd = &cobra.Command{
	Use:     "probe",
	Short:   "Measures page-load performance and publishes the metrics to a series collector",
	Version: version,
	Long: `Probe drives a headless Chrome instance to a target page, extracts the
browser-reported navigation and resource timing data, derives a fixed set of
named performance metrics, and publishes each metric as a timestamped data
point to a series collector over HTTPS.

One invocation performs exactly one measurement. Each derived metric is
posted individually to <collector>/<metricName> as {"timeStamp", "value"}.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if cfg.Target.URL == "" || cfg.Collector.BaseURL == "" {
			cmd.Usage()
			return fmt.Errorf("both --url and --collector are required")
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		setupLogging(&cfg.Logging)

		return run(cfg)
	},
}

func init() {
	rootCmd.Flags().StringVar(&targetURL, "url", "", "Target page URL to measure (required)")
	rootCmd.Flags().StringVar(&collectorURL, "collector", "", "Base URL of the series collector (required)")
	rootCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "Accept collector certificates that do not chain to a trusted root")
	rootCmd.Flags().IntVar(&timeoutSeconds, "timeout", 0, "Page load timeout in seconds")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "Run the browser headless")
	rootCmd.Flags().BoolVar(&disableImages, "disable-images", false, "Skip image loading during the measurement")
	rootCmd.Flags().StringVar(&configFile, "config", "", "Path to YAML configuration file")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "", "Log format: json or text")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig merges the configuration sources: defaults, then the optional
// YAML file, then environment variables, then explicitly-set flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file := configFile
	if file == "" {
		file = os.Getenv("CONFIG_FILE")
	}

	cfg, err := config.Load(file)
	if err != nil {
		return nil, err
	}

	if targetURL != "" {
		cfg.Target.URL = targetURL
	}
	if collectorURL != "" {
		cfg.Collector.BaseURL = collectorURL
	}
	if cmd.Flags().Changed("insecure") {
		cfg.Collector.InsecureSkipVerify = insecureTLS
	}
	if cmd.Flags().Changed("timeout") && timeoutSeconds > 0 {
		cfg.Target.Timeout = time.Duration(timeoutSeconds) * time.Second
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if cmd.Flags().Changed("disable-images") {
		cfg.Browser.DisableImages = disableImages
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	return cfg, nil
}

// setupLogging configures the default logger. Progress logs go to stderr
// so stdout stays clean for the run report.
func setupLogging(cfg *config.LoggingConfig) {
	opts := &slog.HandlerOptions{Level: report.ParseLogLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector, err := browser.NewCollector(&cfg.Browser)
	if err != nil {
		return fmt.Errorf("failed to create browser collector: %w", err)
	}

	pub, err := publisher.New(&publisher.Config{
		BaseURL:            cfg.Collector.BaseURL,
		InsecureSkipVerify: cfg.Collector.InsecureSkipVerify,
		RequestTimeout:     cfg.Collector.RequestTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create publisher: %w", err)
	}

	reportLogger, err := report.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create report logger: %w", err)
	}

	runReport, err := pipeline.New(cfg, collector, pub).Run(ctx)
	if err != nil {
		return err
	}

	return reportLogger.Write(runReport)
}
