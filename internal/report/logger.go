package report

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/basbossink/page-metrics-probe/internal/config"
	"github.com/basbossink/page-metrics-probe/internal/pipeline"
)

// Logger outputs the run report to stdout
type Logger struct {
	logger *slog.Logger
	config *config.LoggingConfig
}

// NewLogger creates a run-report logger
func NewLogger(cfg *config.LoggingConfig) (*Logger, error) {
	// The structured logger is only used for text format; JSON format
	// writes the raw report directly in Write()
	var logger *slog.Logger

	if cfg.Format != "json" {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: ParseLogLevel(cfg.Level),
		}))
	}

	return &Logger{
		logger: logger,
		config: cfg,
	}, nil
}

// Write outputs a run report to stdout
func (l *Logger) Write(report *pipeline.Report) error {
	// For JSON format, output the raw JSON directly
	if l.config.Format == "json" {
		data, err := json.Marshal(report)
		if err != nil {
			return err
		}
		// Write directly to stdout for clean JSON lines
		os.Stdout.Write(data)
		os.Stdout.Write([]byte("\n"))
		return nil
	}

	l.logger.Info("run_report",
		"run_id", report.RunID,
		"target_url", report.TargetURL,
		"metrics", len(report.Metrics),
		"elapsed_ms", report.ElapsedMs,
	)

	return nil
}

// ParseLogLevel converts string to slog.Level
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
