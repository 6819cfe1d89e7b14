// Package pipeline runs the one-shot measurement: collect raw timing data
// from the browser, derive the metric mapping, publish it to the collector.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/basbossink/page-metrics-probe/internal/browser"
	"github.com/basbossink/page-metrics-probe/internal/calculator"
	"github.com/basbossink/page-metrics-probe/internal/config"
)

// Stage identifies which part of the pipeline an error came from
type Stage string

const (
	StageCollection  Stage = "collection"
	StageCalculation Stage = "calculation"
	StagePublication Stage = "publication"
)

// StageError tags a failure with the pipeline stage it occurred in, so the
// run diagnostic always names the failing stage
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// MetricsPublisher ships a derived metric mapping with its timestamp
type MetricsPublisher interface {
	Publish(ctx context.Context, metrics map[string]float64, timeStamp time.Time) error
}

// Report summarizes one completed run
type Report struct {
	RunID     string             `json:"run_id"`
	Timestamp time.Time          `json:"@timestamp"`
	TargetURL string             `json:"target_url"`
	Metrics   map[string]float64 `json:"metrics"`
	ElapsedMs int64              `json:"elapsed_ms"`
}

// Pipeline wires the collector, calculator, and publisher together for a
// single invocation
type Pipeline struct {
	config    *config.Config
	collector browser.Collector
	publisher MetricsPublisher
	logger    *slog.Logger
}

// New creates a one-shot measurement pipeline
func New(cfg *config.Config, collector browser.Collector, publisher MetricsPublisher) *Pipeline {
	return &Pipeline{
		config:    cfg,
		collector: collector,
		publisher: publisher,
		logger:    slog.Default(),
	}
}

// Run executes the three stages sequentially. Any error aborts the run and
// is returned tagged with its stage; nothing is swallowed or retried.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	p.logger.Info("measuring page", "url", p.config.Target.URL, "timeout", p.config.Target.Timeout)

	collectCtx, cancel := context.WithTimeout(ctx, p.config.Target.Timeout)
	defer cancel()

	raw, err := p.collector.Collect(collectCtx, p.config.Target.URL)
	if err != nil {
		return nil, &StageError{Stage: StageCollection, Err: err}
	}
	p.logger.Info("collected timeline",
		"entries", len(raw.Entries),
		"resources", len(raw.ResourceEntries()),
		"documents", raw.Page.Documents,
	)

	metrics, err := calculator.Calculate(raw)
	if err != nil {
		return nil, &StageError{Stage: StageCalculation, Err: err}
	}

	timeStamp := time.Now()
	if err := p.publisher.Publish(ctx, metrics, timeStamp); err != nil {
		return nil, &StageError{Stage: StagePublication, Err: err}
	}
	p.logger.Info("published metrics",
		"count", len(metrics),
		"collector", p.config.Collector.BaseURL,
	)

	return &Report{
		RunID:     uuid.New().String(),
		Timestamp: timeStamp,
		TargetURL: p.config.Target.URL,
		Metrics:   metrics,
		ElapsedMs: time.Since(start).Milliseconds(),
	}, nil
}
