package browser

import (
	"context"

	"github.com/basbossink/page-metrics-probe/internal/config"
	"github.com/basbossink/page-metrics-probe/internal/models"
)

// Collector is the interface for the raw-metrics collection boundary:
// given a target URL, return the validated raw measurement for one page load
type Collector interface {
	Collect(ctx context.Context, url string) (*models.RawMetrics, error)
}

// NewCollector creates a new browser-backed collector
func NewCollector(cfg *config.BrowserConfig) (Collector, error) {
	return NewCollectorImpl(cfg)
}
