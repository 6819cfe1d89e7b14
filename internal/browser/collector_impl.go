package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/performance"
	"github.com/chromedp/chromedp"

	"github.com/basbossink/page-metrics-probe/internal/config"
	"github.com/basbossink/page-metrics-probe/internal/models"
)

// CollectError wraps a browser-side failure with a coarse category for the
// run diagnostic (dns, tls, timeout, connection_refused, unknown)
type CollectError struct {
	Category string
	Err      error
}

func (e *CollectError) Error() string {
	return fmt.Sprintf("page measurement failed (%s): %v", e.Category, e.Err)
}

func (e *CollectError) Unwrap() error {
	return e.Err
}

// timelineEntriesJS extracts the navigation and resource entries from the
// performance timeline, reduced to the fields the calculator consumes.
// Resource entries carry no DOM lifecycle marks, hence the || 0 fallbacks.
const timelineEntriesJS = `
	(function() {
		const pick = (entry) => ({
			entryType: entry.entryType,
			startTime: entry.startTime,
			requestStart: entry.requestStart,
			responseStart: entry.responseStart,
			responseEnd: entry.responseEnd,
			domainLookupStart: entry.domainLookupStart,
			domainLookupEnd: entry.domainLookupEnd,
			connectStart: entry.connectStart,
			connectEnd: entry.connectEnd,
			domContentLoadedEventStart: entry.domContentLoadedEventStart || 0,
			domComplete: entry.domComplete || 0,
			transferSize: entry.transferSize || 0,
			encodedBodySize: entry.encodedBodySize || 0,
			decodedBodySize: entry.decodedBodySize || 0
		});
		return performance.getEntriesByType('navigation')
			.concat(performance.getEntriesByType('resource'))
			.map(pick);
	})()
`

// CollectorImpl is the concrete implementation of the collector
type CollectorImpl struct {
	config        *config.BrowserConfig
	allocatorOpts []chromedp.ExecAllocatorOption
}

// NewCollectorImpl creates a new browser collector with chromedp
func NewCollectorImpl(cfg *config.BrowserConfig) (*CollectorImpl, error) {
	// Build allocator options used for each measurement.
	// A fresh allocator is created per Collect call so DNS, TCP, and TLS
	// are exercised on every run and caches never distort the timings.
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox, // Required for Docker
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
		chromedp.Flag("log-level", "3"), // Suppress Chrome warnings
		// Disable caches so resource entries reflect real fetches
		chromedp.Flag("disable-cache", "true"),
		chromedp.Flag("disable-application-cache", "true"),
		chromedp.Flag("disk-cache-size", "0"),
		chromedp.Flag("media-cache-size", "0"),
	}

	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}

	if cfg.DisableImages {
		opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}

	return &CollectorImpl{
		config:        cfg,
		allocatorOpts: opts,
	}, nil
}

// Collect navigates to the URL, waits for the page to settle, and returns
// the validated raw measurement: engine counters from the DevTools
// Performance domain plus the full navigation/resource timeline.
func (c *CollectorImpl) Collect(ctx context.Context, url string) (*models.RawMetrics, error) {
	// Fresh allocator per measurement
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), c.allocatorOpts...)
	defer cancelAlloc()

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	// chromedp contexts must chain from the allocator, so the caller's
	// deadline is re-applied on top rather than inherited
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		taskCtx, cancelDeadline = context.WithDeadline(taskCtx, deadline)
		defer cancelDeadline()
	}

	var entries []models.PerformanceEntry
	var page models.PageMetrics

	err := chromedp.Run(taskCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return performance.Enable().Do(ctx)
		}),

		chromedp.Navigate(url),

		// Wait for the document so the timeline is exhaustive for the
		// navigation before extraction
		chromedp.WaitReady("body", chromedp.ByQuery),

		chromedp.Evaluate(timelineEntriesJS, &entries),

		chromedp.ActionFunc(func(ctx context.Context) error {
			cdpMetrics, err := performance.GetMetrics().Do(ctx)
			if err != nil {
				return err
			}
			page = pageCounters(cdpMetrics)
			return nil
		}),
	)
	if err != nil {
		return nil, &CollectError{Category: categorizeError(err), Err: err}
	}

	raw := &models.RawMetrics{
		Page:    page,
		Entries: entries,
	}
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	return raw, nil
}

// pageCounters picks the document count and cumulative task time out of the
// DevTools Performance domain metric list
func pageCounters(cdpMetrics []*performance.Metric) models.PageMetrics {
	var page models.PageMetrics
	for _, m := range cdpMetrics {
		switch m.Name {
		case "Documents":
			page.Documents = m.Value
		case "TaskDuration":
			page.TaskDuration = m.Value
		}
	}
	return page
}

// categorizeError determines the error type for the run diagnostic
func categorizeError(err error) string {
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "context deadline exceeded"):
		return "timeout"
	case strings.Contains(errStr, "context canceled"):
		return "timeout"
	case strings.Contains(errStr, "no such host"):
		return "dns"
	case strings.Contains(errStr, "dns"):
		return "dns"
	case strings.Contains(errStr, "connection refused"):
		return "connection_refused"
	case strings.Contains(errStr, "tls"):
		return "tls"
	case strings.Contains(errStr, "timeout"):
		return "timeout"
	default:
		return "unknown"
	}
}
