package models

import "errors"

// Entry types from the browser performance timeline. Only navigation and
// resource entries are consumed; anything else is ignored.
const (
	EntryTypeNavigation = "navigation"
	EntryTypeResource   = "resource"
)

// ErrNoNavigationEntry indicates the collected timeline contained no
// navigation entry, so no page-load metrics can be derived
var ErrNoNavigationEntry = errors.New("timeline contains no navigation entry")

// PerformanceEntry is one recorded browser timeline event.
// JSON tags match the PerformanceTimeline property names so entries decode
// directly from the in-page evaluation result.
type PerformanceEntry struct {
	// EntryType is "navigation", "resource", or another timeline type
	EntryType string `json:"entryType"`

	// Timestamps in milliseconds relative to navigation start
	StartTime         float64 `json:"startTime"`
	RequestStart      float64 `json:"requestStart"`
	ResponseStart     float64 `json:"responseStart"`
	ResponseEnd       float64 `json:"responseEnd"`
	DomainLookupStart float64 `json:"domainLookupStart"`
	DomainLookupEnd   float64 `json:"domainLookupEnd"`
	ConnectStart      float64 `json:"connectStart"`
	ConnectEnd        float64 `json:"connectEnd"`

	// DOM lifecycle timestamps (navigation entries only)
	DOMContentLoadedEventStart float64 `json:"domContentLoadedEventStart"`
	DOMComplete                float64 `json:"domComplete"`

	// Byte counts (resource entries)
	TransferSize    float64 `json:"transferSize"`
	EncodedBodySize float64 `json:"encodedBodySize"`
	DecodedBodySize float64 `json:"decodedBodySize"`
}

// PageMetrics contains engine-reported counters at measurement time,
// read from the Chrome DevTools Performance domain.
type PageMetrics struct {
	// Documents is the resource/document count
	Documents float64 `json:"documents"`

	// TaskDuration is cumulative CPU task time in seconds
	TaskDuration float64 `json:"taskDuration"`
}

// RawMetrics is the raw measurement for a single page load: engine counters
// plus the full performance timeline. Produced once per run and consumed
// exactly once by the calculator.
type RawMetrics struct {
	Page    PageMetrics        `json:"page"`
	Entries []PerformanceEntry `json:"entries"`
}

// Validate checks the boundary invariant: at least one navigation entry
// must be present before the raw metrics reach the calculator.
func (r *RawMetrics) Validate() error {
	for i := range r.Entries {
		if r.Entries[i].EntryType == EntryTypeNavigation {
			return nil
		}
	}
	return ErrNoNavigationEntry
}

// NavigationEntry returns the navigation entry describing the top-level
// page load. A page reports at most one; if several are present the first
// is used.
func (r *RawMetrics) NavigationEntry() (*PerformanceEntry, error) {
	for i := range r.Entries {
		if r.Entries[i].EntryType == EntryTypeNavigation {
			return &r.Entries[i], nil
		}
	}
	return nil, ErrNoNavigationEntry
}

// ResourceEntries returns the timeline entries for sub-resource fetches
func (r *RawMetrics) ResourceEntries() []PerformanceEntry {
	resources := make([]PerformanceEntry, 0, len(r.Entries))
	for _, entry := range r.Entries {
		if entry.EntryType == EntryTypeResource {
			resources = append(resources, entry)
		}
	}
	return resources
}
