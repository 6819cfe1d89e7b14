// Package publisher ships derived metrics to the series collector. Each
// metric becomes one HTTP POST to <base>/<series> with a JSON
// {timeStamp, value} body; writes are strictly sequential and the first
// failure aborts the rest of the run.
package publisher

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/basbossink/page-metrics-probe/internal/calculator"
	"github.com/basbossink/page-metrics-probe/internal/models"
)

// Config contains the collector endpoint settings
type Config struct {
	// BaseURL is the root of the series collector, e.g. "https://127.0.0.1:8443"
	BaseURL string

	// InsecureSkipVerify accepts collector certificates that do not chain
	// to a trusted root. Local collector instances run with self-signed
	// certificates; enabling this is a visible deployment choice, not a
	// hidden default.
	InsecureSkipVerify bool

	// RequestTimeout bounds each individual write
	RequestTimeout time.Duration
}

// PublishError reports the write that terminated a publication run
type PublishError struct {
	// Key is the metric series that was in flight
	Key string

	// StatusCode is the HTTP status, when a response was received
	StatusCode int

	// Written is the number of metrics acknowledged before the failure
	Written int

	Err error
}

func (e *PublishError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("publishing %q failed with status %d after %d successful writes", e.Key, e.StatusCode, e.Written)
	}
	return fmt.Sprintf("publishing %q failed after %d successful writes: %v", e.Key, e.Written, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// Publisher posts metric data points to a series collector
type Publisher struct {
	baseURL *url.URL
	client  *http.Client
}

// New creates a publisher for the configured collector. The base URL is
// validated here so a malformed endpoint is rejected before any browser
// work begins.
func New(cfg *Config) (*Publisher, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid collector base URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("collector base URL %q must use http or https", cfg.BaseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("collector base URL %q has no host", cfg.BaseURL)
	}

	transport := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		}
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Publisher{
		baseURL: base,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}, nil
}

// Publish writes every metric in the mapping to the collector, one POST per
// series, each fully acknowledged before the next is issued. Known series
// are written in derivation order so runs are reproducible; any other keys
// follow in lexical order. The first failed write aborts the remaining
// sequence and is returned as a *PublishError.
func (p *Publisher) Publish(ctx context.Context, metrics map[string]float64, timeStamp time.Time) error {
	point := models.DataPoint{
		TimeStamp: timeStamp.Unix(),
	}

	written := 0
	for _, key := range orderedKeys(metrics) {
		point.Value = metrics[key]
		if err := p.publishOne(ctx, key, point); err != nil {
			if pubErr, ok := err.(*PublishError); ok {
				pubErr.Written = written
			}
			return err
		}
		written++
	}
	return nil
}

// publishOne issues a single write and confirms the acknowledgement
func (p *Publisher) publishOne(ctx context.Context, key string, point models.DataPoint) error {
	body, err := json.Marshal(point)
	if err != nil {
		return &PublishError{Key: key, Err: err}
	}

	endpoint := p.baseURL.JoinPath(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return &PublishError{Key: key, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return &PublishError{Key: key, Err: err}
	}
	defer resp.Body.Close()

	// The acknowledgement body is drained but not otherwise validated
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &PublishError{Key: key, StatusCode: resp.StatusCode}
	}
	return nil
}

// orderedKeys returns the mapping's keys in a stable order: the known
// derivation order first, then anything unexpected sorted lexically.
func orderedKeys(metrics map[string]float64) []string {
	keys := make([]string, 0, len(metrics))
	seen := make(map[string]bool, len(metrics))
	for _, key := range calculator.Keys {
		if _, ok := metrics[key]; ok {
			keys = append(keys, key)
			seen[key] = true
		}
	}
	extra := make([]string, 0)
	for key := range metrics {
		if !seen[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}
