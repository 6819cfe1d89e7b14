package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/basbossink/page-metrics-probe/internal/calculator"
	"github.com/basbossink/page-metrics-probe/internal/models"
)

// recordingCollector is a test double for the series collector endpoint.
// It records every POST and can be told to fail from the Nth request on.
type recordingCollector struct {
	mu       sync.Mutex
	paths    []string
	points   []models.DataPoint
	failFrom int // 1-based request number to start failing at; 0 = never
}

func (rc *recordingCollector) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc.mu.Lock()
		defer rc.mu.Unlock()

		var point models.DataPoint
		if err := json.NewDecoder(r.Body).Decode(&point); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rc.paths = append(rc.paths, r.URL.Path)
		rc.points = append(rc.points, point)

		if rc.failFrom > 0 && len(rc.paths) >= rc.failFrom {
			http.Error(w, "collector unavailable", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func (rc *recordingCollector) requestCount() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.paths)
}

func sampleMetrics() map[string]float64 {
	metrics := make(map[string]float64, len(calculator.Keys))
	for i, key := range calculator.Keys {
		metrics[key] = float64(i + 1)
	}
	return metrics
}

func newTLSPublisher(t *testing.T, serverURL string) *Publisher {
	t.Helper()
	pub, err := New(&Config{
		BaseURL:            serverURL,
		InsecureSkipVerify: true, // httptest TLS servers use a self-signed certificate
		RequestTimeout:     5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create publisher: %v", err)
	}
	return pub
}

func TestPublish_OneWritePerMetric(t *testing.T) {
	collector := &recordingCollector{}
	server := httptest.NewTLSServer(collector.handler())
	defer server.Close()

	pub := newTLSPublisher(t, server.URL)
	metrics := sampleMetrics()
	timeStamp := time.Unix(1700000000, 0)

	if err := pub.Publish(context.Background(), metrics, timeStamp); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if collector.requestCount() != len(metrics) {
		t.Fatalf("Expected %d writes, got %d", len(metrics), collector.requestCount())
	}

	seen := make(map[string]bool)
	for i, path := range collector.paths {
		key := path[1:] // strip leading slash
		if seen[key] {
			t.Errorf("Series %q was written more than once", key)
		}
		seen[key] = true

		want, ok := metrics[key]
		if !ok {
			t.Errorf("Unexpected POST target %q", path)
			continue
		}
		if collector.points[i].Value != want {
			t.Errorf("Series %q: expected value %v, got %v", key, want, collector.points[i].Value)
		}
		if collector.points[i].TimeStamp != 1700000000 {
			t.Errorf("Series %q: expected timestamp 1700000000, got %d", key, collector.points[i].TimeStamp)
		}
	}
}

func TestPublish_DeterministicOrder(t *testing.T) {
	collector := &recordingCollector{}
	server := httptest.NewTLSServer(collector.handler())
	defer server.Close()

	pub := newTLSPublisher(t, server.URL)
	if err := pub.Publish(context.Background(), sampleMetrics(), time.Now()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	for i, key := range calculator.Keys {
		if got := collector.paths[i]; got != "/"+key {
			t.Errorf("Write %d: expected /%s, got %s", i, key, got)
		}
	}
}

func TestPublish_StopsAfterFirstFailure(t *testing.T) {
	// The 7th write fails; the remaining 7 must never be issued
	collector := &recordingCollector{failFrom: 7}
	server := httptest.NewTLSServer(collector.handler())
	defer server.Close()

	pub := newTLSPublisher(t, server.URL)
	err := pub.Publish(context.Background(), sampleMetrics(), time.Now())
	if err == nil {
		t.Fatal("Expected Publish to fail")
	}

	if collector.requestCount() != 7 {
		t.Errorf("Expected exactly 7 writes before aborting, got %d", collector.requestCount())
	}

	var pubErr *PublishError
	if !errors.As(err, &pubErr) {
		t.Fatalf("Expected a *PublishError, got %T: %v", err, err)
	}
	if pubErr.Key != calculator.Keys[6] {
		t.Errorf("Expected failing series %q, got %q", calculator.Keys[6], pubErr.Key)
	}
	if pubErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500 on the error, got %d", pubErr.StatusCode)
	}
	if pubErr.Written != 6 {
		t.Errorf("Expected 6 acknowledged writes, got %d", pubErr.Written)
	}
}

func TestPublish_DefaultClientRejectsSelfSignedCertificate(t *testing.T) {
	collector := &recordingCollector{}
	server := httptest.NewTLSServer(collector.handler())
	defer server.Close()

	pub, err := New(&Config{
		BaseURL:        server.URL,
		RequestTimeout: 5 * time.Second,
		// InsecureSkipVerify deliberately left false
	})
	if err != nil {
		t.Fatalf("Failed to create publisher: %v", err)
	}

	err = pub.Publish(context.Background(), sampleMetrics(), time.Now())
	if err == nil {
		t.Fatal("Expected the default client to refuse a self-signed certificate")
	}

	var pubErr *PublishError
	if !errors.As(err, &pubErr) {
		t.Fatalf("Expected a *PublishError, got %T: %v", err, err)
	}
	if pubErr.Key != calculator.Keys[0] {
		t.Errorf("Expected the first series %q to be in flight, got %q", calculator.Keys[0], pubErr.Key)
	}
	if collector.requestCount() != 0 {
		t.Errorf("Expected no completed writes, got %d", collector.requestCount())
	}
}

func TestNew_RejectsMalformedBaseURL(t *testing.T) {
	cases := []string{
		"",
		"://missing-scheme",
		"ftp://wrong-scheme.example",
		"https://",
	}

	for _, baseURL := range cases {
		if _, err := New(&Config{BaseURL: baseURL}); err == nil {
			t.Errorf("Expected New to reject base URL %q", baseURL)
		}
	}
}

func TestPublish_UnknownKeysFollowKnownOnes(t *testing.T) {
	collector := &recordingCollector{}
	server := httptest.NewTLSServer(collector.handler())
	defer server.Close()

	pub := newTLSPublisher(t, server.URL)
	metrics := map[string]float64{
		"zzzCustomSeries":                    1,
		calculator.KeyNumberOfResources:      2,
		calculator.KeyTotalTaskTimeInSeconds: 3,
	}

	if err := pub.Publish(context.Background(), metrics, time.Now()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	expected := []string{
		"/" + calculator.KeyNumberOfResources,
		"/" + calculator.KeyTotalTaskTimeInSeconds,
		"/zzzCustomSeries",
	}
	if len(collector.paths) != len(expected) {
		t.Fatalf("Expected %d writes, got %d", len(expected), len(collector.paths))
	}
	for i, want := range expected {
		if collector.paths[i] != want {
			t.Errorf("Write %d: expected %s, got %s", i, want, collector.paths[i])
		}
	}
}
