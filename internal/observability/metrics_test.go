package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewMetricsServesRecordedSeries(t *testing.T) {
	ctx := context.Background()
	metrics, handler, err := NewMetrics(ctx)
	if err != nil {
		t.Fatalf("Failed to create metrics: %v", err)
	}

	metrics.RecordHTTPRequest(ctx, "POST", "/api/jobs", 200, 3*time.Second)
	metrics.RecordHTTPRequest(ctx, "GET", "/api/jobs/job-1", 500, time.Millisecond)
	metrics.RecordJobStarted(ctx, "semantic")
	metrics.RecordPoll(ctx, "processing")
	metrics.RecordPoll(ctx, "succeeded")
	metrics.RecordCharge(ctx, "semanticPredictionJob", "resolved", 4.2)
	metrics.RecordJobCompleted(ctx, "semantic", OutcomeSucceeded, 30*time.Second)
	metrics.RecordJobRejected(ctx, "")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{
		"prediction_jobs_total",
		"provider_polls_total",
		"charges_total",
		"http_requests_total",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("expected %s in scrape output", name)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var metrics *Metrics
	ctx := context.Background()
	// Should not panic
	metrics.RecordHTTPRequest(ctx, "GET", "/health", 200, time.Millisecond)
	metrics.RecordJobStarted(ctx, "refinement")
	metrics.RecordJobCompleted(ctx, "refinement", OutcomeFailed, time.Second)
	metrics.RecordJobRejected(ctx, "refinement")
	metrics.RecordPoll(ctx, "failed")
	metrics.RecordCharge(ctx, "refinementPredictionJob", "unresolved", 1)
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/health", "/health"},
		{"/metrics", "/metrics"},
		{"/api/jobs", "/api/jobs"},
		{"/api/jobs/abc123", "/api/jobs/{jobId}"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.input); got != tt.expected {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
