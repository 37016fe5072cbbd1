package observability

import (
	"context"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Job outcomes reported by RecordJobCompleted.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeInitError = "init_error"
)

// Metrics holds the worker's instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	meter metric.Meter

	HTTPRequestDuration metric.Float64Histogram
	HTTPRequestsTotal   metric.Int64Counter

	JobDuration metric.Float64Histogram
	JobsTotal   metric.Int64Counter
	JobsActive  metric.Int64UpDownCounter

	PollsTotal     metric.Int64Counter
	ChargesTotal   metric.Int64Counter
	ChargedSeconds metric.Float64Counter
}

// NewMetrics registers every instrument on a dedicated Prometheus registry
// and returns the scrape handler for it.
func NewMetrics(ctx context.Context) (*Metrics, http.Handler, error) {
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("pseudorandom-worker")
	m := &Metrics{meter: meter}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 60, 300, 600),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobDuration, err = meter.Float64Histogram(
		"prediction_job_duration_seconds",
		metric.WithDescription("Wall time from intake to the job's final state"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 120, 240, 480, 600),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobsTotal, err = meter.Int64Counter(
		"prediction_jobs_total",
		metric.WithDescription("Prediction jobs by final outcome"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobsActive, err = meter.Int64UpDownCounter(
		"prediction_jobs_active",
		metric.WithDescription("Prediction jobs currently being orchestrated"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PollsTotal, err = meter.Int64Counter(
		"provider_polls_total",
		metric.WithDescription("Provider poll calls by observed status"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ChargesTotal, err = meter.Int64Counter(
		"charges_total",
		metric.WithDescription("Charges written by final status"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ChargedSeconds, err = meter.Float64Counter(
		"charged_compute_seconds_total",
		metric.WithDescription("Compute seconds billed to users"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, nil, err
	}

	return m, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(methodAttr(method), pathAttr(path), statusCodeAttr(statusCode))
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
}

// RecordJobStarted marks a job as in flight.
func (m *Metrics) RecordJobStarted(ctx context.Context, jobType string) {
	if m == nil {
		return
	}
	m.JobsActive.Add(ctx, 1, metric.WithAttributes(jobTypeAttr(jobType)))
}

// RecordJobCompleted records the outcome of a job started with
// RecordJobStarted.
func (m *Metrics) RecordJobCompleted(ctx context.Context, jobType, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.JobsActive.Add(ctx, -1, metric.WithAttributes(jobTypeAttr(jobType)))
	attrs := metric.WithAttributes(jobTypeAttr(jobType), outcomeAttr(outcome))
	m.JobsTotal.Add(ctx, 1, attrs)
	m.JobDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordJobRejected counts a job that failed before it was started.
func (m *Metrics) RecordJobRejected(ctx context.Context, jobType string) {
	if m == nil {
		return
	}
	m.JobsTotal.Add(ctx, 1, metric.WithAttributes(jobTypeAttr(jobType), outcomeAttr(OutcomeInitError)))
}

// RecordPoll counts one provider poll.
func (m *Metrics) RecordPoll(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.PollsTotal.Add(ctx, 1, metric.WithAttributes(statusAttr(status)))
}

// RecordCharge counts a written charge and the compute time it billed.
func (m *Metrics) RecordCharge(ctx context.Context, subtype, status string, amount float64) {
	if m == nil {
		return
	}
	m.ChargesTotal.Add(ctx, 1, metric.WithAttributes(subtypeAttr(subtype), statusAttr(status)))
	if amount > 0 {
		m.ChargedSeconds.Add(ctx, amount, metric.WithAttributes(subtypeAttr(subtype)))
	}
}
