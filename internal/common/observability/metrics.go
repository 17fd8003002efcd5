package observability

import (
	"context"
	"time"

	"opulanz-onboarding/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability holds the OTel instruments of the submission pipeline. A zero value
// is usable and records nothing.
type Observability struct {
	meterProvider      *metric.MeterProvider
	submissionCounter  otelmetric.Int64Counter
	submissionDuration otelmetric.Float64Histogram
	jobCounter         otelmetric.Int64Counter
}

func New(serviceName string, log logger.Logger) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("prometheus exporter unavailable, otel metrics disabled", map[string]interface{}{"error": err})
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	submissionCounter, _ := meter.Int64Counter(
		"onboarding.submissions",
		otelmetric.WithDescription("Applications submitted"),
	)
	submissionDuration, _ := meter.Float64Histogram(
		"onboarding.submission.duration",
		otelmetric.WithDescription("Submission transport latency"),
		otelmetric.WithUnit("ms"),
	)
	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	return &Observability{
		meterProvider:      provider,
		submissionCounter:  submissionCounter,
		submissionDuration: submissionDuration,
		jobCounter:         jobCounter,
	}
}

func (o *Observability) RecordSubmission(ctx context.Context, wizard, outcome string) {
	if o == nil || o.submissionCounter == nil {
		return
	}
	o.submissionCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("wizard", wizard),
		attribute.String("outcome", outcome),
	))
}

func (o *Observability) RecordSubmissionDuration(ctx context.Context, wizard string, d time.Duration) {
	if o == nil || o.submissionDuration == nil {
		return
	}
	o.submissionDuration.Record(ctx, float64(d.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("wizard", wizard),
	))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
