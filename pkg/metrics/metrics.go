// Package metrics holds the OpenTelemetry instruments shared by the
// registration pipeline.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

// NewPrometheusMeterProvider returns a MeterProvider whose instruments are
// exported through reg.
func NewPrometheusMeterProvider(reg prometheus.Registerer) (*sdkmetric.MeterProvider, error) {
	exp, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("could not create otel exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)), nil
}

// Outcome labels a finished dispatch.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomePartial       Outcome = "partial"
	OutcomeInvalid       Outcome = "invalid"
	OutcomeConfiguration Outcome = "configuration"
	OutcomeUpstream      Outcome = "upstream"
	OutcomeEmailFailed   Outcome = "email_failed"
	OutcomeError         Outcome = "error"
)

// Recorder counts dispatches by outcome and records their duration.
// A nil *Recorder records nothing.
type Recorder struct {
	dispatches metric.Int64Counter
	duration   metric.Float64Histogram
}

// NewRecorder creates the instruments on meter.
func NewRecorder(meter metric.Meter) (*Recorder, error) {
	dispatches, err := meter.Int64Counter("registration.dispatches",
		metric.WithDescription("Registration requests handled by the dispatcher, by outcome."),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, fmt.Errorf("could not create dispatch counter: %w", err)
	}

	duration, err := meter.Float64Histogram("registration.dispatch.duration",
		metric.WithDescription("Time spent dispatching a registration request."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DefaultBuckets...))
	if err != nil {
		return nil, fmt.Errorf("could not create dispatch histogram: %w", err)
	}

	return &Recorder{dispatches: dispatches, duration: duration}, nil
}

// Dispatch records one finished dispatch.
func (r *Recorder) Dispatch(ctx context.Context, outcome Outcome, took time.Duration) {
	if r == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", string(outcome)))
	r.dispatches.Add(ctx, 1, attrs)
	r.duration.Record(ctx, took.Seconds(), attrs)
}
