package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// MeterName is the instrumentation scope for every gateway instrument
const MeterName = "github.com/upb/llm-content-gateway"

// Attempt and generation outcomes
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeNoProviders = "no_providers"
	OutcomeAllFailed   = "all_failed"
	OutcomeRateLimited = "rate_limited"
	OutcomeCancelled   = "cancelled"
)

// Metrics records provider and generation instruments
type Metrics struct {
	attempts metric.Int64Counter
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	retries  metric.Int64Counter
}

// NewMetrics registers the gateway instruments on mp
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(MeterName)

	attempts, err := meter.Int64Counter("content.provider.attempts",
		metric.WithDescription("Provider attempts by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create attempts counter: %w", err)
	}

	requests, err := meter.Int64Counter("content.generation.requests",
		metric.WithDescription("Fallback generation requests by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create requests counter: %w", err)
	}

	latency, err := meter.Float64Histogram("content.provider.latency",
		metric.WithDescription("Provider attempt latency including retries"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create latency histogram: %w", err)
	}

	retries, err := meter.Int64Counter("content.retry.count",
		metric.WithDescription("Retries performed against a provider"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry counter: %w", err)
	}

	return &Metrics{
		attempts: attempts,
		requests: requests,
		latency:  latency,
		retries:  retries,
	}, nil
}

// NewNopMetrics returns instruments that discard every measurement
func NewNopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider())
	return m
}

// RecordAttempt records one provider attempt and its duration
func (m *Metrics) RecordAttempt(ctx context.Context, provider, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	)
	m.attempts.Add(ctx, 1, attrs)
	m.latency.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}

// RecordRetries adds n retries for provider
func (m *Metrics) RecordRetries(ctx context.Context, provider string, n int) {
	if n <= 0 {
		return
	}
	m.retries.Add(ctx, int64(n), metric.WithAttributes(attribute.String("provider", provider)))
}

// RecordGeneration records the terminal outcome of one fallback run
func (m *Metrics) RecordGeneration(ctx context.Context, outcome string) {
	m.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
