package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const engineMeterName = "github.com/pavecast/pavecast/internal/engine"

// EngineMetrics records upstream calls, cache effectiveness and fallbacks.
type EngineMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
	fallbacks       metric.Int64Counter
}

// NewEngineMetrics creates the engine instruments on the global meter provider.
func NewEngineMetrics() (*EngineMetrics, error) {
	return NewEngineMetricsWithMeter(Meter(engineMeterName))
}

// NewEngineMetricsWithMeter creates the engine instruments on meter.
func NewEngineMetricsWithMeter(meter metric.Meter) (*EngineMetrics, error) {
	requestDuration, err := meter.Float64Histogram(
		"weather.upstream.duration",
		metric.WithDescription("Duration of upstream weather provider requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"weather.upstream.total",
		metric.WithDescription("Total number of upstream weather provider requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"weather.cache.hit",
		metric.WithDescription("Number of weather cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"weather.cache.miss",
		metric.WithDescription("Number of weather cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	fallbacks, err := meter.Int64Counter(
		"weather.fallback.total",
		metric.WithDescription("Number of responses served from synthetic fallback data"),
		metric.WithUnit("{response}"),
	)
	if err != nil {
		return nil, err
	}

	return &EngineMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		fallbacks:       fallbacks,
	}, nil
}

func operationAttrs(provider, operation string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
	}
}

// RecordRequest records one upstream call.
func (m *EngineMetrics) RecordRequest(ctx context.Context, provider, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := operationAttrs(provider, operation)
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}
	// The request context may already be cancelled by the upstream timeout.
	ctx = context.WithoutCancel(ctx)
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheHit records a cache hit.
func (m *EngineMetrics) RecordCacheHit(ctx context.Context, provider, operation string) {
	if m == nil {
		return
	}
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(operationAttrs(provider, operation)...))
}

// RecordCacheMiss records a cache miss.
func (m *EngineMetrics) RecordCacheMiss(ctx context.Context, provider, operation string) {
	if m == nil {
		return
	}
	m.cacheMisses.Add(ctx, 1, metric.WithAttributes(operationAttrs(provider, operation)...))
}

// RecordFallback records a response served from fallback data. reason is the
// upstream error kind.
func (m *EngineMetrics) RecordFallback(ctx context.Context, operation, reason string) {
	if m == nil {
		return
	}
	m.fallbacks.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(
		attribute.String("provider.operation", operation),
		attribute.String("fallback.reason", reason),
	))
}
