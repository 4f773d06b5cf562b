// Package observability provides OpenTelemetry tracing for the search pipeline.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name for tansaku spans.
const TracerName = "github.com/hyperjump/tansaku"

// TracingConfig configures the exporter.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	// Endpoint is the OTLP gRPC endpoint (e.g. "localhost:4317"). Empty disables export.
	Endpoint string
	// SampleRate is the trace sampling ratio in [0, 1].
	SampleRate float64
}

// TracerProvider wraps the OpenTelemetry tracer provider.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing installs a global tracer provider exporting to cfg.Endpoint.
// Returns a no-op provider if the endpoint is empty.
func InitTracing(ctx context.Context, cfg TracingConfig) (*TracerProvider, error) {
	if cfg.Endpoint == "" {
		return &TracerProvider{tracer: otel.Tracer(TracerName)}, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "tansaku"
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRate)),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{provider: provider, tracer: provider.Tracer(TracerName)}, nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Shutdown flushes and stops the provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the underlying tracer.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// StartSearchSpan starts the root span of one search.
func StartSearchSpan(ctx context.Context, query string, maxResults int) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "search",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("search.query", query),
			attribute.Int("search.max_results", maxResults),
		),
	)
}

// StartVariantSpan starts a span for one query variant's embed-and-query step.
func StartVariantSpan(ctx context.Context, index int) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, fmt.Sprintf("search.variant.%d", index),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.Int("search.variant.index", index)),
	)
}

// RecordSearchResult sets the outcome attributes of a search span.
func RecordSearchResult(span trace.Span, variants, results int, degraded []string) {
	span.SetAttributes(
		attribute.Int("search.variant_count", variants),
		attribute.Int("search.result_count", results),
	)
	if len(degraded) > 0 {
		span.SetAttributes(attribute.StringSlice("search.degraded", degraded))
	}
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
