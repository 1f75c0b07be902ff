// Package observability wires OpenTelemetry tracing into the service. Spans
// are exported over OTLP HTTP to whatever collector the deployment points at.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/milan604/ops-admin/pkg/config"
	"github.com/milan604/ops-admin/pkg/logger"
	"github.com/milan604/ops-admin/pkg/version"
)

// Tracing is the surface handlers and services use to create spans.
type Tracing interface {
	StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span)
	Shutdown(ctx context.Context) error
	Tracer() trace.Tracer
}

// Observability manages the OpenTelemetry tracer provider.
type Observability struct {
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	log            logger.LogManager
	serviceName    string
}

// New creates an Observability instance exporting to the configured
// OTLP HTTP endpoint.
func New(log logger.LogManager, cfg *config.Config) (Tracing, error) {
	serviceName := cfg.GetStringD("observability.service_name", version.ServiceName)
	endpoint := cfg.GetStringD("observability.otlp_endpoint", "localhost:4318")

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	exporter, err := otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	tracer := tp.Tracer(serviceName, trace.WithInstrumentationVersion(version.Version))

	obs := &Observability{
		tracerProvider: tp,
		tracer:         tracer,
		log:            log,
		serviceName:    serviceName,
	}

	log.InfoF("observability initialized: service=%s endpoint=%s", serviceName, endpoint)
	return obs, nil
}

// StartSpan creates a new span for tracing.
func (o *Observability) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, opts...)
}

// Shutdown flushes pending spans and stops the tracer provider.
func (o *Observability) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := o.tracerProvider.Shutdown(ctx); err != nil {
		o.log.ErrorF("tracer provider shutdown: %v", err)
		return err
	}
	o.log.Info("observability shutdown completed")
	return nil
}

// Tracer returns the tracer instance.
func (o *Observability) Tracer() trace.Tracer {
	return o.tracer
}
