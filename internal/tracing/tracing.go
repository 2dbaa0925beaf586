// Package tracing wraps the orchestrator's spans around
// go.opentelemetry.io/otel, falling back to a no-op tracer when
// OTEL_EXPORTER_OTLP_ENDPOINT is unset so the SDK never forces a
// collector dependency on a caller who hasn't configured one.
package tracing

import (
	"context"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "visadirect-sdk-go"

var (
	once   sync.Once
	tracer trace.Tracer
)

func getTracer() trace.Tracer {
	once.Do(func() {
		endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
		if endpoint == "" {
			tracer = otel.Tracer(instrumentationName)
			return
		}

		exporter, err := otlptracegrpc.New(context.Background(), otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
		if err != nil {
			tracer = otel.Tracer(instrumentationName)
			return
		}

		provider := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", instrumentationName))),
		)
		otel.SetTracerProvider(provider)
		tracer = provider.Tracer(instrumentationName)
	})
	return tracer
}

// StartSpan starts a span named name and returns the derived context and
// a Finish func that records err (if non-nil) before ending the span.
// Callers defer the returned func with a named error return so a span
// always reflects the operation's actual outcome (§9 compensation path).
func StartSpan(ctx context.Context, name string) (context.Context, func(err *error)) {
	spanCtx, span := getTracer().Start(ctx, name)
	return spanCtx, func(err *error) {
		if err != nil && *err != nil {
			span.RecordError(*err)
			span.SetStatus(codes.Error, (*err).Error())
		}
		span.End()
	}
}
