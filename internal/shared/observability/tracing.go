package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "archcheck"

// Tracer is used for every span the tool emits. Until InitTracing installs an
// exporter it resolves to the global no-op provider.
var Tracer trace.Tracer = otel.Tracer(instrumentationName)

// TracingConfig selects the OTLP collector spans are exported to.
type TracingConfig struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
}

// InitTracing installs a batching OTLP/gRPC exporter as the global tracer
// provider. With no endpoint it does nothing. The returned function flushes
// and stops the exporter.
func InitTracing(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	Tracer = provider.Tracer(instrumentationName)
	return provider.Shutdown, nil
}
