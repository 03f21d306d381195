// Package telemetry provides optional OpenTelemetry OTLP gRPC tracing
// of construction runs. Disabled unless an endpoint is configured.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Config configures the OTLP gRPC exporter.
type Config struct {
	// Endpoint is the OTLP gRPC endpoint (e.g. "localhost:4317").
	// Empty disables tracing entirely.
	Endpoint string

	// ServiceName identifies this service in traces.
	ServiceName string

	// ServiceVersion is the version of this service.
	ServiceVersion string

	// InsecureTLS disables TLS for the gRPC connection.
	InsecureTLS bool

	// BatchTimeout is how long to wait before sending a span batch.
	BatchTimeout time.Duration

	// ExportTimeout is the timeout for exporting a batch.
	ExportTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(serviceName string) Config {
	return Config{
		Endpoint:       "localhost:4317",
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		InsecureTLS:    true,
		BatchTimeout:   5 * time.Second,
		ExportTimeout:  30 * time.Second,
	}
}

// Exporter manages the tracer provider lifecycle.
type Exporter struct {
	mu sync.Mutex

	cfg            Config
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	shutdown       func(context.Context) error
	initialized    bool
}

// New creates an exporter for the given configuration.
func New(cfg Config) *Exporter {
	return &Exporter{cfg: cfg}
}

// Init sets up the OTLP exporter and global tracer provider, returning
// a shutdown function that flushes and closes the exporter.
func (e *Exporter) Init(ctx context.Context) (func(context.Context) error, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return e.shutdown, nil
	}

	var dialOpts []grpc.DialOption
	exporterOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(e.cfg.Endpoint),
		otlptracegrpc.WithTimeout(e.cfg.ExportTimeout),
	}
	if e.cfg.InsecureTLS {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
	}
	exporterOpts = append(exporterOpts, otlptracegrpc.WithDialOption(dialOpts...))

	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(e.cfg.ServiceName),
			semconv.ServiceVersion(e.cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create resource: %w", err)
	}

	e.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(e.cfg.BatchTimeout),
			sdktrace.WithExportTimeout(e.cfg.ExportTimeout),
		),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(e.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	e.tracer = e.tracerProvider.Tracer(e.cfg.ServiceName)
	e.shutdown = func(ctx context.Context) error {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.initialized {
			return nil
		}
		e.initialized = false
		return e.tracerProvider.Shutdown(ctx)
	}
	e.initialized = true
	return e.shutdown, nil
}

// Tracer returns the tracer; a no-op tracer before Init.
func (e *Exporter) Tracer() trace.Tracer {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tracer == nil {
		return noop.NewTracerProvider().Tracer(e.cfg.ServiceName)
	}
	return e.tracer
}

// StartRun opens a span around one construction run.
func (e *Exporter) StartRun(ctx context.Context, source string) (context.Context, trace.Span) {
	return e.Tracer().Start(ctx, "mepg.build",
		trace.WithAttributes(attribute.String("mepg.source", source)))
}
