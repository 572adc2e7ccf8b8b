package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/stepflow/logger"
)

// InstrumentationName names the tracer and meter used by stepflow.
const InstrumentationName = "github.com/kbukum/stepflow"

// Span names.
const (
	SpanPipeline = "stepflow.pipeline"
	SpanStep     = "stepflow.step"
)

// Span attribute keys.
const (
	AttrDefinition   = "stepflow.definition"
	AttrRunID        = "stepflow.run_id"
	AttrStep         = "stepflow.step.name"
	AttrStepIndex    = "stepflow.step.index"
	AttrStatus       = "stepflow.status"
	AttrDurationMs   = "duration_ms"
	AttrErrorMessage = "error.message"
)

// TracerConfig configures the exported tracer provider.
type TracerConfig struct {
	Service
	Exporter
	// SampleRate is the fraction of root runs traced, 0 to 1.
	SampleRate float64
}

// DefaultTracerConfig traces every run to a local insecure collector.
func DefaultTracerConfig(serviceName string) TracerConfig {
	svc, exp := developmentDefaults(serviceName)
	return TracerConfig{Service: svc, Exporter: exp, SampleRate: 1.0}
}

// InitTracer installs a batching OTLP tracer provider and the W3C trace
// context and baggage propagators globally. Shut the provider down on exit
// to flush pending spans.
func InitTracer(ctx context.Context, cfg *TracerConfig) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	res, err := cfg.Resource()
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(cfg.SampleRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Get("observability").Info("tracer initialized", logger.Fields(
		"service", cfg.Name,
		"endpoint", cfg.Endpoint,
		"sample_rate", cfg.SampleRate,
	))
	return tp, nil
}

// Sampler honors the parent's decision and samples new roots at rate.
func Sampler(rate float64) sdktrace.Sampler {
	root := sdktrace.TraceIDRatioBased(rate)
	switch {
	case rate >= 1:
		root = sdktrace.AlwaysSample()
	case rate <= 0:
		root = sdktrace.NeverSample()
	}
	return sdktrace.ParentBased(root)
}

// Tracer returns a named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
