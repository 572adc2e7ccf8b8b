package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/stepflow/logger"
)

// MeterConfig configures the exported meter provider.
type MeterConfig struct {
	Service
	Exporter
	// Interval between exports; zero uses the SDK default.
	Interval time.Duration
}

// DefaultMeterConfig exports every 15 seconds to a local insecure collector.
func DefaultMeterConfig(serviceName string) MeterConfig {
	svc, exp := developmentDefaults(serviceName)
	return MeterConfig{Service: svc, Exporter: exp, Interval: 15 * time.Second}
}

// InitMeter installs a periodically exporting OTLP meter provider globally.
// Shut the provider down on exit to flush the last interval.
func InitMeter(ctx context.Context, cfg *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}
	res, err := cfg.Resource()
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Get("observability").Info("meter initialized", logger.Fields(
		"service", cfg.Name,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by the pipeline executor. Every
// measurement carries the definition name.
type Metrics struct {
	runTotal     metric.Int64Counter
	runDuration  metric.Float64Histogram
	runActive    metric.Int64UpDownCounter
	stepTotal    metric.Int64Counter
	stepDuration metric.Float64Histogram
	errorTotal   metric.Int64Counter
}

// NewMetrics creates the stepflow instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var errs []error
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return c
	}
	seconds := func(name, desc string) metric.Float64Histogram {
		h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		errs = append(errs, err)
		return h
	}

	m := &Metrics{
		runTotal:     counter("stepflow.run.total", "Pipeline runs by final status"),
		runDuration:  seconds("stepflow.run.duration", "Duration of pipeline runs"),
		stepTotal:    counter("stepflow.step.total", "Executed steps by status"),
		stepDuration: seconds("stepflow.step.duration", "Duration of steps"),
		errorTotal:   counter("stepflow.error.total", "Go errors and recovered exceptions by kind"),
	}
	active, err := meter.Int64UpDownCounter("stepflow.run.active",
		metric.WithDescription("Pipeline runs in progress"))
	errs = append(errs, err)
	m.runActive = active

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("creating stepflow instruments: %w", err)
	}
	return m, nil
}

func definitionAttr(definition string) attribute.KeyValue {
	return attribute.String("definition", definition)
}

// RecordRunStart increments the active run count.
func (m *Metrics) RecordRunStart(ctx context.Context, definition string) {
	m.runActive.Add(ctx, 1, metric.WithAttributes(definitionAttr(definition)))
}

// RecordRunEnd decrements the active run count and records the finished run.
func (m *Metrics) RecordRunEnd(ctx context.Context, definition, status string, duration time.Duration) {
	def := definitionAttr(definition)
	m.runActive.Add(ctx, -1, metric.WithAttributes(def))
	m.runTotal.Add(ctx, 1, metric.WithAttributes(def, attribute.String("status", status)))
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(def))
}

// RecordStep records one executed step.
func (m *Metrics) RecordStep(ctx context.Context, definition, step, status string, duration time.Duration) {
	def, name := definitionAttr(definition), attribute.String("step", step)
	m.stepTotal.Add(ctx, 1, metric.WithAttributes(def, name, attribute.String("status", status)))
	m.stepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(def, name))
}

// RecordError counts a Go error or recovered exception; kind is "run" or
// "step".
func (m *Metrics) RecordError(ctx context.Context, kind, definition string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(definitionAttr(definition), attribute.String("kind", kind)))
}
