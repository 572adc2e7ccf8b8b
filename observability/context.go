package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// RunContext holds observability state for one pipeline run.
// A nil Tracer records no spans; nil Metrics records no metrics.
type RunContext struct {
	Definition string
	RunID      string
	StartTime  time.Time
	Tracer     trace.Tracer
	Metrics    *Metrics
}

// NewRunContext creates a run context starting now.
func NewRunContext(definition, runID string, tracer trace.Tracer, metrics *Metrics) *RunContext {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(InstrumentationName)
	}
	return &RunContext{
		Definition: definition,
		RunID:      runID,
		StartTime:  time.Now(),
		Tracer:     tracer,
		Metrics:    metrics,
	}
}

type runContextKey struct{}

// WithRunContext stores a RunContext in the context.
func WithRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// RunContextFromContext retrieves the RunContext from context, or nil.
func RunContextFromContext(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runContextKey{}).(*RunContext); ok {
		return rc
	}
	return nil
}

// StartRun starts the pipeline span and records the run start metric.
func (rc *RunContext) StartRun(ctx context.Context) (context.Context, trace.Span) {
	ctx, span := rc.Tracer.Start(ctx, SpanPipeline, trace.WithAttributes(
		attribute.String(AttrDefinition, rc.Definition),
		attribute.String(AttrRunID, rc.RunID),
	))
	if rc.Metrics != nil {
		rc.Metrics.RecordRunStart(ctx, rc.Definition)
	}
	return WithRunContext(ctx, rc), span
}

// EndRun ends the pipeline span and records run-end metrics. status is the
// final Result status, or "exception" when the run ended with a Go error.
func (rc *RunContext) EndRun(ctx context.Context, span trace.Span, status string, err error) {
	duration := time.Since(rc.StartTime)
	finish(span, status, duration, err)

	if rc.Metrics != nil {
		if err != nil {
			rc.Metrics.RecordError(ctx, "run", rc.Definition)
		}
		rc.Metrics.RecordRunEnd(ctx, rc.Definition, status, duration)
	}
}

// StepSpan tracks one executed step.
type StepSpan struct {
	run   *RunContext
	span  trace.Span
	name  string
	start time.Time
}

// StartStep starts a child span for the step at index.
func (rc *RunContext) StartStep(ctx context.Context, index int, name string) (context.Context, *StepSpan) {
	ctx, span := rc.Tracer.Start(ctx, SpanStep, trace.WithAttributes(
		attribute.String(AttrDefinition, rc.Definition),
		attribute.String(AttrStep, name),
		attribute.Int(AttrStepIndex, index),
	))
	return ctx, &StepSpan{run: rc, span: span, name: name, start: time.Now()}
}

// End finishes the step span and records the step metric.
func (s *StepSpan) End(ctx context.Context, status string, err error) {
	duration := time.Since(s.start)
	finish(s.span, status, duration, err)

	if m := s.run.Metrics; m != nil {
		if err != nil {
			m.RecordError(ctx, "step", s.run.Definition)
		}
		m.RecordStep(ctx, s.run.Definition, s.name, status, duration)
	}
}

// Duration returns the elapsed time since the run started.
func (rc *RunContext) Duration() time.Duration {
	return time.Since(rc.StartTime)
}

func finish(span trace.Span, status string, duration time.Duration, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()
}
