package flow

import (
	"context"
	"maps"
	"slices"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/stepflow/errors"
	"github.com/kbukum/stepflow/logger"
	"github.com/kbukum/stepflow/observability"
	"github.com/kbukum/stepflow/result"
)

// FinalFunc computes the Result of a pipeline whose items all succeeded.
type FinalFunc func(ctx context.Context, inst *Instance) (result.Result, error)

// Definition is an immutable pipeline: its items, methods, hooks and
// policies. A Definition is itself a Service, so a whole pipeline can run as
// a nested step of another one.
type Definition struct {
	name          string
	items         []Item
	methods       map[string]MethodFunc
	hooks         hooks
	final         FinalFunc
	faultTolerant bool
	tracing       bool
	tracer        trace.TracerProvider
	metrics       *observability.Metrics
	log           *logger.Logger
	steps         int
}

// Option configures a Definition.
type Option func(*Definition)

// Steps appends items to the pipeline.
func Steps(items ...Item) Option {
	return func(d *Definition) {
		d.items = append(d.items, items...)
	}
}

// WithMethod declares a named method for Method steps.
func WithMethod(name string, fn MethodFunc) Option {
	return func(d *Definition) {
		d.methods[name] = fn
	}
}

// WithResult sets the Result of a pipeline whose items all succeed. Without
// it the Result of the last executed item is final.
func WithResult(fn FinalFunc) Option {
	return func(d *Definition) {
		d.final = fn
	}
}

// WithFaultTolerance converts errors returned by steps, and panics inside
// them, into error Results carrying exception, exception_message and step.
func WithFaultTolerance() Option {
	return func(d *Definition) {
		d.faultTolerant = true
	}
}

// WithLogger sets the logger of the definition. Defaults to the "flow"
// component logger.
func WithLogger(l *logger.Logger) Option {
	return func(d *Definition) {
		if l != nil {
			d.log = l
		}
	}
}

// WithTracing creates a pipeline span per call and a child span per step.
// A nil provider uses the global one at call time.
func WithTracing(tp trace.TracerProvider) Option {
	return func(d *Definition) {
		d.tracing = true
		d.tracer = tp
	}
}

// WithMetrics records run and step metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(d *Definition) {
		d.metrics = m
	}
}

// Define builds a Definition. Structural problems (empty names, a nil
// service, else declared twice, elsif after else) fail with
// INVALID_DEFINITION, Method steps naming an undeclared method with
// UNKNOWN_METHOD.
func Define(name string, opts ...Option) (*Definition, error) {
	d := &Definition{
		name:    name,
		methods: make(map[string]MethodFunc),
		log:     logger.Get("flow"),
	}
	for _, opt := range opts {
		opt(d)
	}
	if name == "" {
		return nil, errors.InvalidDefinition(name, "empty name")
	}
	for method, fn := range d.methods {
		if method == "" || fn == nil {
			return nil, errors.InvalidDefinition(name, "empty method declaration")
		}
	}

	next := 0
	items, err := prepareItems(d, d.items, &next)
	if err != nil {
		return nil, err
	}
	d.items = items
	d.steps = next
	return d, nil
}

// MustDefine is like Define but panics on error.
func MustDefine(name string, opts ...Option) *Definition {
	d, err := Define(name, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

func prepareItems(d *Definition, items []Item, next *int) ([]Item, error) {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			return nil, errors.InvalidDefinition(d.name, "nil item")
		}
		p, err := it.prepare(d, next)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Name returns the definition name.
func (d *Definition) Name() string { return d.name }

// StepCount returns the number of indexed steps, conditions included.
func (d *Definition) StepCount() int { return d.steps }

// Methods returns the declared method names, sorted.
func (d *Definition) Methods() []string {
	return slices.Sorted(maps.Keys(d.methods))
}

// Call runs the pipeline and returns its final Result.
func (d *Definition) Call(ctx context.Context, args Args) (result.Result, error) {
	_, res, err := d.Execute(ctx, args)
	return res, err
}

// Execute runs the pipeline and also returns the instance, so callers can
// read the attributes bound by the steps.
//
// Items run in declaration order. A failure or error Result stops the run
// and is returned unchanged; a Go error (an unhandled exception, a protocol
// violation or a cancelled context) stops it and is returned as error.
func (d *Definition) Execute(ctx context.Context, args Args) (*Instance, result.Result, error) {
	inst := d.newInstance(args)
	ctx = logger.ContextWithRunID(ctx, inst.id)
	ctx, span := inst.run.StartRun(ctx)

	inst.log.Debug("pipeline started")
	d.hooks.fire(ctx, hookBefore, TargetResult, HookEvent{Instance: inst})

	res, err := inst.runItems(ctx, d.items)
	if err == nil && res.IsSuccess() && d.final != nil {
		res, err = d.final(ctx, inst)
		if err == nil && !res.Valid() {
			err = invalidResult(d.name, "final result")
		}
	}

	status := statusLabel(res, err)
	inst.run.EndRun(ctx, span, status, err)
	if err != nil {
		inst.log.Debug("pipeline aborted", logger.ErrorFields("execute", err))
		return inst, result.Result{}, err
	}

	d.hooks.fire(ctx, hookAfter, TargetResult, HookEvent{Instance: inst, Result: res})
	inst.log.Debug("pipeline finished", logger.MergeWithDuration(
		logger.Fields(logger.FieldStatus, status), inst.run.Duration()))
	return inst, res, nil
}

func (d *Definition) tracerFor() trace.Tracer {
	if !d.tracing {
		return nil
	}
	if d.tracer != nil {
		return d.tracer.Tracer(observability.InstrumentationName)
	}
	return observability.Tracer(observability.InstrumentationName)
}

func invalidResult(step, what string) error {
	return errors.New(errors.ErrCodeStepException, step+": "+what+" has no status")
}
