package flow

import (
	"context"
	"fmt"
	"maps"

	"github.com/google/uuid"

	"github.com/kbukum/stepflow/collection"
	"github.com/kbukum/stepflow/errors"
	"github.com/kbukum/stepflow/logger"
	"github.com/kbukum/stepflow/observability"
	"github.com/kbukum/stepflow/result"
)

// Instance is the per-call host of a Definition. It owns the attribute store
// that input bindings read and output bindings write. An Instance is used by
// one goroutine at a time.
type Instance struct {
	id    string
	def   *Definition
	attrs map[string]any
	log   *logger.Logger
	run   *observability.RunContext
}

func (d *Definition) newInstance(args Args) *Instance {
	id := uuid.NewString()
	return &Instance{
		id:    id,
		def:   d,
		attrs: maps.Clone(map[string]any(args)),
		log:   d.log.ForRun(d.name, id),
		run:   observability.NewRunContext(d.name, id, d.tracerFor(), d.metrics),
	}
}

// ID returns the run ID.
func (inst *Instance) ID() string { return inst.id }

// Definition returns the definition being run.
func (inst *Instance) Definition() *Definition { return inst.def }

// Logger returns the run logger, tagged with definition and run ID.
func (inst *Instance) Logger() *logger.Logger { return inst.log }

// Get returns the attribute name.
func (inst *Instance) Get(name string) (any, bool) {
	if inst.attrs == nil {
		return nil, false
	}
	v, ok := inst.attrs[name]
	return v, ok
}

// Set stores the attribute name.
func (inst *Instance) Set(name string, value any) {
	if inst.attrs == nil {
		inst.attrs = make(map[string]any)
	}
	inst.attrs[name] = value
}

// Attributes returns a copy of the attribute store.
func (inst *Instance) Attributes() map[string]any {
	return maps.Clone(inst.attrs)
}

// Success returns a success Result carrying data.
func (inst *Instance) Success(data ...result.Data) result.Result { return result.Success(data...) }

// Failure returns a failure Result carrying data.
func (inst *Instance) Failure(data ...result.Data) result.Result { return result.Failure(data...) }

// Error returns an error Result carrying data.
func (inst *Instance) Error(data ...result.Data) result.Result { return result.Error(data...) }

// Collection wraps src for the combinators of the collection package.
func (inst *Instance) Collection(src any) *collection.Collection {
	return collection.From(src)
}

// Step invokes svc as a nested step of the running instance, typically from
// inside a collection block. Inputs and outputs bind like those of a
// pipeline step; no hooks run. The outcome projects to its output bindings
// when it has any.
func (inst *Instance) Step(ctx context.Context, svc Service, opts ...StepOption) (*StepOutcome, error) {
	s := Step(svc, opts...)
	s.index = -1
	if err := s.validate(inst.def.name); err != nil {
		return nil, err
	}
	res, err := inst.invoke(ctx, s)
	if err != nil {
		return nil, err
	}
	if err := inst.bind(s, res); err != nil {
		return nil, err
	}
	return &StepOutcome{result: res, outputs: s.outputs}, nil
}

// runItems runs items in order until one does not succeed. An empty list
// succeeds.
func (inst *Instance) runItems(ctx context.Context, items []Item) (result.Result, error) {
	res := result.Success()
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return result.Result{}, err
		}
		r, err := it.run(ctx, inst)
		if err != nil {
			return r, err
		}
		res = r
		if !r.IsSuccess() {
			return r, nil
		}
	}
	return res, nil
}

// invoke evaluates the inputs of s and calls it. Under fault tolerance,
// errors and panics of the step body become error Results, except protocol
// errors, which always propagate.
func (inst *Instance) invoke(ctx context.Context, s *StepItem) (res result.Result, err error) {
	args, err := s.args(ctx, inst)
	if err != nil {
		return result.Result{}, err
	}

	if inst.def.faultTolerant {
		defer func() {
			if r := recover(); r != nil {
				res, err = inst.exception(s, errors.StepException(s.name, r)), nil
			}
		}()
	}

	res, err = s.call(ctx, inst, args)
	if err == nil && !res.Valid() {
		err = invalidResult(s.name, "returned Result")
	}
	if err != nil && inst.def.faultTolerant && !errors.IsProtocol(err) {
		return inst.exception(s, err), nil
	}
	return res, err
}

func (inst *Instance) exception(s *StepItem, err error) result.Result {
	inst.log.Warn("step exception converted to error result", logger.MergeWithError(
		logger.Fields(logger.FieldIndex, s.index, logger.FieldStep, s.name), err))
	return result.Error(result.Data{
		"exception":         err,
		"exception_message": err.Error(),
		"step":              s.name,
	}).WithMessage(err.Error())
}

// bind stores the declared outputs of a successful step. Either every output
// is bound or, when a key is missing, none is.
func (inst *Instance) bind(s *StepItem, res result.Result) error {
	if !res.IsSuccess() || len(s.outputs) == 0 {
		return nil
	}
	values := make([]any, len(s.outputs))
	for i, out := range s.outputs {
		v, ok := res.Get(out.key)
		if !ok {
			return errors.StepOutputMissing(s.name, out.key)
		}
		values[i] = v
	}
	for i, out := range s.outputs {
		inst.Set(out.attr, values[i])
	}
	return nil
}

// Port is a typed accessor for an instance attribute.
type Port[T any] struct {
	Key string
}

// Read returns the attribute behind port. A missing attribute fails with
// ATTRIBUTE_NOT_FOUND, a value of another type with INVALID_INPUT.
func Read[T any](inst *Instance, port Port[T]) (T, error) {
	var zero T
	raw, ok := inst.Get(port.Key)
	if !ok {
		return zero, errors.AttributeNotFound(port.Key)
	}
	val, ok := raw.(T)
	if !ok {
		return zero, errors.Validation(fmt.Sprintf("attribute %q: expected %T, got %T", port.Key, zero, raw))
	}
	return val, nil
}

// Write stores value in the attribute behind port.
func Write[T any](inst *Instance, port Port[T], value T) {
	inst.Set(port.Key, value)
}
