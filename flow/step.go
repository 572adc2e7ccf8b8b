package flow

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kbukum/stepflow/errors"
	"github.com/kbukum/stepflow/logger"
	"github.com/kbukum/stepflow/result"
)

// Item is an entry of a pipeline: a step or a branch chain. A collection
// binding runs as a Func step whose body returns the collection's Result:
//
//	flow.Func("all_in_stock", func(ctx context.Context, inst *flow.Instance, _ flow.Args) (result.Result, error) {
//		skus, _ := inst.Get("skus")
//		return inst.Collection(skus).All(inStock).Result(ctx)
//	})
type Item interface {
	// prepare validates the item against d and returns an indexed copy.
	prepare(d *Definition, next *int) (Item, error)
	run(ctx context.Context, inst *Instance) (result.Result, error)
}

type stepKind int

const (
	kindService stepKind = iota
	kindMethod
	kindFunc
)

// StepItem is one executable step. Every StepItem in a definition, branch
// conditions included, gets a depth-first index when the definition is
// built.
type StepItem struct {
	kind    stepKind
	name    string
	svc     Service
	fn      MethodFunc
	inputs  []input
	outputs []output
	index   int
}

// StepInfo identifies an executed step in hooks and logs.
type StepInfo struct {
	Index int
	Name  string
}

// Step calls svc with the given bindings.
func Step(svc Service, opts ...StepOption) *StepItem {
	s := &StepItem{kind: kindService, svc: svc}
	if svc != nil {
		s.name = svc.Name()
	}
	return s.apply(opts)
}

// Method calls the definition's method name.
func Method(name string, opts ...StepOption) *StepItem {
	return (&StepItem{kind: kindMethod, name: name}).apply(opts)
}

// Func calls an inline step body.
func Func(name string, fn MethodFunc, opts ...StepOption) *StepItem {
	return (&StepItem{kind: kindFunc, name: name, fn: fn}).apply(opts)
}

func (s *StepItem) apply(opts []StepOption) *StepItem {
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name used in hooks, logs and spans.
func (s *StepItem) Name() string { return s.name }

func (s *StepItem) clone() *StepItem {
	c := *s
	c.inputs = slices.Clone(s.inputs)
	c.outputs = slices.Clone(s.outputs)
	return &c
}

func (s *StepItem) validate(definition string) error {
	switch {
	case s.kind == kindService && s.svc == nil:
		return errors.InvalidDefinition(definition, "step without a service")
	case s.kind == kindFunc && s.fn == nil:
		return errors.InvalidDefinition(definition, fmt.Sprintf("step %s without a body", s.name))
	case s.name == "":
		return errors.InvalidDefinition(definition, "step without a name")
	}
	for _, in := range s.inputs {
		if in.name == "" || in.producer == nil {
			return errors.InvalidDefinition(definition, fmt.Sprintf("step %s has an empty input binding", s.name))
		}
	}
	for _, out := range s.outputs {
		if out.key == "" || out.attr == "" {
			return errors.InvalidDefinition(definition, fmt.Sprintf("step %s has an empty output binding", s.name))
		}
	}
	return nil
}

func (s *StepItem) prepare(d *Definition, next *int) (Item, error) {
	if s == nil {
		return nil, errors.InvalidDefinition(d.name, "nil step")
	}
	if err := s.validate(d.name); err != nil {
		return nil, err
	}
	c := s.clone()
	if c.kind == kindMethod {
		fn, ok := d.methods[c.name]
		if !ok {
			return nil, errors.UnknownMethod(d.name, c.name)
		}
		c.fn = fn
	}
	c.index = *next
	*next++
	return c, nil
}

func (s *StepItem) info() StepInfo {
	return StepInfo{Index: s.index, Name: s.name}
}

// run executes the step with hooks, tracing, metrics and logging.
func (s *StepItem) run(ctx context.Context, inst *Instance) (result.Result, error) {
	d := inst.def
	info := s.info()
	ev := HookEvent{Instance: inst, Step: &info}
	d.hooks.fire(ctx, hookBefore, TargetStep, ev)

	stepCtx, span := inst.run.StartStep(ctx, s.index, s.name)
	start := time.Now()

	res, err := inst.invoke(stepCtx, s)
	if err == nil {
		err = inst.bind(s, res)
	}

	status := statusLabel(res, err)
	span.End(stepCtx, status, err)
	inst.log.Debug("run step", logger.StepFields(s.index, s.name, status, time.Since(start)))

	if err != nil {
		return res, err
	}
	ev.Result = res
	d.hooks.fire(ctx, hookAfter, TargetStep, ev)
	return res, nil
}

func (s *StepItem) args(ctx context.Context, inst *Instance) (Args, error) {
	args := make(Args, len(s.inputs))
	for _, in := range s.inputs {
		v, err := in.producer(ctx, inst)
		if err != nil {
			return nil, err
		}
		args[in.name] = v
	}
	return args, nil
}

func (s *StepItem) call(ctx context.Context, inst *Instance, args Args) (result.Result, error) {
	if s.svc != nil {
		return s.svc.Call(ctx, args)
	}
	return s.fn(ctx, inst, args)
}

// statusLabel names the outcome of a call for logs, spans and metrics.
func statusLabel(res result.Result, err error) string {
	if err != nil {
		return "exception"
	}
	return res.Status().String()
}
