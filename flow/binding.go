package flow

import (
	"context"
	"maps"
	"slices"

	"github.com/kbukum/stepflow/errors"
)

// Producer computes an input value when its step is called.
type Producer func(ctx context.Context, inst *Instance) (any, error)

// Value produces a constant.
func Value(v any) Producer {
	return func(context.Context, *Instance) (any, error) { return v, nil }
}

// Attr produces the instance attribute name. Reading an unset attribute
// fails with ATTRIBUTE_NOT_FOUND.
func Attr(name string) Producer {
	return func(_ context.Context, inst *Instance) (any, error) {
		v, ok := inst.Get(name)
		if !ok {
			return nil, errors.AttributeNotFound(name)
		}
		return v, nil
	}
}

// StepOption configures the bindings of a step.
type StepOption func(*StepItem)

type input struct {
	name     string
	producer Producer
}

type output struct {
	key  string // key in the step's Result data
	attr string // instance attribute it is bound to
}

// In binds the argument name to a producer evaluated at call time.
func In(name string, p Producer) StepOption {
	return func(s *StepItem) {
		s.inputs = append(s.inputs, input{name: name, producer: p})
	}
}

// InValue binds the argument name to a constant.
func InValue(name string, v any) StepOption {
	return In(name, Value(v))
}

// InAttr binds each argument to the instance attribute of the same name.
func InAttr(names ...string) StepOption {
	return func(s *StepItem) {
		for _, name := range names {
			s.inputs = append(s.inputs, input{name: name, producer: Attr(name)})
		}
	}
}

// Out binds each key of a successful step's data to the instance attribute
// of the same name.
func Out(keys ...string) StepOption {
	return func(s *StepItem) {
		for _, k := range keys {
			s.outputs = append(s.outputs, output{key: k, attr: k})
		}
	}
}

// OutAs binds result keys to differently named attributes.
func OutAs(renames map[string]string) StepOption {
	return func(s *StepItem) {
		for _, k := range slices.Sorted(maps.Keys(renames)) {
			s.outputs = append(s.outputs, output{key: k, attr: renames[k]})
		}
	}
}
