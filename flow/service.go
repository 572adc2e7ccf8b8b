package flow

import (
	"context"

	"github.com/kbukum/stepflow/result"
)

// Args are the named inputs of a service call.
type Args map[string]any

// Get returns the argument stored under key.
func (a Args) Get(key string) (any, bool) {
	v, ok := a[key]
	return v, ok
}

// Service is a callable step target. A service reports business outcomes as
// Results; a returned error is an unhandled exception and propagates out of
// the pipeline unless the definition is fault tolerant.
type Service interface {
	Name() string
	Call(ctx context.Context, args Args) (result.Result, error)
}

// ServiceFunc adapts a function to the call half of Service.
type ServiceFunc func(ctx context.Context, args Args) (result.Result, error)

// NewService wraps fn as a Service named name.
func NewService(name string, fn ServiceFunc) Service {
	return &funcService{name: name, fn: fn}
}

type funcService struct {
	name string
	fn   ServiceFunc
}

func (s *funcService) Name() string { return s.name }

func (s *funcService) Call(ctx context.Context, args Args) (result.Result, error) {
	return s.fn(ctx, args)
}

// MethodFunc is a step body with access to the running instance. Named
// methods are declared with WithMethod; inline ones with Func.
type MethodFunc func(ctx context.Context, inst *Instance, args Args) (result.Result, error)
