package flow

import (
	"context"
	"fmt"
	"testing"

	"github.com/kbukum/stepflow/logger"
	"github.com/kbukum/stepflow/result"
)

// callLog records every service call as "name" or "name:index" when the
// call carries an index argument.
type callLog struct {
	calls []string
}

func (l *callLog) record(name string, args Args) {
	if idx, ok := args["index"]; ok {
		l.calls = append(l.calls, fmt.Sprintf("%s:%v", name, idx))
		return
	}
	l.calls = append(l.calls, name)
}

func (l *callLog) returning(name string, res result.Result) Service {
	return NewService(name, func(_ context.Context, args Args) (result.Result, error) {
		l.record(name, args)
		return res, nil
	})
}

func (l *callLog) failing(name string, err error) Service {
	return NewService(name, func(_ context.Context, args Args) (result.Result, error) {
		l.record(name, args)
		return result.Result{}, err
	})
}

func (l *callLog) panicking(name string, v any) Service {
	return NewService(name, func(_ context.Context, args Args) (result.Result, error) {
		l.record(name, args)
		panic(v)
	})
}

func (l *callLog) success() Service  { return l.returning("success", result.Success()) }
func (l *callLog) failure() Service  { return l.returning("failure", result.Failure()) }
func (l *callLog) erroring() Service { return l.returning("error", result.Error()) }

func quiet(opts ...Option) []Option {
	return append([]Option{WithLogger(nopLogger())}, opts...)
}

func mustDefine(t *testing.T, name string, opts ...Option) *Definition {
	t.Helper()
	d, err := Define(name, quiet(opts...)...)
	if err != nil {
		t.Fatalf("Define(%q) failed: %v", name, err)
	}
	return d
}

func index(n int) StepOption { return InValue("index", n) }

func nopLogger() *logger.Logger { return logger.NewNop() }
