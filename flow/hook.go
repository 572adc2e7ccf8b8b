package flow

import (
	"context"

	"github.com/kbukum/stepflow/result"
)

// Target selects what a hook is attached to.
type Target int

const (
	// TargetResult hooks run once per pipeline call.
	TargetResult Target = iota
	// TargetStep hooks run around every attempted step, conditions included.
	TargetStep
)

func (t Target) String() string {
	if t == TargetStep {
		return "step"
	}
	return "result"
}

type moment int

const (
	hookBefore moment = iota
	hookAfter
)

// HookEvent is passed to hooks. Step is nil for result hooks; Result is the
// zero Result for before hooks.
type HookEvent struct {
	Instance *Instance
	Step     *StepInfo
	Result   result.Result
}

// HookFunc observes a pipeline. Hooks cannot change control flow.
type HookFunc func(ctx context.Context, ev HookEvent)

type hook struct {
	moment moment
	target Target
	fn     HookFunc
}

// hooks is an ordered callback registry; callbacks run in registration
// order.
type hooks []hook

func (h hooks) fire(ctx context.Context, m moment, t Target, ev HookEvent) {
	for _, hk := range h {
		if hk.moment == m && hk.target == t {
			hk.fn(ctx, ev)
		}
	}
}

// Before registers fn to run before the pipeline or before each step.
func Before(target Target, fn HookFunc) Option {
	return func(d *Definition) {
		d.hooks = append(d.hooks, hook{moment: hookBefore, target: target, fn: fn})
	}
}

// After registers fn to run after the pipeline or after each attempted step,
// the short-circuiting one included. Hooks after a Go error do not run.
func After(target Target, fn HookFunc) Option {
	return func(d *Definition) {
		d.hooks = append(d.hooks, hook{moment: hookAfter, target: target, fn: fn})
	}
}
