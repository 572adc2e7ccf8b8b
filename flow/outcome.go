package flow

import (
	"github.com/kbukum/stepflow/result"
)

// StepOutcome is the Result of a nested step together with its output
// bindings. Inside collection blocks it projects to the bound values:
//
//   - no outputs: true on success, false on failure
//   - one output: the bound value on success, nil on failure
//   - several outputs: a Data map keyed by attribute name on success
type StepOutcome struct {
	result  result.Result
	outputs []output
}

var _ result.Projectable = (*StepOutcome)(nil)

// Status returns the status of the step's Result.
func (o *StepOutcome) Status() result.Status { return o.result.Status() }

// Result returns the step's Result, unprojected.
func (o *StepOutcome) Result() result.Result { return o.result }

// Projected returns the value selected by the output bindings.
func (o *StepOutcome) Projected() (any, error) {
	switch len(o.outputs) {
	case 0:
		return o.result.Projected()
	case 1:
		return o.result.WithOnlyKeys(o.outputs[0].key).Projected()
	}
	keys := make([]string, len(o.outputs))
	renames := make(map[string]string, len(o.outputs))
	for i, out := range o.outputs {
		keys[i] = out.key
		if out.attr != out.key {
			renames[out.key] = out.attr
		}
	}
	return o.result.WithOnlyKeys(keys...).WithRenamedKeys(renames).Projected()
}
