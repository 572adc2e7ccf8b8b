package collection

import (
	"context"
	stderrors "errors"
	"reflect"

	"github.com/kbukum/stepflow/result"
	"github.com/kbukum/stepflow/sequence"
)

// abort carries an error Result out of the iterator chain.
type abort struct {
	res result.Result
}

func (a *abort) Error() string { return "collection aborted with " + a.res.String() }

// Result evaluates the chain. Protocol violations and errors returned by
// blocks are Go errors; an error Result produced by a block is returned as
// the Result.
func (c *Collection) Result(ctx context.Context) (result.Result, error) {
	if c.err != nil {
		return result.Result{}, c.err
	}
	res, err := c.evaluate(ctx)
	var a *abort
	if stderrors.As(err, &a) {
		return a.res, nil
	}
	return res, err
}

func (c *Collection) evaluate(ctx context.Context) (result.Result, error) {
	seq := c.source
	for _, s := range c.stages {
		seq = s.apply(seq)
		if seq.Finite() {
			vals, err := sequence.Collect(ctx, seq)
			if err != nil {
				return result.Result{}, err
			}
			seq = sequence.FromSlice(vals)
		}
	}
	if c.terminal == nil {
		vals, err := sequence.Collect(ctx, seq)
		if err != nil {
			return result.Result{}, err
		}
		return result.Success(result.Data{"values": c.shape(vals)}), nil
	}
	return c.terminal.run(ctx, seq)
}

// shape rebuilds a map source's type when every stage kept its entries.
func (c *Collection) shape(vals []any) any {
	if c.rebuild != nil && shapeKept(c.stages) {
		return c.rebuild(vals)
	}
	if vals == nil {
		return []any{}
	}
	return vals
}

func shapeKept(stages []stage) bool {
	for _, s := range stages {
		if !s.keepsShape() {
			return false
		}
	}
	return true
}

func (s stage) apply(seq *sequence.Sequence[any]) *sequence.Sequence[any] {
	switch s.kind {
	case stageMap, stageMapResults:
		return sequence.Map(seq, func(ctx context.Context, el any) (any, error) {
			return s.value(ctx, el)
		})
	case stageFlatMap:
		return sequence.FlatMap(seq, func(ctx context.Context, el any) (*sequence.Sequence[any], error) {
			v, err := s.value(ctx, el)
			if err != nil {
				return nil, err
			}
			return sequence.FromSlice(flatten(v)), nil
		})
	case stageSelect, stageReject:
		keep := s.kind == stageSelect
		return sequence.Filter(seq, func(ctx context.Context, el any) (bool, error) {
			v, err := s.value(ctx, el)
			if err != nil {
				return false, err
			}
			return truthy(v) == keep, nil
		})
	case stageTake:
		return sequence.Take(seq, s.n)
	case stageDrop:
		return sequence.Drop(seq, s.n)
	case stageWithIndex:
		return sequence.Map(sequence.WithIndex(seq), func(_ context.Context, ix sequence.Indexed[any]) (any, error) {
			return ix, nil
		})
	}
	return seq
}

func (s stage) value(ctx context.Context, el any) (any, error) {
	if s.kind == stageMapResults {
		return callResults(ctx, s.block, el)
	}
	return call(ctx, s.block, el)
}

func (t *terminal) run(ctx context.Context, seq *sequence.Sequence[any]) (result.Result, error) {
	switch t.kind {
	case termAll, termAny, termNone:
		// All stops at the first falsy value, Any and None at the first truthy.
		stopOn := t.kind != termAll
		found := false
		err := sequence.ForEach(ctx, seq, func(ctx context.Context, el any) (bool, error) {
			v, err := call(ctx, t.block, el)
			if err != nil {
				return false, err
			}
			if truthy(v) == stopOn {
				found = true
				return false, nil
			}
			return true, nil
		})
		if err != nil {
			return result.Result{}, err
		}
		if t.kind == termAny {
			return status(found), nil
		}
		return status(!found), nil

	case termDetect:
		var match any
		found := false
		err := sequence.ForEach(ctx, seq, func(ctx context.Context, el any) (bool, error) {
			v, err := call(ctx, t.block, el)
			if err != nil {
				return false, err
			}
			if truthy(v) {
				match, found = el, true
				return false, nil
			}
			return true, nil
		})
		if err != nil {
			return result.Result{}, err
		}
		if found {
			return result.Success(result.Data{"value": match}), nil
		}
		if t.ifNone == nil {
			return result.Failure(), nil
		}
		raw, err := t.ifNone(ctx)
		if err != nil {
			return result.Result{}, err
		}
		v, err := interpret(raw)
		if err != nil {
			return result.Result{}, err
		}
		return result.Success(result.Data{"value": v}), nil

	case termFirst:
		vals, err := sequence.Collect(ctx, sequence.Take(seq, 1))
		if err != nil {
			return result.Result{}, err
		}
		if len(vals) == 0 {
			return result.Failure(), nil
		}
		return result.Success(result.Data{"value": vals[0]}), nil

	case termFirstN:
		vals, err := sequence.Collect(ctx, sequence.Take(seq, t.n))
		if err != nil {
			return result.Result{}, err
		}
		if vals == nil {
			vals = []any{}
		}
		return result.Success(result.Data{"values": vals}), nil

	case termCount:
		n := 0
		err := sequence.ForEach(ctx, seq, func(ctx context.Context, el any) (bool, error) {
			if t.block == nil {
				n++
				return true, nil
			}
			v, err := call(ctx, t.block, el)
			if err != nil {
				return false, err
			}
			if truthy(v) {
				n++
			}
			return true, nil
		})
		if err != nil {
			return result.Result{}, err
		}
		return result.Success(result.Data{"value": n}), nil

	case termInclude:
		found := false
		err := sequence.ForEach(ctx, seq, func(_ context.Context, el any) (bool, error) {
			found = reflect.DeepEqual(el, t.value)
			return !found, nil
		})
		if err != nil {
			return result.Result{}, err
		}
		return status(found), nil
	}
	return result.Failure(), nil
}

func status(ok bool) result.Result {
	if ok {
		return result.Success()
	}
	return result.Failure()
}

// call runs block on el, or uses el itself when block is nil, and
// interprets the value.
func call(ctx context.Context, block Block, el any) (any, error) {
	raw := el
	if block != nil {
		var err error
		if raw, err = block(ctx, el); err != nil {
			return nil, err
		}
	}
	return interpret(raw)
}

func callResults(ctx context.Context, block Block, el any) (any, error) {
	raw := el
	if block != nil {
		var err error
		if raw, err = block(ctx, el); err != nil {
			return nil, err
		}
	}
	r, ok := raw.(result.Result)
	if !ok {
		return interpret(raw)
	}
	switch r.Status() {
	case result.StatusError:
		return nil, &abort{res: r}
	case result.StatusSuccess:
		return r.Data(), nil
	}
	return nil, nil
}

func interpret(v any) (any, error) {
	p, ok := v.(result.Projectable)
	if !ok {
		return v, nil
	}
	if p.Status() == result.StatusError {
		return nil, &abort{res: p.Result()}
	}
	return p.Projected()
}

func truthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

func flatten(v any) []any {
	switch s := v.(type) {
	case nil:
		return []any{nil}
	case []any:
		return s
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return reflectItems(rv)
	}
	return []any{v}
}
