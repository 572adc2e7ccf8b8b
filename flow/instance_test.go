package flow

import (
	"context"
	stderrors "errors"
	"reflect"
	"slices"
	"testing"

	"github.com/kbukum/stepflow/errors"
	"github.com/kbukum/stepflow/result"
)

// statusServices returns services named after the Result they return, plus
// "exception" which returns a Go error.
func statusServices(log *callLog) map[string]Service {
	return map[string]Service{
		"success":   log.success(),
		"failure":   log.failure(),
		"error":     log.erroring(),
		"exception": log.failing("exception", stderrors.New("unexpected")),
	}
}

// runBody executes a single inline step and returns the pipeline Result.
func runBody(t *testing.T, body MethodFunc, opts ...Option) result.Result {
	t.Helper()
	d := mustDefine(t, "body", append([]Option{Steps(Func("body", body))}, opts...)...)
	res, err := d.Call(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return res
}

func TestCollectionAllErrorDominates(t *testing.T) {
	log := &callLog{}
	services := statusServices(log)
	res := runBody(t, func(ctx context.Context, inst *Instance, _ Args) (result.Result, error) {
		return inst.Collection([]string{"success", "error", "exception"}).
			All(func(ctx context.Context, el any) (any, error) {
				return inst.Step(ctx, services[el.(string)])
			}).
			Result(ctx)
	})
	if !res.Equal(result.Error()) {
		t.Errorf("expected bare error result, got %v", res)
	}
	if want := []string{"success", "error"}; !slices.Equal(log.calls, want) {
		t.Errorf("calls = %v, want %v", log.calls, want)
	}
}

func TestCollectionSelectKeepsElements(t *testing.T) {
	log := &callLog{}
	services := statusServices(log)
	res := runBody(t, func(ctx context.Context, inst *Instance, _ Args) (result.Result, error) {
		return inst.Collection([]string{"success", "failure", "success", "failure"}).
			Select(func(ctx context.Context, el any) (any, error) {
				return inst.Step(ctx, services[el.(string)])
			}).
			Result(ctx)
	})
	if !res.IsSuccess() {
		t.Fatalf("expected success, got %v", res)
	}
	got, _ := res.Get("values")
	if want := []any{"success", "success"}; !reflect.DeepEqual(got, want) {
		t.Errorf("values = %v, want %v", got, want)
	}
}

func TestStepOutcomeProjection(t *testing.T) {
	prices := map[string]int{"A-1": 3, "B-2": 5}
	lookup := NewService("lookup", func(_ context.Context, args Args) (result.Result, error) {
		sku := args["sku"].(string)
		p, ok := prices[sku]
		if !ok {
			return result.Failure(), nil
		}
		return result.Success(result.Data{"sku": sku, "price": p}), nil
	})

	tests := []struct {
		name string
		opts []StepOption
		want []any
	}{
		{"no outputs", nil, []any{true, false, true}},
		{"one output", []StepOption{Out("price")}, []any{3, nil, 5}},
		{
			name: "several outputs",
			opts: []StepOption{Out("sku"), OutAs(map[string]string{"price": "unit_price"})},
			want: []any{
				result.Data{"sku": "A-1", "unit_price": 3},
				nil,
				result.Data{"sku": "B-2", "unit_price": 5},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := runBody(t, func(ctx context.Context, inst *Instance, _ Args) (result.Result, error) {
				return inst.Collection([]string{"A-1", "X-0", "B-2"}).
					Map(func(ctx context.Context, el any) (any, error) {
						return inst.Step(ctx, lookup, append([]StepOption{InValue("sku", el)}, tc.opts...)...)
					}).
					Result(ctx)
			})
			got, _ := res.Get("values")
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("values = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestCollectionMapResults(t *testing.T) {
	res := runBody(t, func(ctx context.Context, inst *Instance, _ Args) (result.Result, error) {
		return inst.Collection([]int{1, 2, 3}).
			MapResults(func(_ context.Context, el any) (any, error) {
				n := el.(int)
				if n == 2 {
					return inst.Failure(), nil
				}
				return inst.Success(result.Data{"n": n}), nil
			}).
			Result(ctx)
	})
	got, _ := res.Get("values")
	want := []any{result.Data{"n": 1}, nil, result.Data{"n": 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("values = %#v, want %#v", got, want)
	}
}

func TestCollectionProtocolErrorStopsPipeline(t *testing.T) {
	d := mustDefine(t, "terminal", Steps(Func("body", func(ctx context.Context, inst *Instance, _ Args) (result.Result, error) {
		return inst.Collection([]int{1}).First().Map(nil).Result(ctx)
	})))
	_, err := d.Call(context.Background(), nil)
	if !errors.HasCode(err, errors.ErrCodeAlreadyUsedTerminalChaining) {
		t.Errorf("expected ALREADY_USED_TERMINAL_CHAINING, got %v", err)
	}
}

func TestCollectionNotEnumerable(t *testing.T) {
	d := mustDefine(t, "scalar", Steps(Func("body", func(ctx context.Context, inst *Instance, _ Args) (result.Result, error) {
		return inst.Collection(42).All(nil).Result(ctx)
	})))
	_, err := d.Call(context.Background(), nil)
	if !errors.HasCode(err, errors.ErrCodeCollectionNotEnumerable) {
		t.Errorf("expected COLLECTION_NOT_ENUMERABLE, got %v", err)
	}
}

func TestInstanceStepBindsOutputs(t *testing.T) {
	log := &callLog{}
	d := mustDefine(t, "nested", Steps(Func("body", func(ctx context.Context, inst *Instance, _ Args) (result.Result, error) {
		out, err := inst.Step(ctx, log.returning("quote", result.Success(result.Data{"total": 9})), Out("total"))
		if err != nil {
			return result.Result{}, err
		}
		return out.Result(), nil
	})))
	inst, res, err := d.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsSuccess() {
		t.Errorf("expected success, got %v", res)
	}
	if v, _ := inst.Get("total"); v != 9 {
		t.Errorf("expected total bound, got %v", v)
	}
}

func TestInstanceStepErrors(t *testing.T) {
	log := &callLog{}
	tests := []struct {
		name string
		svc  Service
		opts []StepOption
		code errors.ErrorCode
	}{
		{"nil service", nil, nil, errors.ErrCodeInvalidDefinition},
		{"missing attribute", log.success(), []StepOption{InAttr("nope")}, errors.ErrCodeAttributeNotFound},
		{"missing output", log.success(), []StepOption{Out("nope")}, errors.ErrCodeStepOutputMissing},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := mustDefine(t, "nested", Steps(Func("body", func(ctx context.Context, inst *Instance, _ Args) (result.Result, error) {
				_, err := inst.Step(ctx, tc.svc, tc.opts...)
				return inst.Success(), err
			})))
			_, err := d.Call(context.Background(), nil)
			if !errors.HasCode(err, tc.code) {
				t.Errorf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestInstanceStepFaultTolerant(t *testing.T) {
	log := &callLog{}
	res := runBody(t, func(ctx context.Context, inst *Instance, _ Args) (result.Result, error) {
		out, err := inst.Step(ctx, log.failing("explode", stderrors.New("boom")))
		if err != nil {
			return result.Result{}, err
		}
		return out.Result(), nil
	}, WithFaultTolerance())
	if !res.IsError() || res.Message() != "boom" {
		t.Errorf("expected converted error result, got %v", res)
	}
}

func TestPorts(t *testing.T) {
	d := mustDefine(t, "ports")
	inst := d.newInstance(Args{"qty": 2, "sku": "A-1"})

	qty := Port[int]{Key: "qty"}
	n, err := Read(inst, qty)
	if err != nil || n != 2 {
		t.Fatalf("Read(qty) = %d, %v", n, err)
	}
	Write(inst, qty, 5)
	if v, _ := inst.Get("qty"); v != 5 {
		t.Errorf("expected written value, got %v", v)
	}

	if _, err := Read(inst, Port[int]{Key: "sku"}); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for wrong type, got %v", err)
	}
	if _, err := Read(inst, Port[string]{Key: "missing"}); !errors.HasCode(err, errors.ErrCodeAttributeNotFound) {
		t.Errorf("expected ATTRIBUTE_NOT_FOUND, got %v", err)
	}
}

func TestInstanceAttributesAreCopies(t *testing.T) {
	inst := mustDefine(t, "copies").newInstance(nil)
	inst.Set("a", 1)
	attrs := inst.Attributes()
	attrs["a"] = 2
	if v, _ := inst.Get("a"); v != 1 {
		t.Errorf("expected attribute store untouched, got %v", v)
	}
}
