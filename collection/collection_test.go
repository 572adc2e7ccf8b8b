package collection

import (
	"context"
	"reflect"
	"slices"
	"testing"

	"github.com/kbukum/stepflow/errors"
	"github.com/kbukum/stepflow/result"
	"github.com/kbukum/stepflow/sequence"
)

// resultOf is a block that returns the element itself, for collections of
// Results.
func resultOf(_ context.Context, el any) (any, error) { return el, nil }

func run(t *testing.T, c *Collection) result.Result {
	t.Helper()
	res, err := c.Result(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return res
}

func value(t *testing.T, r result.Result, key string) any {
	t.Helper()
	v, ok := r.Get(key)
	if !ok {
		t.Fatalf("expected %q in %s", key, r)
	}
	return v
}

func TestFrom_Sources(t *testing.T) {
	ch := make(chan any, 3)
	ch <- 1
	ch <- 2
	ch <- 3
	close(ch)

	tests := []struct {
		name string
		src  any
		want []any
	}{
		{"any slice", []any{1, 2, 3}, []any{1, 2, 3}},
		{"typed slice", []int{1, 2, 3}, []any{1, 2, 3}},
		{"array", [3]string{"a", "b", "c"}, []any{"a", "b", "c"}},
		{"range", sequence.NewRange(1, 3), []any{1, 2, 3}},
		{"set", sequence.NewSet(1, 2, 2, 3), []any{1, 2, 3}},
		{"sequence", sequence.FromSlice([]any{1, 2, 3}), []any{1, 2, 3}},
		{"iter seq", slices.Values([]any{1, 2, 3}), []any{1, 2, 3}},
		{"channel", (<-chan any)(ch), []any{1, 2, 3}},
		{"map", map[string]int{"b": 2, "a": 1}, []any{sequence.Pair{Key: "a", Value: 1}, sequence.Pair{Key: "b", Value: 2}}},
		{"collection", From([]any{1, 2, 3}), []any{1, 2, 3}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := run(t, From(tc.src).Map(nil))
			if got := value(t, res, "values"); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestFrom_NotEnumerable(t *testing.T) {
	for _, src := range []any{nil, 42, "text", struct{}{}, 3.5, make(chan<- int)} {
		_, err := From(src).All(nil).Result(context.Background())
		if !errors.HasCode(err, errors.ErrCodeCollectionNotEnumerable) {
			t.Errorf("%T: expected COLLECTION_IS_NOT_ENUMERABLE, got %v", src, err)
		}
	}
}

// letters is a custom container that only knows how to yield its elements.
type letters []string

func (l letters) Each(yield func(any) bool) {
	for _, s := range l {
		if !yield(s) {
			return
		}
	}
}

func TestTerminalChainingGuard_AllSources(t *testing.T) {
	sources := map[string]func() *Collection{
		"slice":      func() *Collection { return From([]any{1, 2}) },
		"map":        func() *Collection { return From(map[string]int{"a": 1}) },
		"range":      func() *Collection { return From(sequence.Until(0, 3)) },
		"set":        func() *Collection { return From(sequence.NewSet("x")) },
		"enumerable": func() *Collection { return From(letters{"a", "b"}) },
		"iter seq":   func() *Collection { return From(slices.Values([]any{1, 2})) },
		"channel":    func() *Collection { return From(make(chan int)) },
		"generator": func() *Collection {
			return From(sequence.Generate(func(context.Context) (any, bool, error) { return 1, true, nil }))
		},
		"lazy":     func() *Collection { return Lazy([]any{1, 2}) },
		"typed":    func() *Collection { return Of([]string{"a"}) },
		"typedmap": func() *Collection { return OfMap(map[int]bool{1: true}) },
	}
	terminals := map[string]func(*Collection) *Collection{
		"first":   func(c *Collection) *Collection { return c.First() },
		"all?":    func(c *Collection) *Collection { return c.All(nil) },
		"any?":    func(c *Collection) *Collection { return c.Any(nil) },
		"detect":  func(c *Collection) *Collection { return c.Detect(nil) },
		"first_n": func(c *Collection) *Collection { return c.FirstN(1) },
		"count":   func(c *Collection) *Collection { return c.Count(nil) },
	}
	next := map[string]func(*Collection) *Collection{
		"map":    func(c *Collection) *Collection { return c.Map(nil) },
		"select": func(c *Collection) *Collection { return c.Select(nil) },
		"all":    func(c *Collection) *Collection { return c.All(nil) },
		"detect": func(c *Collection) *Collection { return c.Detect(nil) },
		"take":   func(c *Collection) *Collection { return c.Take(1) },
	}
	for srcName, src := range sources {
		for termName, term := range terminals {
			for opName, op := range next {
				t.Run(srcName+"/"+termName+"/"+opName, func(t *testing.T) {
					_, err := op(term(src())).Result(context.Background())
					if !errors.HasCode(err, errors.ErrCodeAlreadyUsedTerminalChaining) {
						t.Errorf("expected ALREADY_USED_TERMINAL_CHAINING, got %v", err)
					}
				})
			}
		}
	}
}

func TestTerminalChainingGuard_DoesNotAffectOriginal(t *testing.T) {
	base := From([]any{1}).All(nil)
	chained := base.Map(nil)
	if _, err := chained.Result(context.Background()); !errors.HasCode(err, errors.ErrCodeAlreadyUsedTerminalChaining) {
		t.Fatalf("expected ALREADY_USED_TERMINAL_CHAINING on the chained copy, got %v", err)
	}
	res := run(t, base)
	if !res.IsSuccess() {
		t.Errorf("expected base chain to stay valid, got %s", res)
	}
}

func TestNegativeCount(t *testing.T) {
	tests := []struct {
		name string
		op   func(*Collection) *Collection
		code errors.ErrorCode
	}{
		{"take", func(c *Collection) *Collection { return c.Take(-1) }, errors.ErrCodeInvalidInput},
		{"drop", func(c *Collection) *Collection { return c.Drop(-2) }, errors.ErrCodeInvalidInput},
		{"first_n", func(c *Collection) *Collection { return c.FirstN(-1) }, errors.ErrCodeInvalidInput},
		{"after terminal", func(c *Collection) *Collection { return c.First().Take(-1) }, errors.ErrCodeAlreadyUsedTerminalChaining},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.op(From([]any{1, 2})).Result(context.Background())
			if !errors.HasCode(err, tc.code) {
				t.Errorf("expected %s, got %v", tc.code, err)
			}
		})
	}

	res := run(t, From([]any{1, 2}).Take(0))
	if got := value(t, res, "values"); !reflect.DeepEqual(got, []any{}) {
		t.Errorf("expected Take(0) to keep nothing, got %#v", got)
	}
}

func TestFrom_TypedChannel(t *testing.T) {
	ch := make(chan int, 3)
	ch <- 1
	ch <- 2
	ch <- 3
	close(ch)

	res := run(t, From(ch).Select(func(_ context.Context, el any) (any, error) { return el.(int) != 2, nil }))
	if got := value(t, res, "values"); !reflect.DeepEqual(got, []any{1, 3}) {
		t.Errorf("expected [1 3], got %v", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := From(make(chan string)).All(nil).Result(ctx); err != context.Canceled {
		t.Errorf("expected context.Canceled from an open channel, got %v", err)
	}
}

func TestAllAny_Empty(t *testing.T) {
	if res := run(t, From([]any{}).All(nil)); !res.IsSuccess() {
		t.Errorf("All on empty: expected success, got %s", res)
	}
	if res := run(t, From([]any{}).Any(nil)); !res.IsFailure() {
		t.Errorf("Any on empty: expected failure, got %s", res)
	}
	if res := run(t, From([]any{}).None(nil)); !res.IsSuccess() {
		t.Errorf("None on empty: expected success, got %s", res)
	}
}

func TestSelect_Results(t *testing.T) {
	a := result.Success(result.Data{"id": 1})
	b := result.Failure(result.Data{"id": 2})
	c := result.Success(result.Data{"id": 3})
	d := result.Failure(result.Data{"id": 4})

	res := run(t, From([]any{a, b, c, d}).Select(resultOf))
	got := value(t, res, "values").([]any)
	if len(got) != 2 || !got[0].(result.Result).Equal(a) || !got[1].(result.Result).Equal(c) {
		t.Errorf("expected [a c], got %v", got)
	}

	rej := run(t, From([]any{a, b, c, d}).Reject(resultOf))
	if got := value(t, rej, "values").([]any); len(got) != 2 {
		t.Errorf("expected 2 rejected, got %v", got)
	}
}

func TestAll_ErrorDominates(t *testing.T) {
	calls := 0
	elems := []any{"ok", "err", "boom"}
	block := func(_ context.Context, el any) (any, error) {
		calls++
		switch el {
		case "ok":
			return result.Success(), nil
		case "err":
			return result.Error(), nil
		}
		panic("exception element must not be reached")
	}

	res := run(t, From(elems).All(block))
	if !res.IsError() {
		t.Fatalf("expected error result, got %s", res)
	}
	if len(res.Keys()) != 0 {
		t.Errorf("expected no data, got %v", res.Data())
	}
	if calls != 2 {
		t.Errorf("expected 2 block calls, got %d", calls)
	}
}

func TestErrorDominates_EveryCombinator(t *testing.T) {
	errRes := result.Error(result.Data{"reason": "down"})
	// Each list reaches the error before anything that would end the
	// combinator early.
	truthyFirst := []any{result.Success(), errRes, result.Failure()}
	falsyFirst := []any{result.Failure(), errRes, result.Success()}

	chains := map[string]*Collection{
		"all":         From(truthyFirst).All(resultOf),
		"any":         From(falsyFirst).Any(resultOf),
		"none":        From(falsyFirst).None(resultOf),
		"detect":      From(falsyFirst).Detect(resultOf),
		"select":      From(truthyFirst).Select(resultOf),
		"reject":      From(truthyFirst).Reject(resultOf),
		"map":         From(truthyFirst).Map(resultOf),
		"flat_map":    From(truthyFirst).FlatMap(resultOf),
		"map_results": From(truthyFirst).MapResults(resultOf),
		"count":       From(truthyFirst).Count(resultOf),
	}
	for name, c := range chains {
		t.Run(name, func(t *testing.T) {
			res := run(t, c)
			if !res.Equal(errRes) {
				t.Errorf("expected the element's error result, got %s", res)
			}
		})
	}
}

func TestAny_StopsAtFirstTruthy(t *testing.T) {
	var seen []any
	block := func(_ context.Context, el any) (any, error) {
		seen = append(seen, el)
		return el.(int) > 1, nil
	}
	res := run(t, From([]int{1, 2, 3, 4}).Any(block))
	if !res.IsSuccess() {
		t.Fatalf("expected success, got %s", res)
	}
	if !reflect.DeepEqual(seen, []any{1, 2}) {
		t.Errorf("expected to stop after 2, saw %v", seen)
	}
}

func TestAll_StopsAtFirstFalsy(t *testing.T) {
	calls := 0
	block := func(_ context.Context, el any) (any, error) {
		calls++
		return el, nil
	}
	res := run(t, From([]any{true, nil, true}).All(block))
	if !res.IsFailure() {
		t.Fatalf("expected failure, got %s", res)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDetect(t *testing.T) {
	isEven := func(_ context.Context, el any) (any, error) { return el.(int)%2 == 0, nil }

	res := run(t, From([]int{1, 3, 4, 6}).Detect(isEven))
	if value(t, res, "value") != 4 {
		t.Errorf("expected 4, got %s", res)
	}

	res = run(t, From([]int{1, 3}).Find(isEven))
	if !res.IsFailure() {
		t.Errorf("expected failure without match, got %s", res)
	}

	fallback := IfNone(func(context.Context) (any, error) { return "none", nil })
	res = run(t, From([]int{1, 3}).Detect(isEven, fallback))
	if value(t, res, "value") != "none" {
		t.Errorf("expected ifnone value, got %s", res)
	}
}

func TestDetect_MapReturnsPair(t *testing.T) {
	block := func(_ context.Context, el any) (any, error) {
		return el.(sequence.Pair).Value.(int) > 1, nil
	}
	res := run(t, From(map[string]int{"a": 1, "b": 2, "c": 3}).Detect(block))
	want := sequence.Pair{Key: "b", Value: 2}
	if value(t, res, "value") != want {
		t.Errorf("expected %v, got %s", want, res)
	}
}

func TestSelect_MapKeepsType(t *testing.T) {
	block := func(_ context.Context, el any) (any, error) {
		return el.(sequence.Pair).Value.(int)%2 == 1, nil
	}
	tests := []struct {
		name string
		c    *Collection
	}{
		{"reflect", From(map[string]int{"a": 1, "b": 2, "c": 3})},
		{"typed", OfMap(map[string]int{"a": 1, "b": 2, "c": 3})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := run(t, tc.c.Select(block))
			got, ok := value(t, res, "values").(map[string]int)
			if !ok {
				t.Fatalf("expected map[string]int, got %T", value(t, res, "values"))
			}
			if !reflect.DeepEqual(got, map[string]int{"a": 1, "c": 3}) {
				t.Errorf("unexpected values %v", got)
			}
		})
	}
}

func TestMap_AfterSelectOnMapIsSlice(t *testing.T) {
	res := run(t, From(map[string]int{"a": 1}).Select(nil).Map(func(_ context.Context, el any) (any, error) {
		return el.(sequence.Pair).Key, nil
	}))
	if !reflect.DeepEqual(value(t, res, "values"), []any{"a"}) {
		t.Errorf("unexpected %s", res)
	}
}

func TestMap_ProjectsViews(t *testing.T) {
	users := []any{
		result.Success(result.Data{"id": 1, "name": "ann"}),
		result.Failure(),
	}
	block := func(_ context.Context, el any) (any, error) {
		return el.(result.Result).WithOnlyKeys("name"), nil
	}
	res := run(t, From(users).Map(block))
	if !reflect.DeepEqual(value(t, res, "values"), []any{"ann", nil}) {
		t.Errorf("unexpected %s", res)
	}
}

func TestMap_ViewErrorIsGoError(t *testing.T) {
	block := func(_ context.Context, el any) (any, error) {
		return result.Success(result.Data{"a": 1}).WithOnlyKeys("missing"), nil
	}
	_, err := From([]any{1}).Map(block).Result(context.Background())
	if !errors.HasCode(err, errors.ErrCodeNotExistingAttributeForOnly) {
		t.Errorf("expected NOT_EXISTING_ATTRIBUTE_FOR_ONLY, got %v", err)
	}
}

func TestMapResults(t *testing.T) {
	block := func(_ context.Context, el any) (any, error) {
		if el.(int) == 2 {
			return result.Failure(), nil
		}
		return result.Success(result.Data{"n": el}), nil
	}
	res := run(t, From([]int{1, 2}).MapResults(block))
	want := []any{result.Data{"n": 1}, nil}
	if !reflect.DeepEqual(value(t, res, "values"), want) {
		t.Errorf("expected %v, got %s", want, res)
	}
}

func TestMapResults_ErrorKeepsData(t *testing.T) {
	block := func(_ context.Context, el any) (any, error) {
		return result.Error(result.Data{"code": 503}), nil
	}
	res := run(t, From([]int{1}).MapResults(block))
	if !res.IsError() || value(t, res, "code") != 503 {
		t.Errorf("expected error with data, got %s", res)
	}
}

func TestFlatMap(t *testing.T) {
	block := func(_ context.Context, el any) (any, error) {
		n := el.(int)
		return []int{n, n * 10}, nil
	}
	res := run(t, From([]int{1, 2}).CollectConcat(block))
	if !reflect.DeepEqual(value(t, res, "values"), []any{1, 10, 2, 20}) {
		t.Errorf("unexpected %s", res)
	}
}

func TestPositionalOperations(t *testing.T) {
	src := func() *Collection { return From(sequence.NewRange(1, 5)) }
	tests := []struct {
		name string
		c    *Collection
		key  string
		want any
	}{
		{"take", src().Take(2), "values", []any{1, 2}},
		{"drop", src().Drop(3), "values", []any{4, 5}},
		{"first", src().First(), "value", 1},
		{"first n", src().FirstN(3), "values", []any{1, 2, 3}},
		{"count", src().Count(nil), "value", 5},
		{"with index", src().Take(1).WithIndex(), "values", []any{sequence.Indexed[any]{Index: 0, Value: 1}}},
		{"no terminal", src(), "values", []any{1, 2, 3, 4, 5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := run(t, tc.c)
			if got := value(t, res, tc.key); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestFirst_Empty(t *testing.T) {
	if res := run(t, From([]any{}).First()); !res.IsFailure() {
		t.Errorf("expected failure, got %s", res)
	}
}

func TestInclude(t *testing.T) {
	if res := run(t, From([]string{"a", "b"}).Include("b")); !res.IsSuccess() {
		t.Errorf("expected success, got %s", res)
	}
	if res := run(t, From([]string{"a", "b"}).Include("z")); !res.IsFailure() {
		t.Errorf("expected failure, got %s", res)
	}
}

func TestCount_WithBlock(t *testing.T) {
	block := func(_ context.Context, el any) (any, error) { return el.(int) > 2, nil }
	res := run(t, From([]int{1, 2, 3, 4}).Count(block))
	if value(t, res, "value") != 2 {
		t.Errorf("expected 2, got %s", res)
	}
}

func TestFiniteSourcesRunStageByStage(t *testing.T) {
	var order []string
	tag := func(name string) Block {
		return func(_ context.Context, el any) (any, error) {
			order = append(order, name)
			return el, nil
		}
	}
	run(t, From([]int{1, 2}).Map(tag("map")).Select(tag("select")))
	want := []string{"map", "map", "select", "select"}
	if !slices.Equal(order, want) {
		t.Errorf("expected %v, got %v", want, order)
	}
}

func TestLazy_Unbounded(t *testing.T) {
	n := 0
	src := sequence.Generate(func(context.Context) (any, bool, error) {
		n++
		return n, true, nil
	})
	gt := func(limit int) Block {
		return func(_ context.Context, el any) (any, error) { return el.(int) > limit, nil }
	}

	res := run(t, From(src).Map(func(_ context.Context, el any) (any, error) {
		return el.(int) * 2, nil
	}).Detect(gt(6)))
	if value(t, res, "value") != 8 {
		t.Errorf("expected 8, got %s", res)
	}

	res = run(t, Lazy(sequence.NewRange(1, 1000)).Select(gt(10)).Take(2))
	if !reflect.DeepEqual(value(t, res, "values"), []any{11, 12}) {
		t.Errorf("unexpected %s", res)
	}
}

func TestBlockGoErrorPropagates(t *testing.T) {
	boom := errors.New(errors.ErrCodeStepException, "boom")
	_, err := From([]any{1}).All(func(context.Context, any) (any, error) { return nil, boom }).Result(context.Background())
	if err != boom {
		t.Errorf("expected block error, got %v", err)
	}
}

func TestContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := From([]any{1, 2}).All(nil).Result(ctx)
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
