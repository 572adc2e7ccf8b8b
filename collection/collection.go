package collection

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"reflect"
	"slices"

	"github.com/kbukum/stepflow/errors"
	"github.com/kbukum/stepflow/sequence"
)

// Block is called once per element. Returned Projectable values (Results,
// views, step outcomes) are interpreted by status; anything else is used
// as-is.
type Block func(ctx context.Context, el any) (any, error)

// Collection is a deferred combinator chain over one source.
type Collection struct {
	source   *sequence.Sequence[any]
	rebuild  func([]any) any
	stages   []stage
	terminal *terminal
	err      error
}

// From binds src as a collection source. Supported sources are slices and
// arrays, maps (entries as sequence.Pair in ascending key order),
// sequence.Enumerable values such as sequence.Range and *sequence.Set,
// *sequence.Sequence[any], iter.Seq[any], channels of any element type
// (read until closed) and *Collection. Anything else yields a Collection whose Result reports
// COLLECTION_IS_NOT_ENUMERABLE.
func From(src any) *Collection {
	switch s := src.(type) {
	case nil:
		return invalid(src)
	case *Collection:
		return s.clone()
	case []any:
		return &Collection{source: sequence.FromSlice(s)}
	case *sequence.Sequence[any]:
		return &Collection{source: s}
	case iter.Seq[any]:
		return &Collection{source: sequence.FromSeq(s)}
	case <-chan any:
		return &Collection{source: sequence.FromChannel(s)}
	case chan any:
		return &Collection{source: sequence.FromChannel((<-chan any)(s))}
	case sequence.Enumerable:
		return &Collection{source: sequence.FromEach(s)}
	}
	return fromReflect(src)
}

// Lazy binds src like From but streams it element by element, so unbounded
// sources can be used with short-circuiting terminals.
func Lazy(src any) *Collection {
	c := From(src)
	if c.source != nil {
		c.source = c.source.Lazy()
	}
	return c
}

// Of binds a typed slice without reflection.
func Of[T any](items []T) *Collection {
	return OfSequence(sequence.FromSlice(items))
}

// OfSequence binds a typed sequence, keeping its finiteness.
func OfSequence[T any](s *sequence.Sequence[T]) *Collection {
	return &Collection{source: sequence.Map(s, toAny[T])}
}

// OfMap binds a typed map. Select and Reject over it produce a map of the
// same type.
func OfMap[K cmp.Ordered, V any](m map[K]V) *Collection {
	return &Collection{
		source: sequence.Map(sequence.FromMap(m), toAny[sequence.Pair]),
		rebuild: func(vals []any) any {
			out := make(map[K]V, len(vals))
			for _, v := range vals {
				p := v.(sequence.Pair)
				val, _ := p.Value.(V)
				out[p.Key.(K)] = val
			}
			return out
		},
	}
}

func toAny[T any](_ context.Context, v T) (any, error) { return v, nil }

func invalid(src any) *Collection {
	return &Collection{err: errors.CollectionNotEnumerable(src)}
}

func fromReflect(src any) *Collection {
	rv := reflect.ValueOf(src)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return &Collection{source: sequence.FromSlice(reflectItems(rv))}
	case reflect.Map:
		keys := rv.MapKeys()
		slices.SortFunc(keys, compareKeys)
		pairs := make([]any, len(keys))
		for i, k := range keys {
			pairs[i] = sequence.Pair{Key: k.Interface(), Value: rv.MapIndex(k).Interface()}
		}
		typ := rv.Type()
		return &Collection{
			source:  sequence.FromSlice(pairs),
			rebuild: func(vals []any) any { return rebuildMap(typ, vals) },
		}
	case reflect.Chan:
		if rv.Type().ChanDir()&reflect.RecvDir == 0 {
			return invalid(src)
		}
		return &Collection{source: sequence.Generate(func(ctx context.Context) (any, bool, error) {
			return receive(ctx, rv)
		})}
	}
	return invalid(src)
}

// receive reads one value from a channel of any element type, giving up when
// ctx is done.
func receive(ctx context.Context, ch reflect.Value) (any, bool, error) {
	chosen, v, ok := reflect.Select([]reflect.SelectCase{
		{Dir: reflect.SelectRecv, Chan: ch},
		{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())},
	})
	if chosen == 1 {
		return nil, false, ctx.Err()
	}
	if !ok {
		return nil, false, nil
	}
	return v.Interface(), true, nil
}

func reflectItems(rv reflect.Value) []any {
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items
}

func rebuildMap(typ reflect.Type, vals []any) any {
	out := reflect.MakeMapWithSize(typ, len(vals))
	for _, v := range vals {
		p := v.(sequence.Pair)
		out.SetMapIndex(valueOf(p.Key, typ.Key()), valueOf(p.Value, typ.Elem()))
	}
	return out.Interface()
}

func valueOf(v any, typ reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(typ)
	}
	return reflect.ValueOf(v)
}

// compareKeys orders map keys of the same kind natively and falls back to
// their printed form.
func compareKeys(a, b reflect.Value) int {
	switch a.Kind() {
	case reflect.String:
		return cmp.Compare(a.String(), b.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cmp.Compare(a.Uint(), b.Uint())
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(a.Float(), b.Float())
	}
	return cmp.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
}

func (c *Collection) clone() *Collection {
	n := *c
	n.stages = slices.Clone(c.stages)
	return &n
}

// Err returns the recorded protocol error, if any.
func (c *Collection) Err() error { return c.err }
