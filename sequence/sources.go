package sequence

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"
)

// Pair is one map entry.
type Pair struct {
	Key   any
	Value any
}

func (p Pair) String() string { return fmt.Sprintf("%v: %v", p.Key, p.Value) }

// FromMap creates a finite sequence of the entries of m in ascending key
// order.
func FromMap[K cmp.Ordered, V any](m map[K]V) *Sequence[Pair] {
	return &Sequence[Pair]{
		create: func(_ context.Context) Iterator[Pair] {
			pairs := make([]Pair, 0, len(m))
			for _, k := range slices.Sorted(maps.Keys(m)) {
				pairs = append(pairs, Pair{Key: k, Value: m[k]})
			}
			return &sliceIter[Pair]{items: pairs}
		},
		finite: true,
	}
}

// Enumerable is implemented by custom container types that can yield their
// elements in order. Each must stop when yield returns false.
type Enumerable interface {
	Each(yield func(any) bool)
}

// FromEach adapts an Enumerable. The container is assumed to be finite.
func FromEach(e Enumerable) *Sequence[any] {
	s := FromSeq(iter.Seq[any](e.Each))
	s.finite = true
	return s
}

// Range is an integer range, inclusive of End unless Exclusive is set.
type Range struct {
	Start     int
	End       int
	Exclusive bool
}

// NewRange returns the inclusive range [start, end].
func NewRange(start, end int) Range { return Range{Start: start, End: end} }

// Until returns the exclusive range [start, end).
func Until(start, end int) Range { return Range{Start: start, End: end, Exclusive: true} }

// Len returns the number of integers in the range.
func (r Range) Len() int {
	last := r.End
	if r.Exclusive {
		last--
	}
	if last < r.Start {
		return 0
	}
	return last - r.Start + 1
}

// Each yields every integer in the range in ascending order.
func (r Range) Each(yield func(any) bool) {
	for i := range r.Len() {
		if !yield(r.Start + i) {
			return
		}
	}
}

// Seq returns the range as a finite sequence.
func (r Range) Seq() *Sequence[int] {
	return &Sequence[int]{
		create: func(_ context.Context) Iterator[int] {
			return &rangeIter{next: r.Start, remaining: r.Len()}
		},
		finite: true,
	}
}

func (r Range) String() string {
	if r.Exclusive {
		return fmt.Sprintf("%d...%d", r.Start, r.End)
	}
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

type rangeIter struct {
	next      int
	remaining int
}

func (it *rangeIter) Next(ctx context.Context) (int, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	if it.remaining <= 0 {
		return 0, false, nil
	}
	val := it.next
	it.next++
	it.remaining--
	return val, true, nil
}

func (it *rangeIter) Close() error { return nil }

// Set is an insertion-ordered set of unique values. It is not safe for
// concurrent use.
type Set[T comparable] struct {
	index map[T]struct{}
	order []T
}

// NewSet returns a set holding vals, duplicates dropped.
func NewSet[T comparable](vals ...T) *Set[T] {
	s := &Set[T]{index: make(map[T]struct{}, len(vals))}
	for _, v := range vals {
		s.Add(v)
	}
	return s
}

// Add inserts v and reports whether it was absent.
func (s *Set[T]) Add(v T) bool {
	if s.index == nil {
		s.index = make(map[T]struct{})
	}
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.order = append(s.order, v)
	return true
}

// Has reports whether v is in the set.
func (s *Set[T]) Has(v T) bool {
	_, ok := s.index[v]
	return ok
}

// Len returns the number of elements.
func (s *Set[T]) Len() int { return len(s.order) }

// Values returns the elements in insertion order.
func (s *Set[T]) Values() []T { return slices.Clone(s.order) }

// Each yields the elements in insertion order.
func (s *Set[T]) Each(yield func(any) bool) {
	for _, v := range s.order {
		if !yield(v) {
			return
		}
	}
}

// Seq returns a finite sequence over a snapshot of the set.
func (s *Set[T]) Seq() *Sequence[T] {
	return FromSlice(s.Values())
}

func (s *Set[T]) String() string {
	parts := make([]string, len(s.order))
	for i, v := range s.order {
		parts[i] = fmt.Sprint(v)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
