package sequence

import "context"

// Indexed is an element paired with its zero-based position.
type Indexed[T any] struct {
	Index int
	Value T
}

// Map transforms each element using fn.
func Map[I, O any](s *Sequence[I], fn func(context.Context, I) (O, error)) *Sequence[O] {
	return &Sequence[O]{
		create: func(ctx context.Context) Iterator[O] {
			return &mapIter[I, O]{source: s.create(ctx), fn: fn}
		},
		finite: s.finite,
	}
}

// Filter keeps only the elements for which fn returns true.
func Filter[T any](s *Sequence[T], fn func(context.Context, T) (bool, error)) *Sequence[T] {
	return &Sequence[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &filterIter[T]{source: s.create(ctx), fn: fn}
		},
		finite: s.finite,
	}
}

// FlatMap transforms each element into a sequence and flattens the results.
// The output is finite only when the source is; inner sequences are assumed
// to end.
func FlatMap[I, O any](s *Sequence[I], fn func(context.Context, I) (*Sequence[O], error)) *Sequence[O] {
	return &Sequence[O]{
		create: func(ctx context.Context) Iterator[O] {
			return &flatMapIter[I, O]{source: s.create(ctx), fn: fn}
		},
		finite: s.finite,
	}
}

// Take yields at most n elements and never pulls the source past the nth.
// The result is finite even over an unbounded source.
func Take[T any](s *Sequence[T], n int) *Sequence[T] {
	return &Sequence[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &takeIter[T]{source: s.create(ctx), remaining: n}
		},
		finite: true,
	}
}

// Drop skips the first n elements.
func Drop[T any](s *Sequence[T], n int) *Sequence[T] {
	return &Sequence[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &dropIter[T]{source: s.create(ctx), skip: n}
		},
		finite: s.finite,
	}
}

// WithIndex pairs each element with its position.
func WithIndex[T any](s *Sequence[T]) *Sequence[Indexed[T]] {
	return &Sequence[Indexed[T]]{
		create: func(ctx context.Context) Iterator[Indexed[T]] {
			return &indexIter[T]{source: s.create(ctx)}
		},
		finite: s.finite,
	}
}

// Chain joins sequences end to end. The result is finite when every part is.
func Chain[T any](parts ...*Sequence[T]) *Sequence[T] {
	finite := true
	for _, p := range parts {
		finite = finite && p.finite
	}
	return &Sequence[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &chainIter[T]{parts: parts, ctx: ctx}
		},
		finite: finite,
	}
}

// --- Iterator implementations ---

type mapIter[I, O any] struct {
	source Iterator[I]
	fn     func(context.Context, I) (O, error)
}

func (it *mapIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	out, err := it.fn(ctx, val)
	if err != nil {
		return zero, false, err
	}
	return out, true, nil
}

func (it *mapIter[I, O]) Close() error { return it.source.Close() }

type filterIter[T any] struct {
	source Iterator[T]
	fn     func(context.Context, T) (bool, error)
}

func (it *filterIter[T]) Next(ctx context.Context) (T, bool, error) {
	for {
		val, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return val, false, err
		}
		keep, err := it.fn(ctx, val)
		if err != nil {
			var zero T
			return zero, false, err
		}
		if keep {
			return val, true, nil
		}
	}
}

func (it *filterIter[T]) Close() error { return it.source.Close() }

type flatMapIter[I, O any] struct {
	source  Iterator[I]
	fn      func(context.Context, I) (*Sequence[O], error)
	current Iterator[O]
}

func (it *flatMapIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	for {
		if it.current != nil {
			val, ok, err := it.current.Next(ctx)
			if err != nil {
				return zero, false, err
			}
			if ok {
				return val, true, nil
			}
			_ = it.current.Close()
			it.current = nil
		}
		in, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		inner, err := it.fn(ctx, in)
		if err != nil {
			return zero, false, err
		}
		it.current = inner.Iter(ctx)
	}
}

func (it *flatMapIter[I, O]) Close() error {
	if it.current != nil {
		_ = it.current.Close()
	}
	return it.source.Close()
}

type takeIter[T any] struct {
	source    Iterator[T]
	remaining int
}

func (it *takeIter[T]) Next(ctx context.Context) (T, bool, error) {
	if it.remaining <= 0 {
		var zero T
		return zero, false, nil
	}
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return val, false, err
	}
	it.remaining--
	return val, true, nil
}

func (it *takeIter[T]) Close() error { return it.source.Close() }

type dropIter[T any] struct {
	source Iterator[T]
	skip   int
}

func (it *dropIter[T]) Next(ctx context.Context) (T, bool, error) {
	for it.skip > 0 {
		val, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return val, false, err
		}
		it.skip--
	}
	return it.source.Next(ctx)
}

func (it *dropIter[T]) Close() error { return it.source.Close() }

type indexIter[T any] struct {
	source Iterator[T]
	index  int
}

func (it *indexIter[T]) Next(ctx context.Context) (Indexed[T], bool, error) {
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return Indexed[T]{}, false, err
	}
	out := Indexed[T]{Index: it.index, Value: val}
	it.index++
	return out, true, nil
}

func (it *indexIter[T]) Close() error { return it.source.Close() }

// chainIter opens each part only when the previous one is exhausted.
type chainIter[T any] struct {
	parts   []*Sequence[T]
	ctx     context.Context
	index   int
	current Iterator[T]
}

func (it *chainIter[T]) Next(ctx context.Context) (T, bool, error) {
	for it.index < len(it.parts) {
		if it.current == nil {
			it.current = it.parts[it.index].create(it.ctx)
		}
		val, ok, err := it.current.Next(ctx)
		if err != nil {
			return val, false, err
		}
		if ok {
			return val, true, nil
		}
		_ = it.current.Close()
		it.current = nil
		it.index++
	}
	var zero T
	return zero, false, nil
}

func (it *chainIter[T]) Close() error {
	if it.current != nil {
		return it.current.Close()
	}
	return nil
}
