package sequence

import (
	"context"
	"iter"
)

// Iterator provides pull-based sequential access to a stream of elements.
type Iterator[T any] interface {
	// Next returns the next element. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// Sequence is a restartable description of an element stream. No element is
// produced until an Iterator is pulled.
type Sequence[T any] struct {
	create func(ctx context.Context) Iterator[T]
	finite bool
}

// Iter returns a fresh Iterator. The caller must Close it.
func (s *Sequence[T]) Iter(ctx context.Context) Iterator[T] {
	return s.create(ctx)
}

// Finite reports whether the sequence is known to end and may be
// materialized.
func (s *Sequence[T]) Finite() bool { return s.finite }

// Lazy returns the same stream marked as lazy.
func (s *Sequence[T]) Lazy() *Sequence[T] {
	return &Sequence[T]{create: s.create}
}

// --- Constructors ---

// FromSlice creates a finite sequence over items.
func FromSlice[T any](items []T) *Sequence[T] {
	return &Sequence[T]{
		create: func(_ context.Context) Iterator[T] {
			return &sliceIter[T]{items: items}
		},
		finite: true,
	}
}

// FromIterator wraps a single-use Iterator. The resulting sequence is lazy
// and can be iterated only once.
func FromIterator[T any](it Iterator[T]) *Sequence[T] {
	return &Sequence[T]{
		create: func(_ context.Context) Iterator[T] { return it },
	}
}

// FromFunc creates a lazy sequence from an Iterator factory.
func FromFunc[T any](fn func(ctx context.Context) Iterator[T]) *Sequence[T] {
	return &Sequence[T]{create: fn}
}

// Generate creates a lazy sequence whose elements come from repeated calls to
// next. Returning false ends the sequence.
func Generate[T any](next func(ctx context.Context) (T, bool, error)) *Sequence[T] {
	return &Sequence[T]{
		create: func(_ context.Context) Iterator[T] {
			return &genIter[T]{next: next}
		},
	}
}

// FromSeq adapts a range-over-func iterator. The sequence is lazy.
func FromSeq[T any](seq iter.Seq[T]) *Sequence[T] {
	return &Sequence[T]{
		create: func(_ context.Context) Iterator[T] {
			next, stop := iter.Pull(seq)
			return &pullIter[T]{next: next, stop: stop}
		},
	}
}

// FromChannel reads elements from ch until it is closed. The sequence is lazy.
func FromChannel[T any](ch <-chan T) *Sequence[T] {
	return &Sequence[T]{
		create: func(_ context.Context) Iterator[T] {
			return &channelIter[T]{ch: ch}
		},
	}
}

// --- Terminals ---

// Collect pulls every element into a slice. Only call it on finite sequences
// or on chains that end the stream themselves (Take).
func Collect[T any](ctx context.Context, s *Sequence[T]) ([]T, error) {
	it := s.create(ctx)
	defer it.Close()
	var out []T
	for {
		val, ok, err := it.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, val)
	}
}

// ForEach calls fn for each element until fn returns false or an error.
func ForEach[T any](ctx context.Context, s *Sequence[T], fn func(context.Context, T) (bool, error)) error {
	it := s.create(ctx)
	defer it.Close()
	for {
		val, ok, err := it.Next(ctx)
		if err != nil || !ok {
			return err
		}
		more, err := fn(ctx, val)
		if err != nil || !more {
			return err
		}
	}
}

// --- Internal iterators ---

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if it.index >= len(it.items) {
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

type genIter[T any] struct {
	next func(ctx context.Context) (T, bool, error)
	done bool
}

func (it *genIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if it.done {
		return zero, false, nil
	}
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	val, ok, err := it.next(ctx)
	if err != nil || !ok {
		it.done = true
		return zero, false, err
	}
	return val, true, nil
}

func (it *genIter[T]) Close() error {
	it.done = true
	return nil
}

type pullIter[T any] struct {
	next func() (T, bool)
	stop func()
}

func (it *pullIter[T]) Next(ctx context.Context) (T, bool, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, false, err
	}
	val, ok := it.next()
	return val, ok, nil
}

func (it *pullIter[T]) Close() error {
	it.stop()
	return nil
}

type channelIter[T any] struct {
	ch <-chan T
}

func (it *channelIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	select {
	case val, open := <-it.ch:
		if !open {
			return zero, false, nil
		}
		return val, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (it *channelIter[T]) Close() error { return nil }
