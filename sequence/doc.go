// Package sequence provides the ordered, pull-based element streams that
// collection combinators iterate over.
//
// A Sequence is either finite or lazy. Finite sequences (slices, maps,
// ranges, sets) can be materialized safely; lazy sequences (generators,
// channels, iter.Seq adapters) may be unbounded and must only be consumed
// element by element.
//
// # Sources
//
//   - FromSlice: ordered elements of a slice
//   - FromMap: map entries as Pair values in ascending key order
//   - Range / Until: integer ranges, inclusive or exclusive of the end
//   - Set: insertion-ordered set of unique values
//   - FromSeq / FromChannel / Generate / FromIterator: lazy sources
//   - FromEach: any type with an Each(yield) method (Enumerable)
//
// # Operators
//
//   - Map, Filter, FlatMap: per-element transforms
//   - Take, Drop: positional slicing; Take stops pulling once satisfied
//   - WithIndex: pair each element with its position
//   - Chain: join sequences end to end
//
// # Usage
//
//	src := sequence.Until(0, 10).Seq()
//	odd := sequence.Filter(src, func(_ context.Context, n int) (bool, error) {
//	    return n%2 == 1, nil
//	})
//	vals, _ := sequence.Collect(ctx, odd)
package sequence
