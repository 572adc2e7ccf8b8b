// Package result defines the tri-state Result exchanged between steps and the
// key-view projection engine built on top of it.
//
// A Result is success, failure or error, carries an immutable Data map and an
// optional message. Views select, exclude, rename or extend the keys of a
// successful Result without mutating it:
//
//	r := result.Success(result.Data{"foo": 1, "bar": 2})
//	v, err := r.WithOnlyKeys("foo").Projected() // 1, nil
//	v, err = r.WithExceptKeys("bar").WithExtraKeys(result.Data{"baz": 3}).Projected()
//	// map[baz:3 foo:1], nil
//
// Each directive checks key existence against the keys accumulated by the
// previous directive, so WithNoneKeys().WithOnlyKeys("foo") fails even though
// foo is present in the underlying data.
package result
